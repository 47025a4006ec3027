// file: internals/features/finance/payments/controller/payment_gateway_events_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/dto"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

type PaymentGatewayEventController struct {
	Processor *service.WebhookProcessor
}

func NewPaymentGatewayEventController(p *service.WebhookProcessor) *PaymentGatewayEventController {
	return &PaymentGatewayEventController{Processor: p}
}

/* =======================================================================
   List
   Query params: status, provider, booking_id, page, per_page
======================================================================= */

func (h *PaymentGatewayEventController) ListEvents(c *fiber.Ctx) error {
	f := service.EventFilter{
		Status:   c.Query("status"),
		Provider: c.Query("provider"),
	}
	if bid := strings.TrimSpace(c.Query("booking_id")); bid != "" {
		id, err := uuid.Parse(bid)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid booking_id")
		}
		f.BookingID = &id
	}
	paging := helper.ResolvePaging(c, 20, 200)

	rows, total, err := h.Processor.ListEvents(c.UserContext(), f, paging)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPagination(total, paging))
}

func (h *PaymentGatewayEventController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	row, err := h.Processor.GetEvent(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(row, true))
}

// POST /api/admin/payment-events/:id/replay
func (h *PaymentGatewayEventController) Replay(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	out, err := h.Processor.Replay(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "event replayed", out)
}
