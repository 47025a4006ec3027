// file: internals/features/finance/payments/controller/webhook_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

type WebhookController struct {
	Processor *service.WebhookProcessor
}

func NewWebhookController(p *service.WebhookProcessor) *WebhookController {
	return &WebhookController{Processor: p}
}

// POST /webhooks/payment
// Signature diverifikasi atas raw body sebelum parsing apa pun.
func (h *WebhookController) Payment(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	out, err := h.Processor.HandlePayment(c.UserContext(), body, c.Get("signature"), requestHeaders(c))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": out.Duplicate, "status": out.Status})
}

// POST /webhooks/midtrans
func (h *WebhookController) Midtrans(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	out, err := h.Processor.HandleMidtrans(c.UserContext(), body, requestHeaders(c))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": out.Duplicate, "status": out.Status})
}

func requestHeaders(c *fiber.Ctx) map[string]string {
	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			continue
		}
		headers[k] = strings.Join(v, ",")
	}
	return headers
}
