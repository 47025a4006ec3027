package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/dto"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	paymentModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	authMiddleware "github.com/mergimg0/ttnts121-sub004/internals/middlewares/auth"
)

type BookingController struct {
	Svc       *bookingService.BookingService
	Validator *validator.Validate
}

func NewBookingController(svc *bookingService.BookingService) *BookingController {
	return &BookingController{Svc: svc, Validator: validator.New()}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params("id")))
}

/* =========================================================
   PUBLIC
========================================================= */

// POST /api/checkout
func (h *BookingController) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	b, err := h.Svc.CreatePendingBooking(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	res, err := h.Svc.StartCheckout(c.UserContext(), b.BookingID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	// status terbaru (free booking langsung confirmed)
	if fresh, gerr := h.Svc.Get(c.UserContext(), b.BookingID); gerr == nil {
		b = fresh
	}
	return helper.JsonCreated(c, "booking created", dto.CheckoutResponse{
		Booking:  dto.ToPublic(b),
		Checkout: res,
	})
}

// GET /api/bookings/:reference?email=
// Email wajib cocok; beda email = 404 supaya reference tidak bisa ditebak.
func (h *BookingController) Lookup(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "email is required")
	}
	b, err := h.Svc.GetByReference(c.UserContext(), c.Params("reference"))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if b.BookingEmail != email {
		return helper.JsonError(c, fiber.StatusNotFound, "booking not found")
	}
	return helper.JsonOK(c, "ok", dto.ToPublic(b))
}

/* =========================================================
   USER
========================================================= */

// GET /api/u/bookings
func (h *BookingController) ListMine(c *fiber.Ctx) error {
	email := authMiddleware.UserEmail(c)
	if email == "" {
		return helper.JsonError(c, fiber.StatusForbidden, "token has no email claim")
	}
	rows, err := h.Svc.ListByParentEmail(c.UserContext(), email)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToPublicList(rows))
}

/* =========================================================
   ADMIN
========================================================= */

// GET /api/admin/bookings?status=&payment_status=&email=&session_id=&q=
func (h *BookingController) List(c *fiber.Ctx) error {
	f := bookingService.ListFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Email:         c.Query("email"),
		Search:        c.Query("q"),
	}
	if s := strings.TrimSpace(c.Query("session_id")); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid session_id")
		}
		f.SessionID = &id
	}

	paging := helper.ResolvePaging(c, 25, 200)
	rows, total, err := h.Svc.List(c.UserContext(), f, paging)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, paging))
}

// GET /api/admin/bookings/:id
func (h *BookingController) Detail(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	b, err := h.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	payments, err := h.Svc.ListPayments(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToDetail(b, payments))
}

// GET /api/admin/bookings/:id/payments
func (h *BookingController) Payments(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	rows, err := h.Svc.ListPayments(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if rows == nil {
		rows = []paymentModel.Payment{}
	}
	return helper.JsonOK(c, "ok", rows)
}

// POST /api/admin/bookings/:id/cancel
func (h *BookingController) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.CancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
		}
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	b, err := h.Svc.CancelBooking(c.UserContext(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "booking cancelled", b)
}

// POST /api/admin/bookings/:id/payments
func (h *BookingController) ManualPayment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.ManualPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	res, err := h.Svc.RecordManualPayment(c.UserContext(), id, bookingService.ManualPaymentInput{
		Amount:     req.Amount,
		Method:     paymentModel.PaymentMethod(req.Method),
		Note:       strings.TrimSpace(req.Note),
		RecordedBy: authMiddleware.UserID(c),
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "payment recorded", res)
}

// POST /api/admin/bookings/:id/refund
func (h *BookingController) Refund(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	b, err := h.Svc.RefundPayment(c.UserContext(), id, bookingService.RefundInput{
		Amount:     req.Amount,
		Reason:     strings.TrimSpace(req.Reason),
		RecordedBy: authMiddleware.UserID(c),
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "refund recorded", b)
}

// POST /api/admin/bookings/:id/payment-link
func (h *BookingController) PaymentLink(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.PaymentLinkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
		}
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	res, err := h.Svc.CreatePaymentLink(c.UserContext(), id, req.Amount)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "payment link created", res)
}

// POST /api/admin/bookings/:id/checkout (buka ulang checkout yang gagal)
func (h *BookingController) RestartCheckout(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	res, err := h.Svc.StartCheckout(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "checkout opened", res)
}
