package controller

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/dto"
	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
	blockService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	authMiddleware "github.com/mergimg0/ttnts121-sub004/internals/middlewares/auth"
)

type BlockBookingController struct {
	Svc       *blockService.BlockBookingService
	Validator *validator.Validate
}

func NewBlockBookingController(svc *blockService.BlockBookingService) *BlockBookingController {
	return &BlockBookingController{Svc: svc, Validator: validator.New()}
}

func effective(m *blockModel.BlockBookingModel) dto.BlockBookingResponse {
	st := blockService.DeriveBlockStatus(m.BlockBookingStatus, m.BlockBookingRemainingSessions,
		blockService.TransitionTick, m.BlockBookingExpiresAt, time.Now().UTC())
	return dto.FromModel(m, st)
}

// POST /api/admin/block-bookings/:id/deduct
func (h *BlockBookingController) Deduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.DeductRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res, err := h.Svc.DeductBlockSession(c.UserContext(), id, blockService.DeductInput{
		SessionDate:     req.SessionDate,
		TimetableSlotID: req.TimetableSlotID,
		CoachID:         req.CoachID,
		DeductedBy:      authMiddleware.UserID(c),
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "session deducted", res)
}

// POST /api/admin/block-bookings/:id/refund
func (h *BlockBookingController) Refund(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.RefundRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
		}
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res, err := h.Svc.RefundBlockSessions(c.UserContext(), id, blockService.RefundInput{
		SessionsToRefund: req.SessionsToRefund,
		RefundAmount:     req.RefundAmount,
		Reason:           req.Reason,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "block booking refunded", res)
}

// POST /api/admin/block-bookings
func (h *BlockBookingController) Create(c *fiber.Ctx) error {
	var req dto.CreateBlockBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := h.Svc.Create(c.UserContext(), blockService.CreateInput{
		PackageID:       req.BlockPackageID,
		SessionID:       req.SessionID,
		TotalSessions:   req.TotalSessions,
		PricePerSession: req.PricePerSession,
		TotalPaid:       req.TotalPaid,
		ParentName:      req.ParentName,
		Email:           req.Email,
		Phone:           req.Phone,
		ChildName:       req.ChildName,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "block booking created", effective(m))
}

// GET /api/admin/block-bookings?status=&email=
func (h *BlockBookingController) List(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 25, 200)
	rows, total, err := h.Svc.List(c.UserContext(), blockService.ListFilter{
		Status: c.Query("status"),
		Email:  c.Query("email"),
	}, paging)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out := make([]dto.BlockBookingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, effective(&rows[i]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, paging))
}

// GET /api/admin/block-bookings/:id (dengan riwayat pemakaian)
func (h *BlockBookingController) Detail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	m, err := h.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", effective(m))
}

// GET /api/u/block-bookings: milik parent yang login (by email)
func (h *BlockBookingController) ListMine(c *fiber.Ctx) error {
	email := authMiddleware.UserEmail(c)
	if email == "" {
		return helper.JsonError(c, fiber.StatusForbidden, "token has no email claim")
	}
	paging := helper.ResolvePaging(c, 50, 100)
	rows, total, err := h.Svc.List(c.UserContext(), blockService.ListFilter{Email: email}, paging)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out := make([]dto.BlockBookingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, effective(&rows[i]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, paging))
}
