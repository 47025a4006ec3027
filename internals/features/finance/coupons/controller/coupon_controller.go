package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/dto"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

type CouponController struct {
	Svc       *couponService.CouponService
	Validator *validator.Validate
}

func NewCouponController(svc *couponService.CouponService) *CouponController {
	return &CouponController{Svc: svc, Validator: validator.New()}
}

// POST /api/checkout/validate-coupon
// Selalu 200 setelah body valid; hasil ada di field "valid".
func (h *CouponController) ValidateCoupon(c *fiber.Ctx) error {
	var req dto.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res := h.Svc.ValidateCoupon(c.UserContext(), req.Code, req.CartTotal, req.SessionIDs)
	out := dto.ValidateCouponResponse{Valid: res.Valid, Error: res.Error}
	if res.Valid {
		out.Discount = &res.Discount
		out.FinalTotal = &res.FinalTotal
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// GET /api/admin/coupons
func (h *CouponController) List(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 25, 200)
	rows, total, err := h.Svc.List(c.UserContext(), c.QueryBool("active", false), paging)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, paging))
}

// POST /api/admin/coupons
func (h *CouponController) Create(c *fiber.Ctx) error {
	var req dto.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m := req.ToModel()
	if err := h.Svc.Create(c.UserContext(), m); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "coupon created", m)
}

// PATCH /api/admin/coupons/:id
func (h *CouponController) Patch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.PatchCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := h.Svc.Patch(c.UserContext(), id, req.ToUpdates())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "coupon updated", m)
}

// GET /api/admin/coupons/:id/uses
func (h *CouponController) ListUses(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	paging := helper.ResolvePaging(c, 50, 500)
	rows, total, err := h.Svc.ListUses(c.UserContext(), id, paging)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, paging))
}
