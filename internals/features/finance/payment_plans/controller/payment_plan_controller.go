package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/dto"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

type PaymentPlanController struct {
	Svc       *planService.PaymentPlanService
	Validator *validator.Validate
}

func NewPaymentPlanController(svc *planService.PaymentPlanService) *PaymentPlanController {
	return &PaymentPlanController{Svc: svc, Validator: validator.New()}
}

// GET /api/payment-plans (public: aktif saja) | /api/admin/payment-plans
func (h *PaymentPlanController) ListPlans(c *fiber.Ctx) error {
	rows, err := h.Svc.ListPlans(c.UserContext(), c.Locals("catalog_public") != nil || c.QueryBool("active", false))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

func (h *PaymentPlanController) CreatePlan(c *fiber.Ctx) error {
	var req dto.CreatePaymentPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m := req.ToModel()
	if err := h.Svc.CreatePlan(c.UserContext(), m); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "payment plan created", m)
}

// GET /api/block-packages | /api/admin/block-packages
func (h *PaymentPlanController) ListPackages(c *fiber.Ctx) error {
	rows, err := h.Svc.ListPackages(c.UserContext(), c.Locals("catalog_public") != nil || c.QueryBool("active", false))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

func (h *PaymentPlanController) CreatePackage(c *fiber.Ctx) error {
	var req dto.CreateBlockPackageRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m := req.ToModel()
	if err := h.Svc.CreatePackage(c.UserContext(), m); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "block package created", m)
}
