package route

import (
	"github.com/gofiber/fiber/v2"

	planController "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/controller"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
)

func catalogPublic(c *fiber.Ctx) error {
	c.Locals("catalog_public", true)
	return c.Next()
}

// Public: /api/payment-plans, /api/block-packages (aktif saja)
func PaymentPlanPublicRoutes(r fiber.Router, svc *planService.PaymentPlanService) {
	ctl := planController.NewPaymentPlanController(svc)
	r.Get("/payment-plans", catalogPublic, ctl.ListPlans)
	r.Get("/block-packages", catalogPublic, ctl.ListPackages)
}

// Admin: /api/admin/payment-plans, /api/admin/block-packages
func PaymentPlanAdminRoutes(r fiber.Router, svc *planService.PaymentPlanService) {
	ctl := planController.NewPaymentPlanController(svc)

	r.Get("/payment-plans", ctl.ListPlans)
	r.Post("/payment-plans", ctl.CreatePlan)
	r.Get("/block-packages", ctl.ListPackages)
	r.Post("/block-packages", ctl.CreatePackage)
}
