package route

import (
	"github.com/gofiber/fiber/v2"

	couponController "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/controller"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
)

// Public: /api/checkout/validate-coupon
func CouponPublicRoutes(r fiber.Router, svc *couponService.CouponService) {
	ctl := couponController.NewCouponController(svc)
	r.Post("/checkout/validate-coupon", ctl.ValidateCoupon)
}

// Admin: /api/admin/coupons
func CouponAdminRoutes(r fiber.Router, svc *couponService.CouponService) {
	ctl := couponController.NewCouponController(svc)

	g := r.Group("/coupons")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Patch)
	g.Get("/:id/uses", ctl.ListUses)
}
