package route

import (
	"github.com/gofiber/fiber/v2"

	bookingController "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/controller"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
)

// Public: /api/checkout, /api/bookings/:reference
func BookingPublicRoutes(r fiber.Router, svc *bookingService.BookingService) {
	ctl := bookingController.NewBookingController(svc)

	r.Post("/checkout", ctl.Checkout)
	r.Get("/bookings/:reference", ctl.Lookup)
}

// User: /api/u/bookings
func BookingUserRoutes(r fiber.Router, svc *bookingService.BookingService) {
	ctl := bookingController.NewBookingController(svc)
	r.Get("/bookings", ctl.ListMine)
}

// Admin: /api/admin/bookings
func BookingAdminRoutes(r fiber.Router, svc *bookingService.BookingService) {
	ctl := bookingController.NewBookingController(svc)

	g := r.Group("/bookings")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Detail)
	g.Get("/:id/payments", ctl.Payments)
	g.Post("/:id/payments", ctl.ManualPayment)
	g.Post("/:id/refund", ctl.Refund)
	g.Post("/:id/cancel", ctl.Cancel)
	g.Post("/:id/payment-link", ctl.PaymentLink)
	g.Post("/:id/checkout", ctl.RestartCheckout)
}
