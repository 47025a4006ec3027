package route

import (
	"github.com/gofiber/fiber/v2"

	blockController "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/controller"
	blockService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/service"
)

// Admin + coach: /api/admin/block-bookings
func BlockBookingAdminRoutes(r fiber.Router, svc *blockService.BlockBookingService) {
	ctl := blockController.NewBlockBookingController(svc)

	g := r.Group("/block-bookings")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Get("/:id", ctl.Detail)
	g.Post("/:id/deduct", ctl.Deduct)
	g.Post("/:id/refund", ctl.Refund)
}

// Coach: /api/c/block-bookings/:id/deduct (absen di lapangan)
func BlockBookingCoachRoutes(r fiber.Router, svc *blockService.BlockBookingService) {
	ctl := blockController.NewBlockBookingController(svc)

	r.Get("/block-bookings/:id", ctl.Detail)
	r.Post("/block-bookings/:id/deduct", ctl.Deduct)
}

// User: /api/u/block-bookings
func BlockBookingUserRoutes(r fiber.Router, svc *blockService.BlockBookingService) {
	ctl := blockController.NewBlockBookingController(svc)
	r.Get("/block-bookings", ctl.ListMine)
}
