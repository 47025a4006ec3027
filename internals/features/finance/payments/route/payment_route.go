package route

import (
	"github.com/gofiber/fiber/v2"

	paymentController "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/controller"
	paymentService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/service"
)

// Provider callbacks: /webhooks/* (tanpa auth, signature yang menjaga)
func WebhookRoutes(r fiber.Router, p *paymentService.WebhookProcessor) {
	ctl := paymentController.NewWebhookController(p)
	r.Post("/payment", ctl.Payment)
	r.Post("/midtrans", ctl.Midtrans)
}

// Admin: /api/admin/payment-events
func PaymentEventAdminRoutes(r fiber.Router, p *paymentService.WebhookProcessor) {
	ctl := paymentController.NewPaymentGatewayEventController(p)

	g := r.Group("/payment-events")
	g.Get("/", ctl.ListEvents)
	g.Get("/:id", ctl.GetByID)
	g.Post("/:id/replay", ctl.Replay)
}
