package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	sessionController "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/controller"
)

// Public: /api/sessions (hanya sesi aktif)
func SessionPublicRoutes(r fiber.Router, db *gorm.DB) {
	ctl := sessionController.NewSessionController(db)

	g := r.Group("/sessions", sessionController.PublicOnly())
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.GetByID)
}

// Coach: /api/c/sessions
func SessionCoachRoutes(r fiber.Router, db *gorm.DB) {
	ctl := sessionController.NewSessionController(db)

	r.Get("/sessions", ctl.ListMine)
}

// Admin: /api/admin/sessions (list + detail + create + patch)
func SessionAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := sessionController.NewSessionController(db)

	g := r.Group("/sessions")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Get("/:id", ctl.GetByID)
	g.Patch("/:id", ctl.Patch)
	g.Delete("/:id", ctl.Deactivate)
}
