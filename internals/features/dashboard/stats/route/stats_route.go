package route

import (
	"github.com/gofiber/fiber/v2"

	statsController "github.com/mergimg0/ttnts121-sub004/internals/features/dashboard/stats/controller"
	statsService "github.com/mergimg0/ttnts121-sub004/internals/features/dashboard/stats/service"
)

// Admin: /api/admin/dashboard
func DashboardAdminRoutes(r fiber.Router, svc *statsService.StatsService) {
	ctl := statsController.NewStatsController(svc)
	r.Get("/dashboard/stats", ctl.Get)
}
