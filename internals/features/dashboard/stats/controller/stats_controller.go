package controller

import (
	"github.com/gofiber/fiber/v2"

	statsService "github.com/mergimg0/ttnts121-sub004/internals/features/dashboard/stats/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

type StatsController struct {
	Svc *statsService.StatsService
}

func NewStatsController(svc *statsService.StatsService) *StatsController {
	return &StatsController{Svc: svc}
}

// GET /api/admin/dashboard/stats (?refresh=1 melewati cache)
func (h *StatsController) Get(c *fiber.Ctx) error {
	if c.QueryBool("refresh") {
		h.Svc.Invalidate()
	}
	st, err := h.Svc.Get(c.UserContext())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", st)
}
