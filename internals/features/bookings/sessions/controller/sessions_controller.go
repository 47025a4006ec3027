// file: internals/features/bookings/sessions/controller/sessions_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/dto"
	"github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	authMiddleware "github.com/mergimg0/ttnts121-sub004/internals/middlewares/auth"
)

type SessionController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{DB: db, Validator: validator.New()}
}

// GET /api/sessions (public, hanya aktif) dan /api/admin/sessions (semua)
func (h *SessionController) List(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 25, 200)

	q := h.DB.WithContext(c.UserContext()).Model(&model.SessionModel{})
	if isPublic, _ := c.Locals("sessions_public").(bool); isPublic || c.Query("active") == "true" {
		q = q.Where("session_is_active = ?", true)
	}
	if pid := strings.TrimSpace(c.Query("program_id")); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid program_id")
		}
		q = q.Where("session_program_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.FromFiberError(c, err)
	}
	var rows []model.SessionModel
	if err := q.Order("session_name ASC").Offset(paging.Offset).Limit(paging.Limit).Find(&rows).Error; err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPagination(total, paging))
}

// PublicOnly marks the request so List filters inactive sessions.
func PublicOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("sessions_public", true)
		return c.Next()
	}
}

// GET /sessions/:id
func (h *SessionController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var m model.SessionModel
	if err := h.DB.WithContext(c.UserContext()).First(&m, "session_id = ?", id).Error; err != nil {
		return helper.FromFiberError(c, helper.MapDBError(err, "session not found"))
	}
	return helper.JsonOK(c, "ok", dto.FromModel(&m))
}

// POST /api/admin/sessions
func (h *SessionController) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m := req.ToModel()
	if err := h.DB.WithContext(c.UserContext()).Create(m).Error; err != nil {
		return helper.FromFiberError(c, helper.MapDBError(err, "session not found"))
	}
	return helper.JsonCreated(c, "session created", dto.FromModel(m))
}

// PATCH /api/admin/sessions/:id
func (h *SessionController) Patch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var req dto.PatchSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	upd := req.ToUpdates()
	if len(upd) == 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, "nothing to update")
	}

	var m model.SessionModel
	err = h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.SessionModel{}).Where("session_id = ?", id).Updates(upd)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&m, "session_id = ?", id).Error
	})
	if err != nil {
		return helper.FromFiberError(c, helper.MapDBError(err, "session not found"))
	}
	return helper.JsonUpdated(c, "session updated", dto.FromModel(&m))
}

// GET /api/c/sessions: sesi milik coach yang login
func (h *SessionController) ListMine(c *fiber.Ctx) error {
	coachID := authMiddleware.UserID(c)
	if coachID == "" {
		return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	var rows []model.SessionModel
	if err := h.DB.WithContext(c.UserContext()).
		Where("session_is_active = ?", true).
		Order("session_name ASC").
		Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonOK(c, "ok", []dto.SessionResponse{})
		}
		return helper.FromFiberError(c, err)
	}
	mine := make([]model.SessionModel, 0, len(rows))
	for i := range rows {
		if rows[i].HasCoach(coachID) {
			mine = append(mine, rows[i])
		}
	}
	return helper.JsonOK(c, "ok", dto.FromModels(mine))
}

// DELETE /api/admin/sessions/:id: soft: session_is_active=false, bookings tetap utuh
func (h *SessionController) Deactivate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	res := h.DB.WithContext(c.UserContext()).
		Model(&model.SessionModel{}).
		Where("session_id = ?", id).
		Update("session_is_active", false)
	if res.Error != nil {
		return helper.FromFiberError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "session not found")
	}
	return helper.JsonUpdated(c, "session deactivated", fiber.Map{"session_id": id})
}
