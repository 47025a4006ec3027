package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
)

// Interface supaya gampang di-mock
type CapacityLedger interface {
	LoadBookable(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]sessionModel.SessionModel, error)
	IncrementEnrollment(tx *gorm.DB, sessionID uuid.UUID) error
	ReleaseEnrollment(tx *gorm.DB, sessionID uuid.UUID) error
}

type capacityLedger struct{}

func NewCapacityLedger() CapacityLedger {
	return &capacityLedger{}
}

// LoadBookable returns the sessions in request order; every one must exist, be active and
// have a free place.
func (s *capacityLedger) LoadBookable(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]sessionModel.SessionModel, error) {
	if len(sessionIDs) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "at least one session is required")
	}

	var rows []sessionModel.SessionModel
	if err := tx.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Find(&rows).Error; err != nil {
		log.Printf("[CapacityLedger] ERROR LoadBookable ids=%v err=%v", sessionIDs, err)
		return nil, err
	}
	byID := make(map[uuid.UUID]sessionModel.SessionModel, len(rows))
	for _, r := range rows {
		byID[r.SessionID] = r
	}

	out := make([]sessionModel.SessionModel, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		row, ok := byID[id]
		if !ok {
			return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		if !row.SessionIsActive {
			return nil, fiber.NewError(fiber.StatusConflict, "session "+row.SessionName+" is not open for booking")
		}
		if row.IsFull() {
			return nil, fiber.NewError(fiber.StatusConflict, "session "+row.SessionName+" is full")
		}
		out = append(out, row)
	}
	return out, nil
}

// IncrementEnrollment is a server-side enrolled + 1. Payment already happened, so a full
// session is over-enrolled and flagged instead of refused.
func (s *capacityLedger) IncrementEnrollment(tx *gorm.DB, sessionID uuid.UUID) error {
	inc := tx.Model(&sessionModel.SessionModel{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"session_enrolled":   gorm.Expr("session_enrolled + 1"),
			"session_updated_at": time.Now().UTC(),
		})
	if inc.Error != nil {
		log.Printf("[CapacityLedger] ERROR IncrementEnrollment sessionID=%s err=%v", sessionID, inc.Error)
		return inc.Error
	}
	if inc.RowsAffected == 0 {
		log.Printf("[CapacityLedger] NOT FOUND IncrementEnrollment sessionID=%s", sessionID)
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	var row sessionModel.SessionModel
	if err := tx.Select("session_id, session_name, session_capacity, session_enrolled").
		Where("session_id = ?", sessionID).
		Take(&row).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if row.SessionCapacity > 0 && row.SessionEnrolled > row.SessionCapacity {
		log.Printf("[ALERT] session over capacity sessionID=%s name=%q enrolled=%d capacity=%d",
			sessionID, row.SessionName, row.SessionEnrolled, row.SessionCapacity)
	}
	log.Printf("[CapacityLedger] SUCCESS IncrementEnrollment sessionID=%s enrolled=%d", sessionID, row.SessionEnrolled)
	return nil
}

func (s *capacityLedger) ReleaseEnrollment(tx *gorm.DB, sessionID uuid.UUID) error {
	dec := tx.Model(&sessionModel.SessionModel{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"session_enrolled":   gorm.Expr("CASE WHEN session_enrolled > 0 THEN session_enrolled - 1 ELSE 0 END"),
			"session_updated_at": time.Now().UTC(),
		})
	if dec.Error != nil {
		log.Printf("[CapacityLedger] ERROR ReleaseEnrollment sessionID=%s err=%v", sessionID, dec.Error)
		return dec.Error
	}
	log.Printf("[CapacityLedger] SUCCESS ReleaseEnrollment sessionID=%s rows=%d", sessionID, dec.RowsAffected)
	return nil
}
