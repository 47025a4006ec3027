package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/pgarray"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

type CreateSessionRequest struct {
	SessionProgramID   *uuid.UUID `json:"session_program_id"`
	SessionName        string     `json:"session_name" validate:"required,min=2,max=160"`
	SessionLocation    *string    `json:"session_location" validate:"omitempty,max=200"`
	SessionDescription *string    `json:"session_description"`
	SessionAgeGroup    *string    `json:"session_age_group" validate:"omitempty,max=40"`

	SessionCapacity   int        `json:"session_capacity" validate:"required,gt=0"`
	SessionDayOfWeek  *int       `json:"session_day_of_week" validate:"omitempty,min=0,max=6"`
	SessionDaysOfWeek []int64    `json:"session_days_of_week" validate:"omitempty,dive,min=0,max=6"`
	SessionStartTime  *string    `json:"session_start_time" validate:"omitempty,len=5"`
	SessionEndTime    *string    `json:"session_end_time" validate:"omitempty,len=5"`
	SessionStartDate  *time.Time `json:"session_start_date"`
	SessionEndDate    *time.Time `json:"session_end_date"`
	SessionCoaches    []string   `json:"session_coaches"`
	SessionPrice      int        `json:"session_price" validate:"gte=0"`
}

func (r CreateSessionRequest) ToModel() *model.SessionModel {
	return &model.SessionModel{
		SessionProgramID:   r.SessionProgramID,
		SessionName:        strings.TrimSpace(r.SessionName),
		SessionLocation:    r.SessionLocation,
		SessionDescription: r.SessionDescription,
		SessionAgeGroup:    r.SessionAgeGroup,
		SessionCapacity:    r.SessionCapacity,
		SessionDayOfWeek:   r.SessionDayOfWeek,
		SessionDaysOfWeek:  pgarray.Int64s(r.SessionDaysOfWeek),
		SessionStartTime:   r.SessionStartTime,
		SessionEndTime:     r.SessionEndTime,
		SessionStartDate:   r.SessionStartDate,
		SessionEndDate:     r.SessionEndDate,
		SessionCoaches:     pgarray.Strings(r.SessionCoaches),
		SessionPrice:       r.SessionPrice,
		SessionIsActive:    true,
	}
}

// PatchSessionRequest: semua field opsional. session_enrolled sengaja tidak ada.
type PatchSessionRequest struct {
	SessionName       *string    `json:"session_name" validate:"omitempty,min=2,max=160"`
	SessionLocation   *string    `json:"session_location" validate:"omitempty,max=200"`
	SessionCapacity   *int       `json:"session_capacity" validate:"omitempty,gt=0"`
	SessionDayOfWeek  *int       `json:"session_day_of_week" validate:"omitempty,min=0,max=6"`
	SessionDaysOfWeek *[]int64   `json:"session_days_of_week"`
	SessionStartTime  *string    `json:"session_start_time" validate:"omitempty,len=5"`
	SessionEndTime    *string    `json:"session_end_time" validate:"omitempty,len=5"`
	SessionStartDate  *time.Time `json:"session_start_date"`
	SessionEndDate    *time.Time `json:"session_end_date"`
	SessionCoaches    *[]string  `json:"session_coaches"`
	SessionPrice      *int       `json:"session_price" validate:"omitempty,gte=0"`
	SessionIsActive   *bool      `json:"session_is_active"`
}

func (p PatchSessionRequest) ToUpdates() map[string]any {
	upd := map[string]any{}
	if p.SessionName != nil {
		upd["session_name"] = strings.TrimSpace(*p.SessionName)
	}
	if p.SessionLocation != nil {
		upd["session_location"] = *p.SessionLocation
	}
	if p.SessionCapacity != nil {
		upd["session_capacity"] = *p.SessionCapacity
	}
	if p.SessionDayOfWeek != nil {
		upd["session_day_of_week"] = *p.SessionDayOfWeek
	}
	if p.SessionDaysOfWeek != nil {
		upd["session_days_of_week"] = pgarray.Int64s(*p.SessionDaysOfWeek)
	}
	if p.SessionStartTime != nil {
		upd["session_start_time"] = *p.SessionStartTime
	}
	if p.SessionEndTime != nil {
		upd["session_end_time"] = *p.SessionEndTime
	}
	if p.SessionStartDate != nil {
		upd["session_start_date"] = *p.SessionStartDate
	}
	if p.SessionEndDate != nil {
		upd["session_end_date"] = *p.SessionEndDate
	}
	if p.SessionCoaches != nil {
		upd["session_coaches"] = pgarray.Strings(*p.SessionCoaches)
	}
	if p.SessionPrice != nil {
		upd["session_price"] = *p.SessionPrice
	}
	if p.SessionIsActive != nil {
		upd["session_is_active"] = *p.SessionIsActive
	}
	return upd
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type SessionResponse struct {
	model.SessionModel
	SessionSpacesLeft int `json:"session_spaces_left"`
}

func FromModel(m *model.SessionModel) SessionResponse {
	left := m.SessionCapacity - m.SessionEnrolled
	if left < 0 {
		left = 0
	}
	return SessionResponse{SessionModel: *m, SessionSpacesLeft: left}
}

func FromModels(rows []model.SessionModel) []SessionResponse {
	out := make([]SessionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
