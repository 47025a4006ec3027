// file: internals/features/bookings/sessions/model/session_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/helpers/pgarray"
)

/*
  sessions = coaching slot (recurring weekly or dated)
  - session_enrolled hanya diubah lewat capacity ledger (server-side +1 / -1)
*/

type SessionModel struct {
	SessionID        uuid.UUID  `gorm:"column:session_id;type:uuid;primaryKey" json:"session_id"`
	SessionProgramID *uuid.UUID `gorm:"column:session_program_id;type:uuid;index" json:"session_program_id,omitempty"`

	SessionName        string  `gorm:"column:session_name;type:varchar(160);not null" json:"session_name"`
	SessionLocation    *string `gorm:"column:session_location;type:varchar(200)" json:"session_location,omitempty"`
	SessionDescription *string `gorm:"column:session_description" json:"session_description,omitempty"`
	SessionAgeGroup    *string `gorm:"column:session_age_group;type:varchar(40)" json:"session_age_group,omitempty"`

	SessionCapacity int `gorm:"column:session_capacity;not null;default:0" json:"session_capacity"`
	SessionEnrolled int `gorm:"column:session_enrolled;not null;default:0" json:"session_enrolled"`

	// 0=Sunday..6=Saturday
	SessionDayOfWeek  *int           `gorm:"column:session_day_of_week" json:"session_day_of_week,omitempty"`
	SessionDaysOfWeek pgarray.Int64s `gorm:"column:session_days_of_week" json:"session_days_of_week,omitempty"`
	SessionStartTime  *string        `gorm:"column:session_start_time;type:varchar(5)" json:"session_start_time,omitempty"` // HH:MM
	SessionEndTime    *string        `gorm:"column:session_end_time;type:varchar(5)" json:"session_end_time,omitempty"`
	SessionStartDate  *time.Time     `gorm:"column:session_start_date" json:"session_start_date,omitempty"`
	SessionEndDate    *time.Time     `gorm:"column:session_end_date" json:"session_end_date,omitempty"`

	SessionCoaches pgarray.Strings `gorm:"column:session_coaches" json:"session_coaches"`

	// harga per booking dalam pence
	SessionPrice    int  `gorm:"column:session_price;not null;default:0" json:"session_price"`
	SessionIsActive bool `gorm:"column:session_is_active;not null;default:true" json:"session_is_active"`

	SessionCreatedAt time.Time `gorm:"column:session_created_at;autoCreateTime" json:"session_created_at"`
	SessionUpdatedAt time.Time `gorm:"column:session_updated_at;autoUpdateTime" json:"session_updated_at"`
}

func (SessionModel) TableName() string { return "sessions" }

func (s *SessionModel) BeforeCreate(tx *gorm.DB) error {
	if s.SessionID == uuid.Nil {
		s.SessionID = uuid.New()
	}
	return nil
}

// Weekdays merges day_of_week and days_of_week.
func (s *SessionModel) Weekdays() []time.Weekday {
	seen := map[int]bool{}
	out := make([]time.Weekday, 0, len(s.SessionDaysOfWeek)+1)
	if s.SessionDayOfWeek != nil && *s.SessionDayOfWeek >= 0 && *s.SessionDayOfWeek <= 6 {
		seen[*s.SessionDayOfWeek] = true
		out = append(out, time.Weekday(*s.SessionDayOfWeek))
	}
	for _, d := range s.SessionDaysOfWeek {
		if d < 0 || d > 6 || seen[int(d)] {
			continue
		}
		seen[int(d)] = true
		out = append(out, time.Weekday(d))
	}
	return out
}

// RunsOn reports whether the session takes place on the given calendar day.
func (s *SessionModel) RunsOn(day time.Time) bool {
	if !s.SessionIsActive {
		return false
	}
	d := dateOnly(day)
	if s.SessionStartDate != nil && d.Before(dateOnly(*s.SessionStartDate)) {
		return false
	}
	if s.SessionEndDate != nil && d.After(dateOnly(*s.SessionEndDate)) {
		return false
	}
	wds := s.Weekdays()
	if len(wds) == 0 {
		// dated one-off session
		return s.SessionStartDate != nil && d.Equal(dateOnly(*s.SessionStartDate))
	}
	for _, wd := range wds {
		if wd == day.Weekday() {
			return true
		}
	}
	return false
}

func (s *SessionModel) IsFull() bool {
	return s.SessionCapacity > 0 && s.SessionEnrolled >= s.SessionCapacity
}

func (s *SessionModel) HasCoach(coachID string) bool {
	return s.SessionCoaches.Contains(coachID)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextRun returns the first day on or after from (calendar date, UTC midnight) the session
// runs, looking at most a year ahead.
func (s *SessionModel) NextRun(from time.Time) (time.Time, bool) {
	d := dateOnly(from)
	for i := 0; i < 370; i++ {
		if s.RunsOn(d) {
			return d, true
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}
