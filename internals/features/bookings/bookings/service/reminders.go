package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/dbtime"
)

/* =========================================================
   Reminder candidates (dipakai scheduler)
========================================================= */

// DueBalanceReminders lists confirmed bookings with a balance due within `withinDays`
// that have not been reminded yet.
func (s *BookingService) DueBalanceReminders(ctx context.Context, withinDays int) ([]bookingModel.BookingModel, error) {
	today := dbtime.CalendarDay(s.now(), s.Loc)
	limit := today.AddDate(0, 0, withinDays)

	var rows []bookingModel.BookingModel
	err := s.DB.WithContext(ctx).
		Where("booking_status = ?", bookingModel.BookingConfirmed).
		Where("booking_balance_due > 0").
		Where("booking_balance_due_date IS NOT NULL AND booking_balance_due_date <= ?", limit).
		Where("booking_balance_reminder_sent_at IS NULL").
		Order("booking_balance_due_date ASC").
		Find(&rows).Error
	return rows, err
}

// MarkBalanceReminderSent claims the reminder; false means another run already sent it.
func (s *BookingService) MarkBalanceReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&bookingModel.BookingModel{}).
		Where("booking_id = ? AND booking_balance_reminder_sent_at IS NULL", id).
		Update("booking_balance_reminder_sent_at", s.now())
	return res.RowsAffected == 1, res.Error
}

type SessionReminder struct {
	Booking  bookingModel.BookingModel
	Sessions []sessionModel.SessionModel
}

// SessionReminderCandidates returns confirmed bookings with at least one session running on
// `day` (a calendar day) and no reminder sent since that day began.
func (s *BookingService) SessionReminderCandidates(ctx context.Context, day time.Time) ([]SessionReminder, error) {
	day = dbtime.CalendarDay(day, time.UTC)
	since := s.dayStart(day)

	var sessions []sessionModel.SessionModel
	if err := s.DB.WithContext(ctx).Where("session_is_active = ?", true).Find(&sessions).Error; err != nil {
		return nil, err
	}
	running := map[uuid.UUID]sessionModel.SessionModel{}
	for i := range sessions {
		if sessions[i].RunsOn(day) {
			running[sessions[i].SessionID] = sessions[i]
		}
	}
	if len(running) == 0 {
		return nil, nil
	}

	var rows []bookingModel.BookingModel
	if err := s.DB.WithContext(ctx).
		Where("booking_status = ?", bookingModel.BookingConfirmed).
		Where("booking_session_reminder_sent_at IS NULL OR booking_session_reminder_sent_at < ?", since).
		Order("booking_created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]SessionReminder, 0, len(rows))
	for _, b := range rows {
		var mine []sessionModel.SessionModel
		for _, sid := range b.SessionUUIDs() {
			if ss, ok := running[sid]; ok {
				mine = append(mine, ss)
			}
		}
		if len(mine) > 0 {
			out = append(out, SessionReminder{Booking: b, Sessions: mine})
		}
	}
	return out, nil
}

// MarkSessionReminderSent claims the reminder for `day`.
func (s *BookingService) MarkSessionReminderSent(ctx context.Context, id uuid.UUID, day time.Time) (bool, error) {
	since := s.dayStart(dbtime.CalendarDay(day, time.UTC))
	res := s.DB.WithContext(ctx).Model(&bookingModel.BookingModel{}).
		Where("booking_id = ?", id).
		Where("booking_session_reminder_sent_at IS NULL OR booking_session_reminder_sent_at < ?", since).
		Update("booking_session_reminder_sent_at", s.now())
	return res.RowsAffected == 1, res.Error
}

// dayStart is midnight of the calendar day in the academy timezone, as UTC. Reminders for a
// day are sent the evening before, so the claim window opens one day earlier.
func (s *BookingService) dayStart(day time.Time) time.Time {
	loc := s.Loc
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -1).UTC()
}
