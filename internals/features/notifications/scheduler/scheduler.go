// Package scheduler runs the academy's periodic jobs: balance reminders, next-day session
// reminders and block booking expiry.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	"github.com/mergimg0/ttnts121-sub004/internals/features/notifications/emails"
)

const (
	JobBalanceReminders = "balance-reminders"
	JobSessionReminders = "session-reminders"
	JobExpireBlocks     = "expire-blocks"
)

type ReminderSource interface {
	DueBalanceReminders(ctx context.Context, withinDays int) ([]bookingModel.BookingModel, error)
	MarkBalanceReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
	SessionReminderCandidates(ctx context.Context, day time.Time) ([]bookingService.SessionReminder, error)
	MarkSessionReminderSent(ctx context.Context, id uuid.UUID, day time.Time) (bool, error)
}

type ReminderSender interface {
	SendBalanceReminder(ctx context.Context, b *bookingModel.BookingModel, payURL string) emails.SendResult
	SendSessionReminder(ctx context.Context, b *bookingModel.BookingModel, day time.Time, sessions []sessionModel.SessionModel) emails.SendResult
}

type BlockExpirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

type Options struct {
	Spec       string // cron spec for reminders, e.g. "0 8 * * *"
	ExpirySpec string // default "@hourly"
	WithinDays int
	BaseURL    string
	Loc        *time.Location
	JobTimeout time.Duration
}

type Scheduler struct {
	Bookings ReminderSource
	Sender   ReminderSender
	Blocks   BlockExpirer
	Opts     Options
	Now      func() time.Time

	cron *cron.Cron
	jobs map[string]func(context.Context) (int, error)
}

func New(bookings ReminderSource, sender ReminderSender, blocks BlockExpirer, opts Options) *Scheduler {
	if opts.Loc == nil {
		opts.Loc = time.UTC
	}
	if opts.Spec == "" {
		opts.Spec = "0 8 * * *"
	}
	if opts.ExpirySpec == "" {
		opts.ExpirySpec = "@hourly"
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 4 * time.Minute
	}
	s := &Scheduler{Bookings: bookings, Sender: sender, Blocks: blocks, Opts: opts, Now: time.Now}
	s.jobs = map[string]func(context.Context) (int, error){
		JobBalanceReminders: s.RunBalanceReminders,
		JobSessionReminders: s.RunSessionReminders,
		JobExpireBlocks:     s.RunExpireBlocks,
	}
	return s
}

// Start registers the jobs and starts cron in its own goroutine. Overlapping runs of the
// same job are skipped.
func (s *Scheduler) Start() error {
	c := cron.New(
		cron.WithLocation(s.Opts.Loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	for _, e := range []struct{ spec, name string }{
		{s.Opts.Spec, JobBalanceReminders},
		{s.Opts.Spec, JobSessionReminders},
		{s.Opts.ExpirySpec, JobExpireBlocks},
	} {
		name := e.name
		if _, err := c.AddFunc(e.spec, func() { s.runLogged(name) }); err != nil {
			return fmt.Errorf("add cron %s (%q): %w", name, e.spec, err)
		}
	}
	c.Start()
	s.cron = c
	log.Printf("[SCHEDULER] started reminders=%q expiry=%q tz=%s", s.Opts.Spec, s.Opts.ExpirySpec, s.Opts.Loc)
	return nil
}

// Stop waits for running jobs (bounded by ctx).
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Printf("[SCHEDULER] stop timed out, jobs still running")
	}
}

func (s *Scheduler) JobNames() []string {
	out := make([]string, 0, len(s.jobs))
	for k := range s.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RunJob runs one job synchronously (CLI).
func (s *Scheduler) RunJob(ctx context.Context, name string) (int, error) {
	fn, ok := s.jobs[strings.TrimSpace(name)]
	if !ok {
		return 0, fmt.Errorf("unknown job %q (known: %s)", name, strings.Join(s.JobNames(), ", "))
	}
	return fn(ctx)
}

func (s *Scheduler) runLogged(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Opts.JobTimeout)
	defer cancel()
	start := time.Now()
	n, err := s.RunJob(ctx, name)
	if err != nil {
		log.Printf("[SCHEDULER] %s FAILED after %s: %v", name, time.Since(start).Round(time.Millisecond), err)
		return
	}
	log.Printf("[SCHEDULER] %s done n=%d in %s", name, n, time.Since(start).Round(time.Millisecond))
}

/* =========================================================
   Jobs
========================================================= */

// RunBalanceReminders sends one reminder per booking with a balance due soon.
// The claim happens before sending: a failed send is logged, not retried.
func (s *Scheduler) RunBalanceReminders(ctx context.Context) (int, error) {
	rows, err := s.Bookings.DueBalanceReminders(ctx, s.Opts.WithinDays)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range rows {
		b := &rows[i]
		claimed, err := s.Bookings.MarkBalanceReminderSent(ctx, b.BookingID)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}
		res := s.Sender.SendBalanceReminder(ctx, b, s.payURL(b))
		if !res.OK {
			log.Printf("[ALERT] balance reminder not delivered ref=%s err=%s", b.BookingReference, res.Error)
			continue
		}
		sent++
	}
	return sent, nil
}

// RunSessionReminders reminds parents of sessions running tomorrow (academy timezone).
func (s *Scheduler) RunSessionReminders(ctx context.Context) (int, error) {
	day := s.tomorrow()
	cands, err := s.Bookings.SessionReminderCandidates(ctx, day)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range cands {
		b := &cands[i].Booking
		claimed, err := s.Bookings.MarkSessionReminderSent(ctx, b.BookingID, day)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}
		res := s.Sender.SendSessionReminder(ctx, b, day, cands[i].Sessions)
		if !res.OK {
			log.Printf("[ALERT] session reminder not delivered ref=%s err=%s", b.BookingReference, res.Error)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Scheduler) RunExpireBlocks(ctx context.Context) (int, error) {
	if s.Blocks == nil {
		return 0, nil
	}
	n, err := s.Blocks.ExpireDue(ctx)
	return int(n), err
}

// tomorrow is the next calendar day in the academy timezone, as midnight UTC.
func (s *Scheduler) tomorrow() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	y, m, d := now().In(s.Opts.Loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

func (s *Scheduler) payURL(b *bookingModel.BookingModel) string {
	base := strings.TrimRight(s.Opts.BaseURL, "/")
	return base + "/booking/" + b.BookingReference + "?email=" + url.QueryEscape(b.BookingEmail)
}
