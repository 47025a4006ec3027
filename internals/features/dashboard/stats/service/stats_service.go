package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	paymentModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
)

type Stats struct {
	BookingsTotal       int64 `json:"bookings_total"`
	BookingsConfirmed   int64 `json:"bookings_confirmed"`
	BookingsProvisional int64 `json:"bookings_provisional"`
	BookingsCancelled   int64 `json:"bookings_cancelled"`

	// pence
	RevenuePaid        int64 `json:"revenue_paid"`
	RevenueRefunded    int64 `json:"revenue_refunded"`
	RevenueNet         int64 `json:"revenue_net"`
	BalanceOutstanding int64 `json:"balance_outstanding"`

	SessionsActive   int64   `json:"sessions_active"`
	Capacity         int64   `json:"capacity"`
	Enrolled         int64   `json:"enrolled"`
	UtilisationRatio float64 `json:"utilisation_ratio"`

	BlockBookingsActive int64 `json:"block_bookings_active"`
	WebhookEventsFailed int64 `json:"webhook_events_failed"`

	GeneratedAt time.Time `json:"generated_at"`
}

// StatsService memoises the dashboard numbers for TTL. Concurrent misses share one query.
type StatsService struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	cache *Stats
	until time.Time
}

func NewStatsService(db *gorm.DB, ttl time.Duration) *StatsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsService{DB: db, TTL: ttl, Now: time.Now}
}

func (s *StatsService) Get(ctx context.Context) (*Stats, error) {
	now := s.Now()
	s.mu.Lock()
	if s.cache != nil && now.Before(s.until) {
		out := *s.cache
		s.mu.Unlock()
		return &out, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("stats", func() (any, error) {
		st, err := s.compute(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache = st
		s.until = s.Now().Add(s.TTL)
		s.mu.Unlock()
		return st, nil
	})
	if err != nil {
		log.Printf("[Stats] ERROR compute err=%v", err)
		return nil, err
	}
	out := *v.(*Stats)
	return &out, nil
}

// Invalidate drops the memo; the next Get recomputes.
func (s *StatsService) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *StatsService) compute(ctx context.Context) (*Stats, error) {
	db := s.DB.WithContext(ctx)
	st := &Stats{GeneratedAt: s.Now().UTC()}

	var byStatus []struct {
		Status *string
		N      int64
	}
	if err := db.Model(&bookingModel.BookingModel{}).
		Select("booking_status AS status, COUNT(*) AS n").
		Group("booking_status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, r := range byStatus {
		st.BookingsTotal += r.N
		switch {
		case r.Status == nil:
			st.BookingsProvisional += r.N
		case *r.Status == string(bookingModel.BookingConfirmed):
			st.BookingsConfirmed += r.N
		case *r.Status == string(bookingModel.BookingCancelled):
			st.BookingsCancelled += r.N
		}
	}

	var money struct {
		Paid     int64
		Refunded int64
	}
	if err := db.Model(&paymentModel.Payment{}).
		Select(`COALESCE(SUM(CASE WHEN payment_method <> ? AND payment_status = ? THEN payment_amount ELSE 0 END), 0) AS paid,
		        COALESCE(SUM(CASE WHEN payment_method = ? AND payment_status IN (?, ?) THEN payment_amount ELSE 0 END), 0) AS refunded`,
			paymentModel.PaymentMethodRefund, paymentModel.PaymentStatusPaid,
			paymentModel.PaymentMethodRefund, paymentModel.PaymentStatusPaid, paymentModel.PaymentStatusRefunded).
		Scan(&money).Error; err != nil {
		return nil, err
	}
	st.RevenuePaid = money.Paid
	st.RevenueRefunded = money.Refunded
	st.RevenueNet = money.Paid - money.Refunded

	if err := db.Model(&bookingModel.BookingModel{}).
		Where("booking_status = ?", bookingModel.BookingConfirmed).
		Select("COALESCE(SUM(booking_balance_due), 0)").
		Scan(&st.BalanceOutstanding).Error; err != nil {
		return nil, err
	}

	var sess struct {
		N        int64
		Capacity int64
		Enrolled int64
	}
	if err := db.Model(&sessionModel.SessionModel{}).
		Where("session_is_active = ?", true).
		Select("COUNT(*) AS n, COALESCE(SUM(session_capacity), 0) AS capacity, COALESCE(SUM(session_enrolled), 0) AS enrolled").
		Scan(&sess).Error; err != nil {
		return nil, err
	}
	st.SessionsActive = sess.N
	st.Capacity = sess.Capacity
	st.Enrolled = sess.Enrolled
	if sess.Capacity > 0 {
		st.UtilisationRatio = float64(sess.Enrolled) / float64(sess.Capacity)
	}

	if err := db.Model(&blockModel.BlockBookingModel{}).
		Where("block_booking_status = ?", blockModel.BlockActive).
		Count(&st.BlockBookingsActive).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&paymentModel.PaymentGatewayEventModel{}).
		Where("gateway_event_status = ?", paymentModel.GatewayEventStatusFailed).
		Count(&st.WebhookEventsFailed).Error; err != nil {
		return nil, err
	}
	return st, nil
}
