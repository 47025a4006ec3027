// Package testutil provides an in-memory store and fixtures for service and controller tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	database "github.com/mergimg0/ttnts121-sub004/internals/databases"
	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	couponModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/model"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
)

var dbSeq atomic.Int64

// NewDB opens a private shared-cache sqlite database with the full schema. A single
// connection keeps transactions serialised the way row locks would on postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

/* =========================================================
   Fixtures
========================================================= */

func Session(t *testing.T, db *gorm.DB, name string, capacity, enrolled, price int) *sessionModel.SessionModel {
	t.Helper()
	s := &sessionModel.SessionModel{
		SessionName:     name,
		SessionCapacity: capacity,
		SessionEnrolled: enrolled,
		SessionPrice:    price,
		SessionIsActive: true,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func Coupon(t *testing.T, db *gorm.DB, code string, typ discounts.DiscountType, value int64) *couponModel.CouponModel {
	t.Helper()
	c := &couponModel.CouponModel{
		CouponCode:          code,
		CouponDiscountType:  typ,
		CouponDiscountValue: decimal.NewFromInt(value),
		CouponIsActive:      true,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	return c
}

// PendingBooking inserts a provisional booking for the given sessions.
func PendingBooking(t *testing.T, db *gorm.DB, amount int, sessions ...*sessionModel.SessionModel) *bookingModel.BookingModel {
	t.Helper()
	if len(sessions) == 0 {
		t.Fatal("PendingBooking needs at least one session")
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.SessionID.String())
	}
	b := &bookingModel.BookingModel{
		BookingChildFirstName:  "Sam",
		BookingChildLastName:   "Carter",
		BookingParentFirstName: "Alex",
		BookingParentLastName:  "Carter",
		BookingEmail:           "Parent@Example.com",
		BookingPhone:           "07000000000",
		BookingSessionID:       sessions[0].SessionID,
		BookingSessionIDs:      ids,
		BookingAmount:          amount,
		BookingPaymentStatus:   bookingModel.PaymentPending,
		BookingTermsAccepted:   true,
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func BlockBooking(t *testing.T, db *gorm.DB, remaining, pricePerSession int) *blockModel.BlockBookingModel {
	t.Helper()
	b := &blockModel.BlockBookingModel{
		BlockBookingParentName:        "Alex Carter",
		BlockBookingEmail:             "parent@example.com",
		BlockBookingChildName:         "Sam Carter",
		BlockBookingTotalSessions:     remaining,
		BlockBookingRemainingSessions: remaining,
		BlockBookingPricePerSession:   pricePerSession,
		BlockBookingTotalPaid:         remaining * pricePerSession,
		BlockBookingStatus:            blockModel.BlockActive,
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create block booking: %v", err)
	}
	return b
}

// Enrolled re-reads a session's enrolled counter.
func Enrolled(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var s sessionModel.SessionModel
	if err := db.Take(&s, "session_id = ?", id).Error; err != nil {
		t.Fatalf("reload session: %v", err)
	}
	return s.SessionEnrolled
}
