package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	paymentModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

func pay(t *testing.T, db *gorm.DB, b *bookingModel.BookingModel, amount int, method paymentModel.PaymentMethod, status paymentModel.PaymentStatus) {
	t.Helper()
	p := &paymentModel.Payment{
		PaymentBookingID: b.BookingID,
		PaymentAmount:    amount,
		PaymentMethod:    method,
		PaymentStatus:    status,
		PaymentReference: bookingModel.NewReference("T"),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
}

func TestStatsComputeAndMemo(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.Session(t, db, "U9", 10, 4, 2000)
	testutil.Session(t, db, "U11", 10, 1, 2000)

	confirmed := testutil.PendingBooking(t, db, 2000, a)
	db.Model(confirmed).Updates(map[string]any{"booking_status": bookingModel.BookingConfirmed, "booking_balance_due": 500})
	cancelled := testutil.PendingBooking(t, db, 2000, a)
	db.Model(cancelled).Update("booking_status", bookingModel.BookingCancelled)
	testutil.PendingBooking(t, db, 2000, a)

	pay(t, db, confirmed, 1500, paymentModel.PaymentMethodGateway, paymentModel.PaymentStatusPaid)
	pay(t, db, cancelled, 2000, paymentModel.PaymentMethodCash, paymentModel.PaymentStatusPaid)
	pay(t, db, cancelled, 2000, paymentModel.PaymentMethodRefund, paymentModel.PaymentStatusRefunded)
	pay(t, db, confirmed, 999, paymentModel.PaymentMethodGateway, paymentModel.PaymentStatusPending)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc := NewStatsService(db, time.Minute)
	svc.Now = func() time.Time { return now }

	st, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.BookingsTotal != 3 || st.BookingsConfirmed != 1 || st.BookingsCancelled != 1 || st.BookingsProvisional != 1 {
		t.Fatalf("booking counts = %+v", st)
	}
	if st.RevenuePaid != 3500 || st.RevenueRefunded != 2000 || st.RevenueNet != 1500 || st.BalanceOutstanding != 500 {
		t.Fatalf("money = %+v", st)
	}
	if st.SessionsActive != 2 || st.Capacity != 20 || st.Enrolled != 5 || st.UtilisationRatio != 0.25 {
		t.Fatalf("capacity = %+v", st)
	}

	testutil.PendingBooking(t, db, 2000, a)
	st, _ = svc.Get(context.Background())
	if st.BookingsTotal != 3 {
		t.Fatalf("memo not used: total=%d", st.BookingsTotal)
	}

	now = now.Add(2 * time.Minute)
	st, _ = svc.Get(context.Background())
	if st.BookingsTotal != 4 {
		t.Fatalf("memo not expired: total=%d", st.BookingsTotal)
	}

	testutil.PendingBooking(t, db, 2000, a)
	svc.Invalidate()
	st, _ = svc.Get(context.Background())
	if st.BookingsTotal != 5 {
		t.Fatalf("invalidate ignored: total=%d", st.BookingsTotal)
	}
}
