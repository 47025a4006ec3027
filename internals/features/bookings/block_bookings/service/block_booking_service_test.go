package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
	planModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/model"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func wantCode(t *testing.T, err error, code int) {
	t.Helper()
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code != code {
		t.Fatalf("want fiber error %d, got %v", code, err)
	}
}

func newSvc(t *testing.T) (*BlockBookingService, func(id uuid.UUID) blockModel.BlockBookingModel) {
	db := testutil.NewDB(t)
	svc := NewBlockBookingService(db, planService.NewPaymentPlanService(db))
	reload := func(id uuid.UUID) blockModel.BlockBookingModel {
		var b blockModel.BlockBookingModel
		if err := db.Take(&b, "block_booking_id = ?", id).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		return b
	}
	return svc, reload
}

func TestDeductSameDateTwice(t *testing.T) {
	svc, reload := newSvc(t)
	b := testutil.BlockBooking(t, svc.DB, 4, 1000)
	ctx := context.Background()

	res, err := svc.DeductBlockSession(ctx, b.BlockBookingID, DeductInput{SessionDate: "2026-03-14", DeductedBy: "coach-1"})
	if err != nil {
		t.Fatalf("first deduct: %v", err)
	}
	if res.RemainingSessions != 3 || res.NewStatus != blockModel.BlockActive || res.Usage.BlockBookingUsageSessionDate != "2026-03-14" {
		t.Fatalf("first deduct result = %+v", res)
	}

	_, err = svc.DeductBlockSession(ctx, b.BlockBookingID, DeductInput{SessionDate: "2026-03-14"})
	wantCode(t, err, fiber.StatusConflict)
	if got := reload(b.BlockBookingID).BlockBookingRemainingSessions; got != 3 {
		t.Fatalf("remaining after rejected deduct = %d, want 3", got)
	}

	// same date, different slot is a different session
	if _, err := svc.DeductBlockSession(ctx, b.BlockBookingID, DeductInput{SessionDate: "2026-03-14", TimetableSlotID: strPtr("slot-b")}); err != nil {
		t.Fatalf("other slot: %v", err)
	}
	if got := reload(b.BlockBookingID).BlockBookingRemainingSessions; got != 2 {
		t.Fatalf("remaining = %d, want 2", got)
	}
}

func TestDeductToCompletion(t *testing.T) {
	svc, reload := newSvc(t)
	b := testutil.BlockBooking(t, svc.DB, 1, 1000)
	ctx := context.Background()

	res, err := svc.DeductBlockSession(ctx, b.BlockBookingID, DeductInput{SessionDate: "2026-03-14"})
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if res.RemainingSessions != 0 || res.NewStatus != blockModel.BlockCompleted {
		t.Fatalf("result = %+v", res)
	}
	if got := reload(b.BlockBookingID).BlockBookingStatus; got != blockModel.BlockCompleted {
		t.Fatalf("status = %s", got)
	}

	_, err = svc.DeductBlockSession(ctx, b.BlockBookingID, DeductInput{SessionDate: "2026-03-21"})
	wantCode(t, err, fiber.StatusConflict)
}

func TestDeductValidation(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.DeductBlockSession(ctx, uuid.New(), DeductInput{SessionDate: "2026-03-14"})
	wantCode(t, err, fiber.StatusNotFound)

	b := testutil.BlockBooking(t, svc.DB, 2, 1000)
	_, err = svc.DeductBlockSession(ctx, b.BlockBookingID, DeductInput{SessionDate: "14/03/2026"})
	wantCode(t, err, fiber.StatusBadRequest)
}

func TestRefundPartialThenFull(t *testing.T) {
	svc, reload := newSvc(t)
	b := testutil.BlockBooking(t, svc.DB, 4, 1000)
	ctx := context.Background()

	res, err := svc.RefundBlockSessions(ctx, b.BlockBookingID, RefundInput{SessionsToRefund: intPtr(1), Reason: "injury"})
	if err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	if res.SessionsRefunded != 1 || res.AmountRefunded != 1000 || res.NewStatus != blockModel.BlockActive || res.RemainingSessions != 3 {
		t.Fatalf("partial refund = %+v", res)
	}

	// amount above remaining value is rejected
	_, err = svc.RefundBlockSessions(ctx, b.BlockBookingID, RefundInput{RefundAmount: intPtr(3001)})
	wantCode(t, err, fiber.StatusBadRequest)

	res, err = svc.RefundBlockSessions(ctx, b.BlockBookingID, RefundInput{})
	if err != nil {
		t.Fatalf("full refund: %v", err)
	}
	if res.SessionsRefunded != 3 || res.AmountRefunded != 3000 || res.NewStatus != blockModel.BlockRefunded {
		t.Fatalf("full refund = %+v", res)
	}

	got := reload(b.BlockBookingID)
	if got.BlockBookingRemainingSessions != 0 || got.BlockBookingRefundedAmount != 4000 || got.BlockBookingStatus != blockModel.BlockRefunded {
		t.Fatalf("after refunds = %+v", got)
	}

	_, err = svc.RefundBlockSessions(ctx, b.BlockBookingID, RefundInput{})
	wantCode(t, err, fiber.StatusConflict)
}

func TestRefundBounds(t *testing.T) {
	svc, _ := newSvc(t)
	b := testutil.BlockBooking(t, svc.DB, 2, 1000)
	ctx := context.Background()

	_, err := svc.RefundBlockSessions(ctx, b.BlockBookingID, RefundInput{SessionsToRefund: intPtr(3)})
	wantCode(t, err, fiber.StatusBadRequest)
	_, err = svc.RefundBlockSessions(ctx, b.BlockBookingID, RefundInput{SessionsToRefund: intPtr(0)})
	wantCode(t, err, fiber.StatusBadRequest)
}

func TestCreateFromPackage(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	sess := testutil.Session(t, svc.DB, "Saturday U9", 12, 0, 1200)
	pkg := &planModel.BlockPackageModel{
		BlockPackageName:            "Ten pack",
		BlockPackageSessionCount:    10,
		BlockPackageDiscountPercent: decimal.NewFromInt(15),
		BlockPackageValidityDays:    90,
		BlockPackageIsActive:        true,
	}
	if err := svc.Plans.CreatePackage(ctx, pkg); err != nil {
		t.Fatalf("create package: %v", err)
	}

	b, err := svc.Create(ctx, CreateInput{
		PackageID:  &pkg.BlockPackageID,
		SessionID:  &sess.SessionID,
		ParentName: "Alex Carter",
		Email:      "ALEX@example.com",
		ChildName:  "Sam Carter",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.BlockBookingTotalSessions != 10 || b.BlockBookingRemainingSessions != 10 ||
		b.BlockBookingPricePerSession != 1020 || b.BlockBookingTotalPaid != 10200 {
		t.Fatalf("priced bundle = %+v", b)
	}
	if b.BlockBookingEmail != "alex@example.com" || b.BlockBookingExpiresAt == nil || !b.BlockBookingExpiresAt.Equal(now.AddDate(0, 0, 90)) {
		t.Fatalf("bundle meta = %+v", b)
	}
}

func TestExpireDue(t *testing.T) {
	svc, reload := newSvc(t)
	ctx := context.Background()
	b := testutil.BlockBooking(t, svc.DB, 3, 1000)
	past := time.Now().UTC().Add(-time.Hour)
	if err := svc.DB.Model(&blockModel.BlockBookingModel{}).Where("block_booking_id = ?", b.BlockBookingID).
		Update("block_booking_expires_at", past).Error; err != nil {
		t.Fatal(err)
	}

	n, err := svc.ExpireDue(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ExpireDue = %d, %v", n, err)
	}
	if got := reload(b.BlockBookingID).BlockBookingStatus; got != blockModel.BlockExpired {
		t.Fatalf("status = %s", got)
	}
}

func TestDeriveBlockStatus(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	tests := []struct {
		cur       blockModel.BlockStatus
		remaining int
		tr        Transition
		exp       *time.Time
		want      blockModel.BlockStatus
	}{
		{blockModel.BlockActive, 3, TransitionDeduct, nil, blockModel.BlockActive},
		{blockModel.BlockActive, 0, TransitionDeduct, nil, blockModel.BlockCompleted},
		{blockModel.BlockActive, 0, TransitionRefund, nil, blockModel.BlockRefunded},
		{blockModel.BlockActive, 2, TransitionRefund, &past, blockModel.BlockActive},
		{blockModel.BlockExpired, 0, TransitionRefund, &past, blockModel.BlockRefunded},
		{blockModel.BlockActive, 2, TransitionTick, &past, blockModel.BlockExpired},
		{blockModel.BlockCancelled, 0, TransitionDeduct, nil, blockModel.BlockCancelled},
		{blockModel.BlockRefunded, 5, TransitionTick, nil, blockModel.BlockRefunded},
	}
	for _, tt := range tests {
		if got := DeriveBlockStatus(tt.cur, tt.remaining, tt.tr, tt.exp, now); got != tt.want {
			t.Errorf("DeriveBlockStatus(%s, %d, %s) = %s, want %s", tt.cur, tt.remaining, tt.tr, got, tt.want)
		}
	}
}
