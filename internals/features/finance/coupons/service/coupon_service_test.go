package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	couponModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/model"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

func intPtr(v int) *int { return &v }

func TestValidateCouponSave10(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCouponService(db)
	testutil.Coupon(t, db, "save10", discounts.Percentage, 10)

	got := svc.ValidateCoupon(context.Background(), " Save10 ", 5000, nil)
	if !got.Valid || got.Discount != 500 || got.FinalTotal != 4500 {
		t.Fatalf("ValidateCoupon = %+v", got)
	}
}

func TestValidateCouponOrder(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	base := func() couponModel.CouponModel {
		return couponModel.CouponModel{
			CouponCode:         "X",
			CouponDiscountType: discounts.Fixed,
			CouponIsActive:     true,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *couponModel.CouponModel)
		total  int
		ids    []string
		want   string
	}{
		{"inactive", func(c *couponModel.CouponModel) { c.CouponIsActive = false }, 1000, nil, MsgInvalidCode},
		{"not yet valid", func(c *couponModel.CouponModel) { c.CouponValidFrom = &future }, 1000, nil, MsgNotYetValid},
		{"expired beats usage", func(c *couponModel.CouponModel) {
			c.CouponValidUntil = &past
			c.CouponMaxUses = intPtr(1)
			c.CouponUsedCount = 1
		}, 1000, nil, MsgExpired},
		{"usage limit", func(c *couponModel.CouponModel) {
			c.CouponMaxUses = intPtr(5)
			c.CouponUsedCount = 5
		}, 1000, nil, MsgUsageLimit},
		{"min purchase", func(c *couponModel.CouponModel) { c.CouponMinPurchase = intPtr(2500) }, 1000, nil, "Minimum purchase of £25.00 required"},
		{"session restricted", func(c *couponModel.CouponModel) { c.CouponApplicableSessions = []string{"s1"} }, 1000, []string{"s2"}, MsgNotApplicable},
		{"session match", func(c *couponModel.CouponModel) { c.CouponApplicableSessions = []string{"s1"} }, 1000, []string{"s2", "s1"}, ""},
		{"window ok", func(c *couponModel.CouponModel) {
			c.CouponValidFrom = &past
			c.CouponValidUntil = &future
		}, 1000, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if got := CheckEligibility(&c, now, tt.total, tt.ids); got != tt.want {
				t.Fatalf("CheckEligibility = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateCouponUnknownCode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCouponService(db)

	got := svc.ValidateCoupon(context.Background(), "NOPE", 5000, nil)
	if got.Valid || got.Error != MsgInvalidCode {
		t.Fatalf("ValidateCoupon = %+v", got)
	}
	if got := svc.ValidateCoupon(context.Background(), "   ", 5000, nil); got.Error != MsgInvalidCode {
		t.Fatalf("blank code = %+v", got)
	}
}

func TestRecordCouponUseOncePerBooking(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCouponService(db)
	c := testutil.Coupon(t, db, "FIVER", discounts.Fixed, 500)
	bookingID := uuid.New()

	in := CouponUseInput{CouponID: c.CouponID, Code: "fiver", BookingID: bookingID, Discount: 500, Email: "A@B.com"}
	recorded, err := svc.RecordCouponUse(db, in)
	if err != nil || !recorded {
		t.Fatalf("first RecordCouponUse = %v, %v", recorded, err)
	}
	recorded, err = svc.RecordCouponUse(db, in)
	if err != nil || recorded {
		t.Fatalf("second RecordCouponUse = %v, %v", recorded, err)
	}

	var reloaded couponModel.CouponModel
	if err := db.Take(&reloaded, "coupon_id = ?", c.CouponID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CouponUsedCount != 1 {
		t.Fatalf("used_count = %d, want 1", reloaded.CouponUsedCount)
	}

	var uses int64
	db.Model(&couponModel.CouponUseModel{}).Where("coupon_use_booking_id = ?", bookingID).Count(&uses)
	if uses != 1 {
		t.Fatalf("coupon_uses rows = %d, want 1", uses)
	}
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCouponService(db)
	testutil.Coupon(t, db, "DUP", discounts.Fixed, 100)

	c := &couponModel.CouponModel{
		CouponCode:          "dup",
		CouponDiscountType:  discounts.Fixed,
		CouponDiscountValue: decimal.NewFromInt(100),
		CouponIsActive:      true,
	}
	err := svc.Create(context.Background(), c)
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code != fiber.StatusConflict {
		t.Fatalf("Create duplicate = %v, want 409", err)
	}
}

func TestCreateRejectsBadPercentage(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCouponService(db)

	c := &couponModel.CouponModel{
		CouponCode:          "HUGE",
		CouponDiscountType:  discounts.Percentage,
		CouponDiscountValue: decimal.RequireFromString("100.5"),
	}
	if err := svc.Create(context.Background(), c); err == nil {
		t.Fatal("expected validation error")
	}
}
