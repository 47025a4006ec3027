package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/model"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/pgarray"
)

// POST /api/checkout/validate-coupon (camelCase, dipakai booking UI)
type ValidateCouponRequest struct {
	Code       string   `json:"code" validate:"required,max=40"`
	CartTotal  int      `json:"cartTotal" validate:"gte=0"`
	SessionIDs []string `json:"sessionIds"`
}

type ValidateCouponResponse struct {
	Valid      bool   `json:"valid"`
	Discount   *int   `json:"discount,omitempty"`
	FinalTotal *int   `json:"finalTotal,omitempty"`
	Error      string `json:"error,omitempty"`
}

type CreateCouponRequest struct {
	CouponCode               string          `json:"coupon_code" validate:"required,min=3,max=40"`
	CouponDiscountType       string          `json:"coupon_discount_type" validate:"required,oneof=percentage fixed"`
	CouponDiscountValue      decimal.Decimal `json:"coupon_discount_value"`
	CouponMaxUses            *int            `json:"coupon_max_uses" validate:"omitempty,gt=0"`
	CouponMinPurchase        *int            `json:"coupon_min_purchase" validate:"omitempty,gte=0"`
	CouponValidFrom          *time.Time      `json:"coupon_valid_from"`
	CouponValidUntil         *time.Time      `json:"coupon_valid_until"`
	CouponApplicableSessions []string        `json:"coupon_applicable_sessions"`
	CouponDescription        *string         `json:"coupon_description"`
}

func (r CreateCouponRequest) ToModel() *model.CouponModel {
	return &model.CouponModel{
		CouponCode:               model.NormalizeCode(r.CouponCode),
		CouponDiscountType:       discounts.DiscountType(strings.ToLower(r.CouponDiscountType)),
		CouponDiscountValue:      r.CouponDiscountValue,
		CouponMaxUses:            r.CouponMaxUses,
		CouponMinPurchase:        r.CouponMinPurchase,
		CouponValidFrom:          utcPtr(r.CouponValidFrom),
		CouponValidUntil:         utcPtr(r.CouponValidUntil),
		CouponApplicableSessions: r.CouponApplicableSessions,
		CouponDescription:        r.CouponDescription,
		CouponIsActive:           true,
	}
}

type PatchCouponRequest struct {
	CouponMaxUses            *int       `json:"coupon_max_uses" validate:"omitempty,gt=0"`
	CouponMinPurchase        *int       `json:"coupon_min_purchase" validate:"omitempty,gte=0"`
	CouponValidFrom          *time.Time `json:"coupon_valid_from"`
	CouponValidUntil         *time.Time `json:"coupon_valid_until"`
	CouponApplicableSessions *[]string  `json:"coupon_applicable_sessions"`
	CouponIsActive           *bool      `json:"coupon_is_active"`
	CouponDescription        *string    `json:"coupon_description"`
}

func (p PatchCouponRequest) ToUpdates() map[string]any {
	upd := map[string]any{}
	if p.CouponMaxUses != nil {
		upd["coupon_max_uses"] = *p.CouponMaxUses
	}
	if p.CouponMinPurchase != nil {
		upd["coupon_min_purchase"] = *p.CouponMinPurchase
	}
	if p.CouponValidFrom != nil {
		upd["coupon_valid_from"] = p.CouponValidFrom.UTC()
	}
	if p.CouponValidUntil != nil {
		upd["coupon_valid_until"] = p.CouponValidUntil.UTC()
	}
	if p.CouponApplicableSessions != nil {
		upd["coupon_applicable_sessions"] = pgarray.Strings(*p.CouponApplicableSessions)
	}
	if p.CouponIsActive != nil {
		upd["coupon_is_active"] = *p.CouponIsActive
	}
	if p.CouponDescription != nil {
		upd["coupon_description"] = *p.CouponDescription
	}
	return upd
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
