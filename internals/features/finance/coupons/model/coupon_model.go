// file: internals/features/finance/coupons/model/coupon_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/pgarray"
)

/*
  coupons
  - coupon_code selalu UPPERCASE, unik
  - coupon_discount_value: persen (percentage) atau pence (fixed)
  - coupon_used_count hanya naik lewat RecordCouponUse (server-side +1)
*/

type CouponModel struct {
	CouponID   uuid.UUID `gorm:"column:coupon_id;type:uuid;primaryKey" json:"coupon_id"`
	CouponCode string    `gorm:"column:coupon_code;type:varchar(40);not null;uniqueIndex:uq_coupons_code" json:"coupon_code"`

	CouponDiscountType  discounts.DiscountType `gorm:"column:coupon_discount_type;type:varchar(16);not null" json:"coupon_discount_type"`
	CouponDiscountValue decimal.Decimal        `gorm:"column:coupon_discount_value;type:numeric(12,2);not null" json:"coupon_discount_value"`

	CouponUsedCount   int  `gorm:"column:coupon_used_count;not null;default:0" json:"coupon_used_count"`
	CouponMaxUses     *int `gorm:"column:coupon_max_uses" json:"coupon_max_uses,omitempty"`
	CouponMinPurchase *int `gorm:"column:coupon_min_purchase" json:"coupon_min_purchase,omitempty"` // pence

	CouponValidFrom  *time.Time `gorm:"column:coupon_valid_from" json:"coupon_valid_from,omitempty"`
	CouponValidUntil *time.Time `gorm:"column:coupon_valid_until" json:"coupon_valid_until,omitempty"`

	// kosong = berlaku untuk semua sesi
	CouponApplicableSessions pgarray.Strings `gorm:"column:coupon_applicable_sessions" json:"coupon_applicable_sessions"`

	CouponIsActive    bool    `gorm:"column:coupon_is_active;not null;default:true" json:"coupon_is_active"`
	CouponDescription *string `gorm:"column:coupon_description" json:"coupon_description,omitempty"`

	CouponCreatedAt time.Time `gorm:"column:coupon_created_at;autoCreateTime" json:"coupon_created_at"`
	CouponUpdatedAt time.Time `gorm:"column:coupon_updated_at;autoUpdateTime" json:"coupon_updated_at"`
}

func (CouponModel) TableName() string { return "coupons" }

func (m *CouponModel) BeforeCreate(tx *gorm.DB) error {
	if m.CouponID == uuid.Nil {
		m.CouponID = uuid.New()
	}
	m.CouponCode = NormalizeCode(m.CouponCode)
	return nil
}

func (m *CouponModel) Rule() discounts.Rule {
	return discounts.Rule{Type: m.CouponDiscountType, Value: m.CouponDiscountValue}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

/*
  coupon_uses (audit)
  - satu baris per booking (uq_coupon_uses_booking) supaya webhook duplikat tidak menghitung dua kali
*/

type CouponUseModel struct {
	CouponUseID        uuid.UUID `gorm:"column:coupon_use_id;type:uuid;primaryKey" json:"coupon_use_id"`
	CouponUseCouponID  uuid.UUID `gorm:"column:coupon_use_coupon_id;type:uuid;not null;index" json:"coupon_use_coupon_id"`
	CouponUseBookingID uuid.UUID `gorm:"column:coupon_use_booking_id;type:uuid;not null;uniqueIndex:uq_coupon_uses_booking" json:"coupon_use_booking_id"`
	CouponUseCode      string    `gorm:"column:coupon_use_code;type:varchar(40);not null" json:"coupon_use_code"`
	CouponUseDiscount  int       `gorm:"column:coupon_use_discount;not null" json:"coupon_use_discount"`
	CouponUseEmail     string    `gorm:"column:coupon_use_email;type:varchar(200)" json:"coupon_use_email"`
	CouponUseUsedAt    time.Time `gorm:"column:coupon_use_used_at;not null" json:"coupon_use_used_at"`
}

func (CouponUseModel) TableName() string { return "coupon_uses" }

func (m *CouponUseModel) BeforeCreate(tx *gorm.DB) error {
	if m.CouponUseID == uuid.Nil {
		m.CouponUseID = uuid.New()
	}
	if m.CouponUseUsedAt.IsZero() {
		m.CouponUseUsedAt = time.Now().UTC()
	}
	return nil
}
