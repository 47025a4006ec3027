package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	couponModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/model"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

const (
	MsgInvalidCode     = "Invalid or inactive coupon code"
	MsgNotYetValid     = "This coupon is not yet valid"
	MsgExpired         = "This coupon has expired"
	MsgUsageLimit      = "This coupon has reached its usage limit"
	MsgNotApplicable   = "This coupon is not valid for the selected sessions"
	MsgValidationError = "Unable to validate coupon right now"
)

type CouponValidation struct {
	Valid      bool                     `json:"valid"`
	Discount   int                      `json:"discount,omitempty"`
	FinalTotal int                      `json:"finalTotal,omitempty"`
	Coupon     *couponModel.CouponModel `json:"-"`
	Error      string                   `json:"error,omitempty"`
}

type CouponService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{DB: db, Now: time.Now}
}

func (s *CouponService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// ValidateCoupon runs the checks in order and stops at the first failure. It never writes.
func (s *CouponService) ValidateCoupon(ctx context.Context, code string, cartTotal int, sessionIDs []string) CouponValidation {
	code = couponModel.NormalizeCode(code)
	if code == "" {
		return CouponValidation{Error: MsgInvalidCode}
	}

	var c couponModel.CouponModel
	err := s.DB.WithContext(ctx).
		Where("coupon_code = ? AND coupon_is_active = ?", code, true).
		Take(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CouponValidation{Error: MsgInvalidCode}
		}
		log.Printf("[CouponService] ERROR ValidateCoupon code=%s err=%v", code, err)
		return CouponValidation{Error: MsgValidationError}
	}

	if msg := CheckEligibility(&c, s.now(), cartTotal, sessionIDs); msg != "" {
		return CouponValidation{Error: msg}
	}

	discount, final := discounts.Apply(c.Rule(), cartTotal)
	return CouponValidation{Valid: true, Discount: discount, FinalTotal: final, Coupon: &c}
}

// CheckEligibility returns "" when the coupon applies, otherwise the customer-facing reason.
func CheckEligibility(c *couponModel.CouponModel, now time.Time, cartTotal int, sessionIDs []string) string {
	if !c.CouponIsActive {
		return MsgInvalidCode
	}
	if c.CouponValidFrom != nil && now.Before(*c.CouponValidFrom) {
		return MsgNotYetValid
	}
	if c.CouponValidUntil != nil && now.After(*c.CouponValidUntil) {
		return MsgExpired
	}
	if c.CouponMaxUses != nil && c.CouponUsedCount >= *c.CouponMaxUses {
		return MsgUsageLimit
	}
	if c.CouponMinPurchase != nil && cartTotal < *c.CouponMinPurchase {
		return "Minimum purchase of " + helper.FormatGBP(*c.CouponMinPurchase) + " required"
	}
	if len(c.CouponApplicableSessions) > 0 && !c.CouponApplicableSessions.Intersects(sessionIDs) {
		return MsgNotApplicable
	}
	return ""
}

type CouponUseInput struct {
	CouponID  uuid.UUID
	Code      string
	BookingID uuid.UUID
	Discount  int
	Email     string
}

// RecordCouponUse appends the audit row and bumps used_count, both inside tx. A second call
// for the same booking is a no-op and returns false.
func (s *CouponService) RecordCouponUse(tx *gorm.DB, in CouponUseInput) (bool, error) {
	use := couponModel.CouponUseModel{
		CouponUseCouponID:  in.CouponID,
		CouponUseBookingID: in.BookingID,
		CouponUseCode:      couponModel.NormalizeCode(in.Code),
		CouponUseDiscount:  in.Discount,
		CouponUseEmail:     strings.ToLower(strings.TrimSpace(in.Email)),
		CouponUseUsedAt:    s.now(),
	}
	ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&use)
	if ins.Error != nil {
		log.Printf("[CouponService] ERROR RecordCouponUse booking=%s err=%v", in.BookingID, ins.Error)
		return false, ins.Error
	}
	if ins.RowsAffected == 0 {
		log.Printf("[CouponService] SKIP RecordCouponUse already recorded booking=%s", in.BookingID)
		return false, nil
	}

	upd := tx.Model(&couponModel.CouponModel{}).
		Where("coupon_id = ?", in.CouponID).
		Updates(map[string]any{
			"coupon_used_count": gorm.Expr("coupon_used_count + 1"),
			"coupon_updated_at": s.now(),
		})
	if upd.Error != nil {
		return false, upd.Error
	}
	if upd.RowsAffected == 0 {
		return false, fiber.NewError(fiber.StatusNotFound, "coupon not found")
	}
	log.Printf("[CouponService] SUCCESS RecordCouponUse code=%s booking=%s discount=%d", use.CouponUseCode, in.BookingID, in.Discount)
	return true, nil
}

/* =========================================================
   Admin CRUD
========================================================= */

func (s *CouponService) Create(ctx context.Context, c *couponModel.CouponModel) error {
	if !c.CouponDiscountType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "discount type must be percentage or fixed")
	}
	if c.CouponDiscountValue.Sign() <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "discount value must be positive")
	}
	if c.CouponDiscountType == discounts.Percentage && c.CouponDiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return fiber.NewError(fiber.StatusBadRequest, "percentage discount cannot exceed 100")
	}
	if c.CouponValidFrom != nil && c.CouponValidUntil != nil && c.CouponValidUntil.Before(*c.CouponValidFrom) {
		return fiber.NewError(fiber.StatusBadRequest, "valid_until must be after valid_from")
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "coupon code already exists")
		}
		return err
	}
	return nil
}

func (s *CouponService) List(ctx context.Context, activeOnly bool, p helper.Paging) ([]couponModel.CouponModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&couponModel.CouponModel{})
	if activeOnly {
		q = q.Where("coupon_is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []couponModel.CouponModel
	err := q.Order("coupon_created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}

func (s *CouponService) Patch(ctx context.Context, id uuid.UUID, upd map[string]any) (*couponModel.CouponModel, error) {
	if len(upd) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}
	upd["coupon_updated_at"] = s.now()

	var out couponModel.CouponModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&couponModel.CouponModel{}).Where("coupon_id = ?", id).Updates(upd)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Take(&out, "coupon_id = ?", id).Error
	})
	if err != nil {
		return nil, helper.MapDBError(err, "coupon not found")
	}
	return &out, nil
}

func (s *CouponService) ListUses(ctx context.Context, couponID uuid.UUID, p helper.Paging) ([]couponModel.CouponUseModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&couponModel.CouponUseModel{}).Where("coupon_use_coupon_id = ?", couponID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []couponModel.CouponUseModel
	err := q.Order("coupon_use_used_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}
