package service

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/model"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

type PaymentPlanService struct {
	DB *gorm.DB
}

func NewPaymentPlanService(db *gorm.DB) *PaymentPlanService {
	return &PaymentPlanService{DB: db}
}

var hundred = decimal.NewFromInt(100)

func (s *PaymentPlanService) CreatePlan(ctx context.Context, m *model.PaymentPlanModel) error {
	if m.PaymentPlanDepositPercent == nil && m.PaymentPlanDepositAmount == nil {
		return fiber.NewError(fiber.StatusBadRequest, "deposit percent or deposit amount is required")
	}
	if p := m.PaymentPlanDepositPercent; p != nil && (p.Sign() <= 0 || p.GreaterThanOrEqual(hundred)) {
		return fiber.NewError(fiber.StatusBadRequest, "deposit percent must be between 0 and 100")
	}
	return s.DB.WithContext(ctx).Create(m).Error
}

func (s *PaymentPlanService) ListPlans(ctx context.Context, activeOnly bool) ([]model.PaymentPlanModel, error) {
	q := s.DB.WithContext(ctx).Model(&model.PaymentPlanModel{})
	if activeOnly {
		q = q.Where("payment_plan_is_active = ?", true)
	}
	var rows []model.PaymentPlanModel
	err := q.Order("payment_plan_name ASC").Find(&rows).Error
	return rows, err
}

// ActivePlan loads a plan usable at checkout; db may be a transaction.
func (s *PaymentPlanService) ActivePlan(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.PaymentPlanModel, error) {
	var m model.PaymentPlanModel
	if err := db.WithContext(ctx).
		Where("payment_plan_id = ? AND payment_plan_is_active = ?", id, true).
		Take(&m).Error; err != nil {
		return nil, helper.MapDBError(err, "payment plan not found")
	}
	return &m, nil
}

func (s *PaymentPlanService) CreatePackage(ctx context.Context, m *model.BlockPackageModel) error {
	if m.BlockPackageDiscountPercent.Sign() < 0 || m.BlockPackageDiscountPercent.GreaterThanOrEqual(hundred) {
		return fiber.NewError(fiber.StatusBadRequest, "discount percent must be between 0 and 100")
	}
	return s.DB.WithContext(ctx).Create(m).Error
}

func (s *PaymentPlanService) ListPackages(ctx context.Context, activeOnly bool) ([]model.BlockPackageModel, error) {
	q := s.DB.WithContext(ctx).Model(&model.BlockPackageModel{})
	if activeOnly {
		q = q.Where("block_package_is_active = ?", true)
	}
	var rows []model.BlockPackageModel
	err := q.Order("block_package_session_count ASC").Find(&rows).Error
	return rows, err
}

func (s *PaymentPlanService) ActivePackage(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.BlockPackageModel, error) {
	var m model.BlockPackageModel
	if err := db.WithContext(ctx).
		Where("block_package_id = ? AND block_package_is_active = ?", id, true).
		Take(&m).Error; err != nil {
		return nil, helper.MapDBError(err, "block package not found")
	}
	return &m, nil
}
