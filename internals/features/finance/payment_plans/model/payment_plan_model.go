package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
)

// PaymentPlanModel: deposit sekarang, sisa dibayar balance_due_days sebelum sesi pertama.
type PaymentPlanModel struct {
	PaymentPlanID             uuid.UUID        `gorm:"column:payment_plan_id;type:uuid;primaryKey" json:"payment_plan_id"`
	PaymentPlanName           string           `gorm:"column:payment_plan_name;type:varchar(120);not null" json:"payment_plan_name"`
	PaymentPlanDepositPercent *decimal.Decimal `gorm:"column:payment_plan_deposit_percent;type:numeric(5,2)" json:"payment_plan_deposit_percent,omitempty"`
	PaymentPlanDepositAmount  *int             `gorm:"column:payment_plan_deposit_amount" json:"payment_plan_deposit_amount,omitempty"`
	PaymentPlanBalanceDueDays int              `gorm:"column:payment_plan_balance_due_days;not null;default:7" json:"payment_plan_balance_due_days"`
	PaymentPlanIsActive       bool             `gorm:"column:payment_plan_is_active;not null;default:true" json:"payment_plan_is_active"`
	PaymentPlanCreatedAt      time.Time        `gorm:"column:payment_plan_created_at;autoCreateTime" json:"payment_plan_created_at"`
	PaymentPlanUpdatedAt      time.Time        `gorm:"column:payment_plan_updated_at;autoUpdateTime" json:"payment_plan_updated_at"`
}

func (PaymentPlanModel) TableName() string { return "payment_plans" }

func (m *PaymentPlanModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentPlanID == uuid.Nil {
		m.PaymentPlanID = uuid.New()
	}
	return nil
}

func (m *PaymentPlanModel) Terms() discounts.PlanTerms {
	return discounts.PlanTerms{DepositPercent: m.PaymentPlanDepositPercent, DepositAmount: m.PaymentPlanDepositAmount}
}

// BalanceDueDate is balance_due_days before the first session.
func (m *PaymentPlanModel) BalanceDueDate(firstSession time.Time) time.Time {
	return firstSession.AddDate(0, 0, -m.PaymentPlanBalanceDueDays)
}

// BlockPackageModel: bundel N sesi dengan diskon persen.
type BlockPackageModel struct {
	BlockPackageID              uuid.UUID       `gorm:"column:block_package_id;type:uuid;primaryKey" json:"block_package_id"`
	BlockPackageName            string          `gorm:"column:block_package_name;type:varchar(120);not null" json:"block_package_name"`
	BlockPackageSessionCount    int             `gorm:"column:block_package_session_count;not null" json:"block_package_session_count"`
	BlockPackageDiscountPercent decimal.Decimal `gorm:"column:block_package_discount_percent;type:numeric(5,2);not null;default:0" json:"block_package_discount_percent"`
	BlockPackageValidityDays    int             `gorm:"column:block_package_validity_days;not null;default:180" json:"block_package_validity_days"`
	BlockPackageIsActive        bool            `gorm:"column:block_package_is_active;not null;default:true" json:"block_package_is_active"`
	BlockPackageCreatedAt       time.Time       `gorm:"column:block_package_created_at;autoCreateTime" json:"block_package_created_at"`
	BlockPackageUpdatedAt       time.Time       `gorm:"column:block_package_updated_at;autoUpdateTime" json:"block_package_updated_at"`
}

func (BlockPackageModel) TableName() string { return "block_packages" }

func (m *BlockPackageModel) BeforeCreate(tx *gorm.DB) error {
	if m.BlockPackageID == uuid.Nil {
		m.BlockPackageID = uuid.New()
	}
	return nil
}

func (m *BlockPackageModel) Quote(pricePerSession int) (discounts.BlockQuote, error) {
	return discounts.QuoteBlockPackage(m.BlockPackageSessionCount, m.BlockPackageDiscountPercent, pricePerSession)
}
