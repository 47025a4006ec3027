package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/model"
)

type CreatePaymentPlanRequest struct {
	PaymentPlanName           string           `json:"payment_plan_name" validate:"required,min=2,max=120"`
	PaymentPlanDepositPercent *decimal.Decimal `json:"payment_plan_deposit_percent"`
	PaymentPlanDepositAmount  *int             `json:"payment_plan_deposit_amount" validate:"omitempty,gt=0"`
	PaymentPlanBalanceDueDays int              `json:"payment_plan_balance_due_days" validate:"gte=0,lte=120"`
}

func (r CreatePaymentPlanRequest) ToModel() *model.PaymentPlanModel {
	return &model.PaymentPlanModel{
		PaymentPlanName:           strings.TrimSpace(r.PaymentPlanName),
		PaymentPlanDepositPercent: r.PaymentPlanDepositPercent,
		PaymentPlanDepositAmount:  r.PaymentPlanDepositAmount,
		PaymentPlanBalanceDueDays: r.PaymentPlanBalanceDueDays,
		PaymentPlanIsActive:       true,
	}
}

type CreateBlockPackageRequest struct {
	BlockPackageName            string          `json:"block_package_name" validate:"required,min=2,max=120"`
	BlockPackageSessionCount    int             `json:"block_package_session_count" validate:"required,gt=0,lte=100"`
	BlockPackageDiscountPercent decimal.Decimal `json:"block_package_discount_percent"`
	BlockPackageValidityDays    int             `json:"block_package_validity_days" validate:"gte=0"`
}

func (r CreateBlockPackageRequest) ToModel() *model.BlockPackageModel {
	days := r.BlockPackageValidityDays
	if days == 0 {
		days = 180
	}
	return &model.BlockPackageModel{
		BlockPackageName:            strings.TrimSpace(r.BlockPackageName),
		BlockPackageSessionCount:    r.BlockPackageSessionCount,
		BlockPackageDiscountPercent: r.BlockPackageDiscountPercent,
		BlockPackageValidityDays:    days,
		BlockPackageIsActive:        true,
	}
}
