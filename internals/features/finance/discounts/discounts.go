// Package discounts holds the pure price arithmetic used at checkout. Amounts are integer
// pence; rates are decimals so percentages never pass through float64.
package discounts

import (
	"errors"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == Percentage || t == Fixed
}

// Rule is a coupon reduced to what the arithmetic needs.
// Value is a percent for Percentage and pence for Fixed.
type Rule struct {
	Type  DiscountType
	Value decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// CalculateDiscount returns the discount in pence, clamped to [0, cartTotal].
// Percentages round half away from zero.
func CalculateDiscount(rule Rule, cartTotal int) int {
	if cartTotal <= 0 || rule.Value.Sign() <= 0 {
		return 0
	}

	var d decimal.Decimal
	switch rule.Type {
	case Percentage:
		d = decimal.NewFromInt(int64(cartTotal)).Mul(rule.Value).Div(hundred).Round(0)
	case Fixed:
		d = rule.Value.Round(0)
	default:
		return 0
	}

	discount := int(d.IntPart())
	if discount > cartTotal {
		discount = cartTotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Apply returns (discount, final total).
func Apply(rule Rule, cartTotal int) (int, int) {
	d := CalculateDiscount(rule, cartTotal)
	return d, cartTotal - d
}

/* =========================================================
   Block packages
========================================================= */

type BlockQuote struct {
	SessionCount        int `json:"session_count"`
	PricePerSession     int `json:"price_per_session"`
	Subtotal            int `json:"subtotal"`
	Discount            int `json:"discount"`
	Total               int `json:"total"`
	EffectivePerSession int `json:"effective_per_session"`
}

var ErrInvalidPackage = errors.New("block package must have at least one session and a price")

// QuoteBlockPackage prices a bundle of sessionCount sessions at pricePerSession with a
// percentage bundle discount.
func QuoteBlockPackage(sessionCount int, discountPercent decimal.Decimal, pricePerSession int) (BlockQuote, error) {
	if sessionCount <= 0 || pricePerSession < 0 {
		return BlockQuote{}, ErrInvalidPackage
	}
	if discountPercent.Sign() < 0 || discountPercent.GreaterThan(hundred) {
		return BlockQuote{}, errors.New("discount percent must be between 0 and 100")
	}

	subtotal := sessionCount * pricePerSession
	discount := CalculateDiscount(Rule{Type: Percentage, Value: discountPercent}, subtotal)
	total := subtotal - discount

	return BlockQuote{
		SessionCount:    sessionCount,
		PricePerSession: pricePerSession,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           total,
		// floor; refunds use this figure so they never exceed what was paid
		EffectivePerSession: total / sessionCount,
	}, nil
}

/* =========================================================
   Payment plans
========================================================= */

// PlanTerms: DepositAmount wins over DepositPercent when both are set.
type PlanTerms struct {
	DepositPercent *decimal.Decimal
	DepositAmount  *int
}

type PlanSplit struct {
	Deposit int `json:"deposit"`
	Balance int `json:"balance"`
}

// SplitPaymentPlan splits amount into what is charged now and the balance due later.
// Without usable terms the whole amount is due now.
func SplitPaymentPlan(terms PlanTerms, amount int) PlanSplit {
	if amount <= 0 {
		return PlanSplit{}
	}

	deposit := amount
	switch {
	case terms.DepositAmount != nil && *terms.DepositAmount > 0:
		deposit = *terms.DepositAmount
	case terms.DepositPercent != nil && terms.DepositPercent.Sign() > 0:
		deposit = CalculateDiscount(Rule{Type: Percentage, Value: *terms.DepositPercent}, amount)
	}
	if deposit > amount {
		deposit = amount
	}
	return PlanSplit{Deposit: deposit, Balance: amount - deposit}
}
