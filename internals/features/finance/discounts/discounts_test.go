package discounts

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateDiscount(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		total int
		want  int
	}{
		{"SAVE10 on 5000", Rule{Percentage, decimal.NewFromInt(10)}, 5000, 500},
		{"percentage rounds half up", Rule{Percentage, decimal.NewFromInt(15)}, 1010, 152},
		{"percentage rounds down", Rule{Percentage, decimal.NewFromInt(15)}, 1003, 150},
		{"fractional percent", Rule{Percentage, decimal.RequireFromString("12.5")}, 999, 125},
		{"fixed below total", Rule{Fixed, decimal.NewFromInt(750)}, 5000, 750},
		{"fixed clamped to total", Rule{Fixed, decimal.NewFromInt(7000)}, 5000, 5000},
		{"percentage over 100 clamped", Rule{Percentage, decimal.NewFromInt(150)}, 2000, 2000},
		{"zero total", Rule{Fixed, decimal.NewFromInt(500)}, 0, 0},
		{"negative value", Rule{Fixed, decimal.NewFromInt(-5)}, 1000, 0},
		{"unknown type", Rule{"bogus", decimal.NewFromInt(5)}, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateDiscount(tt.rule, tt.total); got != tt.want {
				t.Fatalf("CalculateDiscount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyNeverNegative(t *testing.T) {
	for total := 0; total <= 3000; total += 137 {
		for _, v := range []int64{0, 1, 50, 99, 100, 250, 5000} {
			for _, typ := range []DiscountType{Percentage, Fixed} {
				d, final := Apply(Rule{typ, decimal.NewFromInt(v)}, total)
				if d < 0 || d > total || final < 0 || d+final != total {
					t.Fatalf("type=%s v=%d total=%d: discount=%d final=%d", typ, v, total, d, final)
				}
				if typ == Fixed {
					want := int(v)
					if want > total {
						want = total
					}
					if d != want {
						t.Fatalf("fixed v=%d total=%d: got %d want %d", v, total, d, want)
					}
				}
			}
		}
	}
}

func TestQuoteBlockPackage(t *testing.T) {
	q, err := QuoteBlockPackage(10, decimal.NewFromInt(15), 1200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Subtotal != 12000 || q.Discount != 1800 || q.Total != 10200 || q.EffectivePerSession != 1020 {
		t.Fatalf("unexpected quote: %+v", q)
	}

	if _, err := QuoteBlockPackage(0, decimal.Zero, 1000); err == nil {
		t.Fatal("expected error for zero sessions")
	}
	if _, err := QuoteBlockPackage(4, decimal.NewFromInt(101), 1000); err == nil {
		t.Fatal("expected error for discount over 100")
	}
}

func TestSplitPaymentPlan(t *testing.T) {
	pct := decimal.NewFromInt(25)
	amt := 3000
	big := 99999

	if got := SplitPaymentPlan(PlanTerms{DepositPercent: &pct}, 10000); got != (PlanSplit{2500, 7500}) {
		t.Fatalf("percent split = %+v", got)
	}
	if got := SplitPaymentPlan(PlanTerms{DepositPercent: &pct, DepositAmount: &amt}, 10000); got != (PlanSplit{3000, 7000}) {
		t.Fatalf("amount split = %+v", got)
	}
	if got := SplitPaymentPlan(PlanTerms{DepositAmount: &big}, 10000); got != (PlanSplit{10000, 0}) {
		t.Fatalf("clamped split = %+v", got)
	}
	if got := SplitPaymentPlan(PlanTerms{}, 10000); got != (PlanSplit{10000, 0}) {
		t.Fatalf("no terms split = %+v", got)
	}
}
