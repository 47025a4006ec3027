package helper

import "github.com/shopspring/decimal"

// FormatGBP renders pence as "£12.50".
func FormatGBP(pence int) string {
	return "£" + decimal.New(int64(pence), -2).StringFixed(2)
}
