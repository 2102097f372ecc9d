package checkout

import "github.com/shopspring/decimal"

// FinalPriceCents recomputes a line's unit price after discount. Client
// supplied final prices are never trusted; only the add-time unit price and
// discount percentage feed the calculation.
func FinalPriceCents(unitPriceCents int64, discountPercent int) int64 {
	if discountPercent <= 0 {
		return unitPriceCents
	}
	if discountPercent >= 100 {
		return 0
	}
	price := decimal.NewFromInt(unitPriceCents)
	factor := decimal.NewFromInt(int64(100 - discountPercent)).
		Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(0).IntPart()
}
