// README: Commission policy; the fee formula is configuration, not code.
package invoice

import "github.com/shopspring/decimal"

const (
	ModePercent = "percent"
	ModeFlat    = "flat"
)

// Policy derives the platform fee from the accepted price. PercentBps is in
// basis points (250 = 2.5%). The zero value charges nothing, which is the
// deliberate default until the business supplies a policy.
type Policy struct {
	Mode       string
	PercentBps int64
	Flat       decimal.Decimal
}

// Fee returns the platform fee for an amount, clamped to [0, amount] so the
// partner payout can never go negative.
func (p Policy) Fee(amount decimal.Decimal) decimal.Decimal {
	var fee decimal.Decimal
	switch p.Mode {
	case ModeFlat:
		fee = p.Flat
	default:
		fee = amount.
			Mul(decimal.NewFromInt(p.PercentBps)).
			Div(decimal.NewFromInt(10000)).
			Round(2)
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	if fee.GreaterThan(amount) {
		return amount
	}
	return fee
}
