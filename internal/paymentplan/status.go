package paymentplan

import "github.com/shopspring/decimal"

// Status summarizes how much of an order has been paid.
type Status string

const (
	Unpaid  Status = "unpaid"
	Partial Status = "partial"
	Paid    Status = "paid"
)

// Outstanding is total minus everything paid, never below zero.
func Outstanding(total decimal.Decimal, paid ...decimal.Decimal) decimal.Decimal {
	rest := total
	for _, p := range paid {
		rest = rest.Sub(p)
	}
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// StatusFor classifies paid against total.
func StatusFor(total, paid decimal.Decimal) Status {
	switch {
	case !paid.IsPositive():
		return Unpaid
	case paid.GreaterThanOrEqual(total):
		return Paid
	default:
		return Partial
	}
}
