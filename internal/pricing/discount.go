package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Limits are the per product selling constraints, expressed in the main unit.
// A zero MaxDiscountPercent means no cap; a zero MinPrice means no floor.
type Limits struct {
	MinPrice           decimal.Decimal `json:"min_price"`
	MaxDiscountPercent decimal.Decimal `json:"max_discount_percent"`
}

// DiscountPercent returns how much sell is below list, in percent rounded
// for display. A sell price above list gives a negative value.
func DiscountPercent(list, sell decimal.Decimal) decimal.Decimal {
	if !list.IsPositive() {
		return decimal.Zero
	}
	return list.Sub(sell).Div(list).Mul(hundred).Round(MoneyPlaces)
}

// ApplyDiscount returns list reduced by percent.
func ApplyDiscount(list, percent decimal.Decimal) decimal.Decimal {
	factor := hundred.Sub(percent).Div(hundred)
	return RoundMoney(list.Mul(factor))
}

// CheckPrice validates a sell price given in unit against the main unit list
// price and the product limits.
func (c Conversion) CheckPrice(listMain, sell decimal.Decimal, unit string, lim Limits) error {
	if sell.IsNegative() {
		return ErrNegativePrice
	}
	list, err := c.PriceIn(listMain, unit)
	if err != nil {
		return err
	}
	if lim.MinPrice.IsPositive() {
		floor, err := c.PriceIn(lim.MinPrice, unit)
		if err != nil {
			return err
		}
		if sell.LessThan(floor) {
			return fmt.Errorf("%w: %s < %s", ErrBelowMinimum, sell.StringFixed(MoneyPlaces), floor.StringFixed(MoneyPlaces))
		}
	}
	// (list-sell)/list*100 > max, compared without dividing or rounding.
	if lim.MaxDiscountPercent.IsPositive() && list.IsPositive() &&
		list.Sub(sell).Mul(hundred).GreaterThan(lim.MaxDiscountPercent.Mul(list)) {
		return fmt.Errorf("%w: %s%% > %s%%", ErrDiscountExceeded,
			list.Sub(sell).Div(list).Mul(hundred).StringFixed(3), lim.MaxDiscountPercent.StringFixed(MoneyPlaces))
	}
	return nil
}
