package pricing

import "github.com/shopspring/decimal"

// Line is a priced quantity in any unit.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LineTotal is qty * unitPrice rounded to money.
func LineTotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundMoney(qty.Mul(unitPrice))
}

// Total sums the rounded line totals.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	return sum
}

// Quote is the result of pricing one line of a product.
type Quote struct {
	Unit            string          `json:"unit"`
	Quantity        decimal.Decimal `json:"quantity"`
	ListPrice       decimal.Decimal `json:"list_price"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
	MainQuantity    decimal.Decimal `json:"main_quantity"`
}

// PriceLine prices qty of unit. A nil price means the list price converted to
// unit; otherwise the given price is checked against lim.
func (c Conversion) PriceLine(listMain decimal.Decimal, lim Limits, unit string, qty decimal.Decimal, price *decimal.Decimal) (Quote, error) {
	if !qty.IsPositive() {
		return Quote{}, ErrInvalidQuantity
	}
	resolved, err := c.Resolve(unit)
	if err != nil {
		return Quote{}, err
	}
	list, err := c.PriceIn(listMain, resolved)
	if err != nil {
		return Quote{}, err
	}
	sell := list
	if price != nil {
		sell = RoundMoney(*price)
		if err := c.CheckPrice(listMain, sell, resolved, lim); err != nil {
			return Quote{}, err
		}
	}
	mainQty, err := c.ToMainQuantity(qty, resolved)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Unit:            resolved,
		Quantity:        qty,
		ListPrice:       list,
		UnitPrice:       sell,
		DiscountPercent: DiscountPercent(list, sell),
		Total:           LineTotal(qty, sell),
		MainQuantity:    mainQty,
	}, nil
}
