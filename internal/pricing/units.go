// Package pricing holds the unit-of-measure and discount math used when an
// order line is priced, both by the order service and by the sales rep device.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places kept for prices and totals.
const MoneyPlaces = 2

var (
	ErrInvalidRatio     = errors.New("pricing: sub unit ratio must be positive")
	ErrUnknownUnit      = errors.New("pricing: unknown unit")
	ErrNegativePrice    = errors.New("pricing: price cannot be negative")
	ErrBelowMinimum     = errors.New("pricing: price below minimum")
	ErrDiscountExceeded = errors.New("pricing: discount above allowed maximum")
	ErrInvalidQuantity  = errors.New("pricing: quantity must be positive")
)

var hundred = decimal.NewFromInt(100)

// Conversion describes how a product is sold: always in its main Unit
// (e.g. "CX") and optionally in a SubUnit (e.g. "UN"), where one main unit
// holds Ratio sub units.
type Conversion struct {
	Unit    string          `json:"unit"`
	SubUnit string          `json:"sub_unit,omitempty"`
	Ratio   decimal.Decimal `json:"sub_unit_ratio"`
}

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Validate checks that the conversion is usable.
func (c Conversion) Validate() error {
	if strings.TrimSpace(c.Unit) == "" {
		return fmt.Errorf("%w: main unit is empty", ErrUnknownUnit)
	}
	if strings.TrimSpace(c.SubUnit) == "" {
		return nil
	}
	if !c.Ratio.IsPositive() {
		return ErrInvalidRatio
	}
	if strings.EqualFold(c.Unit, c.SubUnit) {
		return fmt.Errorf("%w: sub unit equals main unit %q", ErrUnknownUnit, c.Unit)
	}
	return nil
}

// HasSubUnit reports whether the product can be sold in a sub unit.
func (c Conversion) HasSubUnit() bool {
	return strings.TrimSpace(c.SubUnit) != "" && c.Ratio.IsPositive()
}

// Resolve normalizes unit to the product's spelling. An empty unit means the
// main unit.
func (c Conversion) Resolve(unit string) (string, error) {
	u := strings.TrimSpace(unit)
	switch {
	case u == "" || strings.EqualFold(u, c.Unit):
		return c.Unit, nil
	case c.HasSubUnit() && strings.EqualFold(u, c.SubUnit):
		return c.SubUnit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
}

func (c Conversion) isSub(unit string) (bool, error) {
	u, err := c.Resolve(unit)
	if err != nil {
		return false, err
	}
	return c.HasSubUnit() && u == c.SubUnit, nil
}

// PriceIn converts a main unit price into the price of one unit.
func (c Conversion) PriceIn(mainPrice decimal.Decimal, unit string) (decimal.Decimal, error) {
	sub, err := c.isSub(unit)
	if err != nil {
		return decimal.Zero, err
	}
	if !sub {
		return RoundMoney(mainPrice), nil
	}
	return RoundMoney(mainPrice.Div(c.Ratio)), nil
}

// ToMainPrice converts the price of one unit back to a main unit price.
func (c Conversion) ToMainPrice(price decimal.Decimal, unit string) (decimal.Decimal, error) {
	sub, err := c.isSub(unit)
	if err != nil {
		return decimal.Zero, err
	}
	if !sub {
		return RoundMoney(price), nil
	}
	return RoundMoney(price.Mul(c.Ratio)), nil
}

// ToMainQuantity expresses qty of unit in main units. The result is not
// rounded: 6 UN of a 12 UN box is 0.5 CX.
func (c Conversion) ToMainQuantity(qty decimal.Decimal, unit string) (decimal.Decimal, error) {
	sub, err := c.isSub(unit)
	if err != nil {
		return decimal.Zero, err
	}
	if !sub {
		return qty, nil
	}
	return qty.Div(c.Ratio), nil
}

// ToUnitQuantity expresses a main unit quantity in unit.
func (c Conversion) ToUnitQuantity(mainQty decimal.Decimal, unit string) (decimal.Decimal, error) {
	sub, err := c.isSub(unit)
	if err != nil {
		return decimal.Zero, err
	}
	if !sub {
		return mainQty, nil
	}
	return mainQty.Mul(c.Ratio), nil
}
