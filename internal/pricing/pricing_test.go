package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func box() Conversion {
	return Conversion{Unit: "CX", SubUnit: "UN", Ratio: d("12")}
}

func TestConversion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conv    Conversion
		wantErr error
	}{
		{"main only", Conversion{Unit: "KG"}, nil},
		{"with sub unit", box(), nil},
		{"missing unit", Conversion{}, ErrUnknownUnit},
		{"zero ratio", Conversion{Unit: "CX", SubUnit: "UN"}, ErrInvalidRatio},
		{"negative ratio", Conversion{Unit: "CX", SubUnit: "UN", Ratio: d("-2")}, ErrInvalidRatio},
		{"same units", Conversion{Unit: "CX", SubUnit: "cx", Ratio: d("2")}, ErrUnknownUnit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conv.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConversion_Resolve(t *testing.T) {
	c := box()

	u, err := c.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "CX", u)

	u, err = c.Resolve(" un ")
	require.NoError(t, err)
	assert.Equal(t, "UN", u)

	_, err = c.Resolve("KG")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Conversion{Unit: "CX"}.Resolve("UN")
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestConversion_Prices(t *testing.T) {
	c := box()

	sub, err := c.PriceIn(d("30"), "UN")
	require.NoError(t, err)
	assert.Equal(t, "2.50", sub.StringFixed(2))

	main, err := c.PriceIn(d("30"), "CX")
	require.NoError(t, err)
	assert.True(t, main.Equal(d("30")))

	// 10 / 12 = 0.8333.. rounds to 0.83
	sub, err = c.PriceIn(d("10"), "UN")
	require.NoError(t, err)
	assert.Equal(t, "0.83", sub.StringFixed(2))

	back, err := c.ToMainPrice(d("2.50"), "UN")
	require.NoError(t, err)
	assert.Equal(t, "30.00", back.StringFixed(2))
}

func TestConversion_Quantities(t *testing.T) {
	c := box()

	q, err := c.ToMainQuantity(d("6"), "UN")
	require.NoError(t, err)
	assert.True(t, q.Equal(d("0.5")))

	q, err = c.ToUnitQuantity(d("2"), "UN")
	require.NoError(t, err)
	assert.True(t, q.Equal(d("24")))

	q, err = c.ToMainQuantity(d("3"), "")
	require.NoError(t, err)
	assert.True(t, q.Equal(d("3")))
}

func TestDiscount(t *testing.T) {
	assert.Equal(t, "10.00", DiscountPercent(d("50"), d("45")).StringFixed(2))
	assert.Equal(t, "-10.00", DiscountPercent(d("50"), d("55")).StringFixed(2))
	assert.True(t, DiscountPercent(decimal.Zero, d("5")).IsZero())
	assert.Equal(t, "45.00", ApplyDiscount(d("50"), d("10")).StringFixed(2))
}

func TestConversion_CheckPrice(t *testing.T) {
	c := box()
	lim := Limits{MinPrice: d("24"), MaxDiscountPercent: d("10")}

	tests := []struct {
		name    string
		sell    string
		unit    string
		wantErr error
	}{
		{"list price in box", "30", "CX", nil},
		{"ten percent off", "27", "CX", nil},
		{"above cap", "26.99", "CX", ErrDiscountExceeded},
		{"above cap by less than a rounding step", "26.999", "CX", ErrDiscountExceeded},
		{"sub unit at list", "2.50", "UN", nil},
		{"sub unit below floor", "1.99", "UN", ErrBelowMinimum},
		{"negative", "-1", "CX", ErrNegativePrice},
		{"unknown unit", "1", "KG", ErrUnknownUnit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.CheckPrice(d("30"), d(tt.sell), tt.unit, lim)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConversion_CheckPriceWithoutLimits(t *testing.T) {
	assert.NoError(t, box().CheckPrice(d("30"), d("0.01"), "CX", Limits{}))
}

func TestConversion_PriceLine(t *testing.T) {
	c := box()

	q, err := c.PriceLine(d("30"), Limits{}, "un", d("18"), nil)
	require.NoError(t, err)
	assert.Equal(t, "UN", q.Unit)
	assert.Equal(t, "2.50", q.UnitPrice.StringFixed(2))
	assert.Equal(t, "45.00", q.Total.StringFixed(2))
	assert.True(t, q.MainQuantity.Equal(d("1.5")))
	assert.True(t, q.DiscountPercent.IsZero())

	price := d("2.25")
	q, err = c.PriceLine(d("30"), Limits{MaxDiscountPercent: d("10")}, "UN", d("4"), &price)
	require.NoError(t, err)
	assert.Equal(t, "9.00", q.Total.StringFixed(2))
	assert.Equal(t, "10.00", q.DiscountPercent.StringFixed(2))

	_, err = c.PriceLine(d("30"), Limits{}, "UN", decimal.Zero, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTotal(t *testing.T) {
	lines := []Line{
		{Quantity: d("3"), UnitPrice: d("0.333")},
		{Quantity: d("1"), UnitPrice: d("10")},
	}
	// 0.999 rounds to 1.00 per line before summing
	assert.Equal(t, "11.00", Total(lines).StringFixed(2))
}
