package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceItems(t *testing.T) {
	dec := decimal.RequireFromString
	products := map[int64]Product{
		1: {ID: 1, Code: "P1", Unit: "CX", SubUnit: "UN", SubUnitRatio: dec("24"), Price: dec("48"), Weight: dec("12"), Active: true},
		2: {ID: 2, Code: "P2", Unit: "KG", Price: dec("9.90"), Weight: dec("1"), Active: false},
	}

	items, total, weight, err := PriceItems(products, []OrderItemInput{
		{ProductID: 1, Unit: "UN", Quantity: dec("12")},
		{ProductID: 1, Quantity: dec("1")},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2.00", items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "6.000", items[0].Weight.StringFixed(3))
	assert.Equal(t, "72.00", total.StringFixed(2))
	assert.Equal(t, "18.000", weight.StringFixed(3))

	_, _, _, err = PriceItems(products, []OrderItemInput{{ProductID: 2, Quantity: dec("1")}})
	assert.ErrorIs(t, err, ErrValidation)
	_, _, _, err = PriceItems(products, []OrderItemInput{{ProductID: 3, Quantity: dec("1")}})
	assert.ErrorIs(t, err, ErrValidation)
	_, _, _, err = PriceItems(products, []OrderItemInput{{ProductID: 1, Unit: "PCT", Quantity: dec("1")}})
	assert.ErrorIs(t, err, ErrValidation)
}
