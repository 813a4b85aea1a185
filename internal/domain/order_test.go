package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderApproved, true},
		{OrderPending, OrderCanceled, true},
		{OrderPending, OrderLoaded, false},
		{OrderApproved, OrderLoaded, true},
		{OrderApproved, OrderPending, true},
		{OrderLoaded, OrderDelivered, true},
		{OrderLoaded, OrderCanceled, false},
		{OrderDelivered, OrderPending, false},
		{OrderCanceled, OrderApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestLoadStatus_CanTransition(t *testing.T) {
	assert.True(t, LoadOpen.CanTransition(LoadClosed))
	assert.False(t, LoadOpen.CanTransition(LoadDelivered))
	assert.True(t, LoadClosed.CanTransition(LoadDelivered))
	assert.True(t, LoadClosed.CanTransition(LoadOpen))
	assert.False(t, LoadDelivered.CanTransition(LoadOpen))
}

func TestProduct_ValidateAndQuote(t *testing.T) {
	p := Product{
		Code:         "P1",
		Name:         "Refrigerante 350ml",
		Unit:         "FD",
		SubUnit:      "UN",
		SubUnitRatio: decimal.NewFromInt(6),
		Price:        decimal.RequireFromString("18"),
		MinPrice:     decimal.RequireFromString("15"),
	}
	require.NoError(t, p.Validate())

	q, err := p.Quote("UN", decimal.NewFromInt(4), nil)
	require.NoError(t, err)
	assert.Equal(t, "3.00", q.UnitPrice.StringFixed(2))
	assert.Equal(t, "12.00", q.Total.StringFixed(2))

	p.MinPrice = decimal.RequireFromString("20")
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p.MinPrice = decimal.Zero
	p.SubUnitRatio = decimal.Zero
	assert.ErrorIs(t, p.Validate(), ErrValidation)
}

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultPageLimit}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: MaxPageLimit, Offset: 0}, Page{Limit: 9999, Offset: -3}.Normalize())
}
