package paymentplan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func terms(pairs ...any) []Term {
	var out []Term
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Term{Days: pairs[i].(int), Percent: d(pairs[i+1].(string))})
	}
	return out
}

func TestValidateTerms(t *testing.T) {
	tests := []struct {
		name    string
		terms   []Term
		wantErr error
	}{
		{"cash", terms(0, "100"), nil},
		{"30/60/90", terms(30, "33.33", 60, "33.33", 90, "33.34"), nil},
		{"empty", nil, ErrNoTerms},
		{"negative days", terms(-1, "100"), ErrTermDays},
		{"descending days", terms(60, "50", 30, "50"), ErrTermDays},
		{"zero percent", terms(0, "0", 30, "100"), ErrTermPercent},
		{"sum below 100", terms(30, "50", 60, "40"), ErrPercentSum},
		{"sum above 100", terms(30, "50", 60, "60"), ErrPercentSum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTerms(tt.terms)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTable_ValidateName(t *testing.T) {
	err := Table{Name: " ", Terms: terms(0, "100")}.Validate()
	assert.ErrorIs(t, err, ErrName)
}

func TestSchedule(t *testing.T) {
	base := time.Date(2026, 3, 10, 15, 45, 0, 0, time.UTC)

	got, err := Schedule(terms(30, "33.33", 60, "33.33", 90, "33.34"), d("100.01"), base)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), got[0].DueDate)
	assert.Equal(t, time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC), got[2].DueDate)

	assert.Equal(t, "33.33", got[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", got[1].Amount.StringFixed(2))
	assert.Equal(t, "33.35", got[2].Amount.StringFixed(2))

	sum := decimal.Zero
	for _, in := range got {
		sum = sum.Add(in.Amount)
	}
	assert.True(t, sum.Equal(d("100.01")))
}

func TestSchedule_Remainder(t *testing.T) {
	got, err := Schedule(terms(0, "50", 30, "50"), d("0.03"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.02", got[0].Amount.StringFixed(2))
	assert.Equal(t, "0.01", got[1].Amount.StringFixed(2))
}

func TestSchedule_InvalidTerms(t *testing.T) {
	_, err := Schedule(nil, d("10"), time.Now())
	assert.ErrorIs(t, err, ErrNoTerms)
}

func TestOutstandingAndStatus(t *testing.T) {
	assert.Equal(t, "40", Outstanding(d("100"), d("50"), d("10")).String())
	assert.True(t, Outstanding(d("100"), d("150")).IsZero())

	assert.Equal(t, Unpaid, StatusFor(d("100"), decimal.Zero))
	assert.Equal(t, Partial, StatusFor(d("100"), d("99.99")))
	assert.Equal(t, Paid, StatusFor(d("100"), d("100")))
}
