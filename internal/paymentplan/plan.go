// Package paymentplan turns a payment table (a named set of installment
// terms) into the due dates and amounts of an order.
package paymentplan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/pricing"
)

var (
	ErrNoTerms     = errors.New("paymentplan: table has no terms")
	ErrTermDays    = errors.New("paymentplan: term days must be non-negative and ascending")
	ErrTermPercent = errors.New("paymentplan: term percent must be positive")
	ErrPercentSum  = errors.New("paymentplan: term percents must sum to 100")
	ErrName        = errors.New("paymentplan: table name is required")
)

var hundred = decimal.NewFromInt(100)

// Term is one installment: Percent of the total due Days after the order date.
type Term struct {
	Days    int             `json:"days"`
	Percent decimal.Decimal `json:"percent"`
}

// Table is a named payment condition, e.g. "30/60/90".
type Table struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Terms       []Term    `json:"terms"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Installment is a scheduled amount of an order.
type Installment struct {
	Number  int             `json:"number"`
	DueDate time.Time       `json:"due_date"`
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

// Validate checks the table name and its terms.
func (t Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrName
	}
	return ValidateTerms(t.Terms)
}

// ValidateTerms checks that terms are ordered by days and add up to 100%.
func ValidateTerms(terms []Term) error {
	if len(terms) == 0 {
		return ErrNoTerms
	}
	sum := decimal.Zero
	prev := 0
	for i, term := range terms {
		if term.Days < 0 || (i > 0 && term.Days < prev) {
			return fmt.Errorf("%w: term %d has %d days", ErrTermDays, i+1, term.Days)
		}
		if !term.Percent.IsPositive() {
			return fmt.Errorf("%w: term %d", ErrTermPercent, i+1)
		}
		prev = term.Days
		sum = sum.Add(term.Percent)
	}
	if !sum.Equal(hundred) {
		return fmt.Errorf("%w: got %s", ErrPercentSum, sum.String())
	}
	return nil
}

// Schedule splits total over terms starting from the calendar day of base.
// Every installment but the last is rounded to cents; the last one takes the
// remainder so the schedule always adds up to total.
func Schedule(terms []Term, total decimal.Decimal, base time.Time) ([]Installment, error) {
	if err := ValidateTerms(terms); err != nil {
		return nil, err
	}
	day := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())
	total = pricing.RoundMoney(total)

	out := make([]Installment, 0, len(terms))
	allocated := decimal.Zero
	for i, term := range terms {
		amount := pricing.RoundMoney(total.Mul(term.Percent).Div(hundred))
		if i == len(terms)-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		out = append(out, Installment{
			Number:  i + 1,
			DueDate: day.AddDate(0, 0, term.Days),
			Percent: term.Percent,
			Amount:  amount,
		})
	}
	return out, nil
}
