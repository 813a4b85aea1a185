package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

type PaymentMethod string

const (
	PayCash   PaymentMethod = "cash"
	PayPix    PaymentMethod = "pix"
	PayBoleto PaymentMethod = "boleto"
	PayCard   PaymentMethod = "card"
	PayCheck  PaymentMethod = "check"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayPix, PayBoleto, PayCard, PayCheck:
		return true
	}
	return false
}

type Payment struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"method"`
	Installment *int            `json:"installment,omitempty"`
	PaidAt      time.Time       `json:"paid_at"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentSummary is the payment position of one order.
type PaymentSummary struct {
	OrderID     int64              `json:"order_id"`
	Total       decimal.Decimal    `json:"total"`
	Paid        decimal.Decimal    `json:"paid"`
	Outstanding decimal.Decimal    `json:"outstanding"`
	Status      paymentplan.Status `json:"status"`
	Payments    []Payment          `json:"payments"`
}
