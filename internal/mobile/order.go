package mobile

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// OrderState tells where a device order is in the upload cycle.
type OrderState string

const (
	StatePending  OrderState = "pending"  // waiting for upload
	StateRejected OrderState = "rejected" // refused by the server, can be fixed and resent
	StateSynced   OrderState = "synced"   // the server owns it
)

// LocalOrder is an order as the device keeps it.
type LocalOrder struct {
	LocalID        string                    `json:"local_id,omitempty"`
	ServerID       int64                     `json:"server_id,omitempty"`
	Number         string                    `json:"number,omitempty"`
	State          OrderState                `json:"state"`
	Status         domain.OrderStatus        `json:"status,omitempty"`
	CustomerID     int64                     `json:"customer_id"`
	CustomerName   string                    `json:"customer_name,omitempty"`
	PaymentTableID *int64                    `json:"payment_table_id,omitempty"`
	Notes          string                    `json:"notes,omitempty"`
	Inputs         []domain.OrderItemInput   `json:"inputs,omitempty"`
	Items          []domain.OrderItem        `json:"items"`
	Total          decimal.Decimal           `json:"total"`
	Weight         decimal.Decimal           `json:"weight"`
	Installments   []paymentplan.Installment `json:"installments,omitempty"`
	Error          string                    `json:"error,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// Key identifies the order on the device: its local id when it was created
// here, the server id otherwise.
func (o LocalOrder) Key() string {
	if o.LocalID != "" {
		return o.LocalID
	}
	return "srv-" + strconv.FormatInt(o.ServerID, 10)
}

// Editable reports whether the order can still be changed on the device.
func (o LocalOrder) Editable() bool {
	return o.State == StatePending || o.State == StateRejected
}

func (o LocalOrder) upload() syncpkg.UploadOrder {
	return syncpkg.UploadOrder{
		LocalID:        o.LocalID,
		CustomerID:     o.CustomerID,
		PaymentTableID: o.PaymentTableID,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		Items:          o.Inputs,
	}
}

func fromServer(o domain.Order) LocalOrder {
	return LocalOrder{
		LocalID:        o.LocalID,
		ServerID:       o.ID,
		Number:         o.Number,
		State:          StateSynced,
		Status:         o.Status,
		CustomerID:     o.CustomerID,
		CustomerName:   o.CustomerName,
		PaymentTableID: o.PaymentTableID,
		Notes:          o.Notes,
		Items:          o.Items,
		Total:          o.Total,
		Weight:         o.Weight,
		Installments:   o.Installments,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// Draft is what the sales rep types for a new order or an edit.
type Draft struct {
	CustomerID     int64
	PaymentTableID *int64
	Notes          string
	Items          []domain.OrderItemInput
}
