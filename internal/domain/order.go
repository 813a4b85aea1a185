package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderApproved  OrderStatus = "approved"
	OrderLoaded    OrderStatus = "loaded"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderApproved, OrderCanceled},
	OrderApproved: {OrderLoaded, OrderCanceled, OrderPending},
	OrderLoaded:   {OrderDelivered, OrderApproved},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderLoaded, OrderDelivered, OrderCanceled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from s to to.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderSource string

const (
	SourceDesktop OrderSource = "desktop"
	SourceMobile  OrderSource = "mobile"
)

type Order struct {
	ID             int64                     `json:"id"`
	Number         string                    `json:"number"`
	CustomerID     int64                     `json:"customer_id"`
	CustomerName   string                    `json:"customer_name,omitempty"`
	SalesRepID     int64                     `json:"sales_rep_id"`
	PaymentTableID *int64                    `json:"payment_table_id,omitempty"`
	Status         OrderStatus               `json:"status"`
	Source         OrderSource               `json:"source"`
	Total          decimal.Decimal           `json:"total"`
	Weight         decimal.Decimal           `json:"weight"`
	Notes          string                    `json:"notes,omitempty"`
	LoadID         *int64                    `json:"load_id,omitempty"`
	DeviceID       string                    `json:"device_id,omitempty"`
	LocalID        string                    `json:"local_id,omitempty"`
	Version        int                       `json:"version"`
	Items          []OrderItem               `json:"items,omitempty"`
	Installments   []paymentplan.Installment `json:"installments,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name"`
	Unit            string          `json:"unit"`
	Quantity        decimal.Decimal `json:"quantity"`
	ListPrice       decimal.Decimal `json:"list_price"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
	Weight          decimal.Decimal `json:"weight"`
}

// StatusLogEntry is one row of an order timeline.
type StatusLogEntry struct {
	OrderID   int64       `json:"order_id"`
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	Notes     string      `json:"notes,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}
