package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	ProductID int64            `json:"product_id"`
	Unit      string           `json:"unit,omitempty"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type CreateOrderRequest struct {
	CustomerID     int64            `json:"customer_id"`
	SalesRepID     int64            `json:"sales_rep_id"`
	PaymentTableID *int64           `json:"payment_table_id,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Items          []OrderItemInput `json:"items"`
	Source         OrderSource      `json:"source,omitempty"`
	DeviceID       string           `json:"-"`
	LocalID        string           `json:"-"`
	CreatedAt      *time.Time       `json:"-"`
}

type UpdateOrderRequest struct {
	Version        int              `json:"version"`
	PaymentTableID *int64           `json:"payment_table_id,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Items          []OrderItemInput `json:"items"`
}

type StatusChangeRequest struct {
	Status OrderStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}

type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"method"`
	Installment *int            `json:"installment,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

type CreateLoadRequest struct {
	Description   string     `json:"description,omitempty"`
	VehiclePlate  string     `json:"vehicle_plate"`
	DriverName    string     `json:"driver_name,omitempty"`
	DepartureDate *time.Time `json:"departure_date,omitempty"`
	OrderIDs      []int64    `json:"order_ids"`
}

type RouteRequest struct {
	SalesRepID  int64   `json:"sales_rep_id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Name        string  `json:"name,omitempty"`
	CustomerIDs []int64 `json:"customer_ids"`
}

type VisitRequest struct {
	Status StopStatus `json:"status"`
	Notes  string     `json:"notes,omitempty"`
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type CustomerFilter struct {
	Search     string
	SalesRepID *int64
	Active     *bool
	Page
}

type ProductFilter struct {
	Search   string
	Category string
	Active   *bool
	Page
}

type OrderFilter struct {
	Status     OrderStatus
	SalesRepID *int64
	CustomerID *int64
	LoadID     *int64
	From       *time.Time
	To         *time.Time
	Page
}

type RouteFilter struct {
	SalesRepID *int64
	Date       *time.Time
	Page
}
