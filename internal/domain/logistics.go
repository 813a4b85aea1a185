package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoadStatus string

const (
	LoadOpen      LoadStatus = "open"
	LoadClosed    LoadStatus = "closed"
	LoadDelivered LoadStatus = "delivered"
)

func (s LoadStatus) CanTransition(to LoadStatus) bool {
	switch s {
	case LoadOpen:
		return to == LoadClosed
	case LoadClosed:
		return to == LoadDelivered || to == LoadOpen
	}
	return false
}

// Load groups approved orders on one vehicle.
type Load struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Description   string          `json:"description,omitempty"`
	VehiclePlate  string          `json:"vehicle_plate"`
	DriverName    string          `json:"driver_name,omitempty"`
	Status        LoadStatus      `json:"status"`
	DepartureDate *time.Time      `json:"departure_date,omitempty"`
	OrderIDs      []int64         `json:"order_ids"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalWeight   decimal.Decimal `json:"total_weight"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type StopStatus string

const (
	StopPending StopStatus = "pending"
	StopVisited StopStatus = "visited"
	StopSkipped StopStatus = "skipped"
)

// Route is the ordered list of customers a rep visits on Date.
type Route struct {
	ID         int64       `json:"id"`
	SalesRepID int64       `json:"sales_rep_id"`
	Date       time.Time   `json:"date"`
	Name       string      `json:"name,omitempty"`
	Stops      []RouteStop `json:"stops"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type RouteStop struct {
	Position   int        `json:"position"`
	CustomerID int64      `json:"customer_id"`
	Status     StopStatus `json:"status"`
	VisitedAt  *time.Time `json:"visited_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}
