package domain

import (
	"encoding/json"
	"time"
)

// Routing keys on the sales topic exchange.
const (
	EventOrderCreated   = "orders.created"
	EventOrderUpdated   = "orders.updated"
	EventOrderStatus    = "orders.status"
	EventCatalogChanged = "catalog.changed"
	EventRoutesChanged  = "routes.changed"
)

// Event is the envelope published for every change that affects what a
// sales rep device must see. SalesRepID 0 means every rep.
type Event struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"type"`
	SalesRepID int64           `json:"sales_rep_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
