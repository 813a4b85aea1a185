// Package syncpkg is the LAN sync protocol shared by the sync server and the
// sales rep devices, plus the builder of the per rep data packages.
package syncpkg

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

// Magic prefixes every discovery datagram; anything else is ignored.
const Magic = "SALES-SYNC/1"

// FormatVersion is bumped when the package layout changes incompatibly.
const FormatVersion = 1

// Probe is broadcast by a device looking for sync servers.
type Probe struct {
	Magic    string `json:"magic"`
	DeviceID string `json:"device_id,omitempty"`
}

// Announcement is the answer of a sync server to a probe.
type Announcement struct {
	Magic    string `json:"magic"`
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	HTTPPort int    `json:"http_port"`
	Version  string `json:"version"`

	// Host is the address the announcement came from, set by the receiver.
	Host string `json:"-"`
}

// BaseURL is the HTTP endpoint announced by the server.
func (a Announcement) BaseURL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(a.Host, strconv.Itoa(a.HTTPPort)))
}

type RegisterRequest struct {
	SalesRepCode string `json:"sales_rep_code"`
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name,omitempty"`
}

type RegisterResponse struct {
	DeviceID string          `json:"device_id"`
	Token    string          `json:"token"`
	SalesRep domain.SalesRep `json:"sales_rep"`
}

// UploadOrder is an order created on a device. LocalID makes uploads
// idempotent per device.
type UploadOrder struct {
	LocalID        string                  `json:"local_id"`
	CustomerID     int64                   `json:"customer_id"`
	PaymentTableID *int64                  `json:"payment_table_id,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	Items          []domain.OrderItemInput `json:"items"`
}

type UploadRequest struct {
	Orders []UploadOrder `json:"orders"`
}

// UploadResult reports what happened to one uploaded order.
type UploadResult struct {
	LocalID   string `json:"local_id"`
	Accepted  bool   `json:"accepted"`
	Duplicate bool   `json:"duplicate,omitempty"`
	OrderID   int64  `json:"order_id,omitempty"`
	Number    string `json:"number,omitempty"`
	Error     string `json:"error,omitempty"`
}

type PushResponse struct {
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	Results  []UploadResult `json:"results"`
}

type ServerStatus struct {
	ServerID  string    `json:"server_id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Now       time.Time `json:"now"`
}
