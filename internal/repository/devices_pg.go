package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

// SyncLog is one pull or push of a device.
type SyncLog struct {
	ID             int64     `json:"id"`
	DeviceID       string    `json:"device_id"`
	Kind           string    `json:"kind"` // pull or push
	PackageVersion int64     `json:"package_version"`
	OrdersReceived int       `json:"orders_received"`
	OrdersAccepted int       `json:"orders_accepted"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type DevicesPG struct {
	db *pgxpool.Pool
}

func NewDevicesPG(db *pgxpool.Pool) *DevicesPG {
	return &DevicesPG{db: db}
}

// Register stores the device, replacing owner, name and token when it
// registers again.
func (r *DevicesPG) Register(ctx context.Context, d domain.Device) (domain.Device, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO devices (id, sales_rep_id, name, token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		    SET sales_rep_id = EXCLUDED.sales_rep_id, name = EXCLUDED.name, token = EXCLUDED.token
		RETURNING last_sync_at, created_at`,
		d.ID, d.SalesRepID, d.Name, d.Token).Scan(&d.LastSyncAt, &d.CreatedAt)
	if err != nil {
		return domain.Device{}, fmt.Errorf("register device %s: %w", d.ID, err)
	}
	return d, nil
}

func (r *DevicesPG) ByToken(ctx context.Context, token string) (domain.Device, error) {
	var d domain.Device
	err := r.db.QueryRow(ctx, `
		SELECT id, sales_rep_id, name, token, last_sync_at, created_at
		FROM devices WHERE token = $1`, token).
		Scan(&d.ID, &d.SalesRepID, &d.Name, &d.Token, &d.LastSyncAt, &d.CreatedAt)
	if err != nil {
		return domain.Device{}, notFound(err, "device")
	}
	return d, nil
}

func (r *DevicesPG) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE devices SET last_sync_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch device %s: %w", id, err)
	}
	return nil
}

func (r *DevicesPG) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM devices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	return n, nil
}

func (r *DevicesPG) LogSync(ctx context.Context, l SyncLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sync_logs
		    (device_id, kind, package_version, orders_received, orders_accepted, success, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.DeviceID, l.Kind, l.PackageVersion, l.OrdersReceived, l.OrdersAccepted, l.Success, l.Error)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}

// List returns the registered devices, most recently synced first.
func (r *DevicesPG) List(ctx context.Context, salesRepID *int64, page domain.Page) ([]domain.Device, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sales_rep_id, name, last_sync_at, created_at
		FROM devices
		WHERE ($1::bigint IS NULL OR sales_rep_id = $1)
		ORDER BY last_sync_at DESC NULLS LAST, id
		LIMIT $2 OFFSET $3`, salesRepID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Device, error) {
		var d domain.Device
		err := row.Scan(&d.ID, &d.SalesRepID, &d.Name, &d.LastSyncAt, &d.CreatedAt)
		return d, err
	})
}

// Logs returns the sync history of a device, newest first.
func (r *DevicesPG) Logs(ctx context.Context, deviceID string, page domain.Page) ([]SyncLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, device_id, kind, package_version, orders_received, orders_accepted, success, error, created_at
		FROM sync_logs WHERE device_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, deviceID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SyncLog, error) {
		var l SyncLog
		err := row.Scan(&l.ID, &l.DeviceID, &l.Kind, &l.PackageVersion, &l.OrdersReceived,
			&l.OrdersAccepted, &l.Success, &l.Error, &l.CreatedAt)
		return l, err
	})
}
