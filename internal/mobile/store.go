package mobile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// Meta keys kept by the device.
const (
	MetaDeviceID   = "device_id"
	MetaToken      = "token"
	MetaServerURL  = "server_url"
	MetaSalesRep   = "sales_rep_code"
	MetaLastSyncAt = "last_sync_at"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS package (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	version     INTEGER NOT NULL,
	body        TEXT NOT NULL,
	received_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS orders (
	key        TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_state_idx ON orders(state);
`

// Store is the device database.
type Store struct {
	db *sql.DB
}

func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init store %s: %w", path, err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Meta returns "" for a key never set.
func (s *Store) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *Store) SavePackage(ctx context.Context, p syncpkg.Package) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO package(id, version, body, received_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version, body = excluded.body, received_at = excluded.received_at
	`, p.Version, string(body), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Package returns the stored package; ok is false before the first pull.
func (s *Store) Package(ctx context.Context) (p syncpkg.Package, ok bool, err error) {
	var body string
	err = s.db.QueryRowContext(ctx, `SELECT body FROM package WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return syncpkg.Package{}, false, nil
	}
	if err != nil {
		return syncpkg.Package{}, false, err
	}
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return syncpkg.Package{}, false, fmt.Errorf("decode stored package: %w", err)
	}
	return p, true, nil
}

// PackageVersion is 0 before the first pull.
func (s *Store) PackageVersion(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM package WHERE id = 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveOrder(ctx context.Context, q execer, o LocalOrder) error {
	body, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO orders(key, state, body, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET state = excluded.state, body = excluded.body
	`, o.Key(), string(o.State), string(body), o.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) SaveOrder(ctx context.Context, o LocalOrder) error {
	return saveOrder(ctx, s.db, o)
}

func (s *Store) Order(ctx context.Context, key string) (LocalOrder, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM orders WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return LocalOrder{}, domain.NotFoundf("order %s", key)
	}
	if err != nil {
		return LocalOrder{}, err
	}
	var o LocalOrder
	if err := json.Unmarshal([]byte(body), &o); err != nil {
		return LocalOrder{}, fmt.Errorf("decode order %s: %w", key, err)
	}
	return o, nil
}

// Orders lists the device orders, oldest first. An empty state lists all.
func (s *Store) Orders(ctx context.Context, state OrderState) ([]LocalOrder, error) {
	q := `SELECT body FROM orders`
	var args []any
	if state != "" {
		q += ` WHERE state = ?`
		args = append(args, string(state))
	}
	q += ` ORDER BY created_at, key`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LocalOrder
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var o LocalOrder
		if err := json.Unmarshal([]byte(body), &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ReplaceOrders swaps the whole order list in one transaction.
func (s *Store) ReplaceOrders(ctx context.Context, orders []LocalOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return err
	}
	for _, o := range orders {
		if err := saveOrder(ctx, tx, o); err != nil {
			return fmt.Errorf("save order %s: %w", o.Key(), err)
		}
	}
	return tx.Commit()
}
