package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrWorkerOnline = errors.New("worker already online")

// WorkersPG tracks background workers by name.
type WorkersPG struct {
	db *pgxpool.Pool
}

func NewWorkersPG(db *pgxpool.Pool) *WorkersPG {
	return &WorkersPG{db: db}
}

// RegisterOrFail marks the worker online. It fails with ErrWorkerOnline when
// a worker of the same name is online and was seen within staleAfter.
func (r *WorkersPG) RegisterOrFail(ctx context.Context, name, wtype string, staleAfter time.Duration) error {
	var (
		status   string
		lastSeen time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT status, last_seen FROM workers WHERE name=$1`, name).Scan(&status, &lastSeen)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = r.db.Exec(ctx, `
			INSERT INTO workers(name, type, status, last_seen) VALUES ($1, $2, 'online', now())
		`, name, wtype)
		return err
	case err != nil:
		return err
	}
	if status == "online" && time.Since(lastSeen) < staleAfter {
		return fmt.Errorf("%w: %s", ErrWorkerOnline, name)
	}
	_, err = r.db.Exec(ctx, `
		UPDATE workers SET type=$2, status='online', last_seen=now() WHERE name=$1
	`, name, wtype)
	return err
}

func (r *WorkersPG) Heartbeat(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE workers SET last_seen=now() WHERE name=$1`, name)
	return err
}

func (r *WorkersPG) SetOffline(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE workers SET status='offline', last_seen=now() WHERE name=$1`, name)
	return err
}

// AddBuilt increments the packages_built counter of the worker.
func (r *WorkersPG) AddBuilt(ctx context.Context, name string, n int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE workers SET packages_built = packages_built + $2, last_seen=now() WHERE name=$1
	`, name, n)
	return err
}

// Worker is a row of the worker registry.
type Worker struct {
	Name          string    `json:"worker_name"`
	Type          string    `json:"type"`
	Status        string    `json:"status"` // online or offline
	PackagesBuilt int       `json:"packages_built"`
	LastSeen      time.Time `json:"last_seen"`
}

func (r *WorkersPG) List(ctx context.Context) ([]Worker, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, type, status, packages_built, last_seen FROM workers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Worker, error) {
		var w Worker
		err := row.Scan(&w.Name, &w.Type, &w.Status, &w.PackagesBuilt, &w.LastSeen)
		return w, err
	})
}
