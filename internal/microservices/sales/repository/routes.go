package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

type RouteRepositoryInterface interface {
	Create(ctx context.Context, rt domain.Route) (domain.Route, error)
	Get(ctx context.Context, id int64) (domain.Route, error)
	List(ctx context.Context, f domain.RouteFilter) ([]domain.Route, error)
	ReplaceStops(ctx context.Context, id int64, customerIDs []int64) (domain.Route, error)
	MarkStop(ctx context.Context, id int64, position int, status domain.StopStatus, notes string, at time.Time) (domain.Route, error)
}

type RouteRepository struct {
	db *pgxpool.Pool
}

func NewRouteRepository(db *pgxpool.Pool) RouteRepositoryInterface {
	return &RouteRepository{db: db}
}

const routeColumns = `id, sales_rep_id, route_date, name, created_at, updated_at`

func scanRoute(row pgx.Row) (domain.Route, error) {
	var rt domain.Route
	err := row.Scan(&rt.ID, &rt.SalesRepID, &rt.Date, &rt.Name, &rt.CreatedAt, &rt.UpdatedAt)
	return rt, err
}

func insertStops(ctx context.Context, tx pgx.Tx, routeID int64, customerIDs []int64) error {
	for i, cid := range customerIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO route_stops (route_id, position, customer_id, status)
			VALUES ($1, $2, $3, $4)`, routeID, i+1, cid, domain.StopPending)
		if err != nil {
			return mapErr(err, fmt.Sprintf("route stop %d", i+1))
		}
	}
	return nil
}

func (r *RouteRepository) Create(ctx context.Context, rt domain.Route) (domain.Route, error) {
	var id int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO routes (sales_rep_id, route_date, name)
			VALUES ($1, $2, $3) RETURNING id`, rt.SalesRepID, rt.Date, rt.Name).Scan(&id)
		if err != nil {
			return mapErr(err, "route")
		}
		ids := make([]int64, 0, len(rt.Stops))
		for _, s := range rt.Stops {
			ids = append(ids, s.CustomerID)
		}
		return insertStops(ctx, tx, id, ids)
	})
	if err != nil {
		return domain.Route{}, err
	}
	return r.Get(ctx, id)
}

func (r *RouteRepository) Get(ctx context.Context, id int64) (domain.Route, error) {
	rt, err := scanRoute(r.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id))
	if err != nil {
		return domain.Route{}, mapErr(err, fmt.Sprintf("route %d", id))
	}
	if err := r.loadStops(ctx, &rt); err != nil {
		return domain.Route{}, err
	}
	return rt, nil
}

func (r *RouteRepository) loadStops(ctx context.Context, rt *domain.Route) error {
	rows, err := r.db.Query(ctx, `
		SELECT position, customer_id, status, visited_at, notes
		FROM route_stops WHERE route_id = $1 ORDER BY position`, rt.ID)
	if err != nil {
		return fmt.Errorf("load stops of route %d: %w", rt.ID, err)
	}
	defer rows.Close()

	rt.Stops = []domain.RouteStop{}
	for rows.Next() {
		var s domain.RouteStop
		if err := rows.Scan(&s.Position, &s.CustomerID, &s.Status, &s.VisitedAt, &s.Notes); err != nil {
			return err
		}
		rt.Stops = append(rt.Stops, s)
	}
	return rows.Err()
}

func (r *RouteRepository) List(ctx context.Context, f domain.RouteFilter) ([]domain.Route, error) {
	var (
		where []string
		args  []any
	)
	if f.SalesRepID != nil {
		args = append(args, *f.SalesRepID)
		where = append(where, fmt.Sprintf("sales_rep_id = $%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		where = append(where, fmt.Sprintf("route_date = $%d::date", len(args)))
	}
	q := `SELECT ` + routeColumns + ` FROM routes`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.Normalize()
	q += " ORDER BY route_date DESC, id" + pageClause(len(args)+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Route, error) {
		return scanRoute(row)
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadStops(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *RouteRepository) ReplaceStops(ctx context.Context, id int64, customerIDs []int64) (domain.Route, error) {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE routes SET updated_at = now() WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to touch route %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFoundf("route %d", id)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM route_stops WHERE route_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear stops: %w", err)
		}
		return insertStops(ctx, tx, id, customerIDs)
	})
	if err != nil {
		return domain.Route{}, err
	}
	return r.Get(ctx, id)
}

func (r *RouteRepository) MarkStop(ctx context.Context, id int64, position int, status domain.StopStatus, notes string, at time.Time) (domain.Route, error) {
	var visited *time.Time
	if status == domain.StopVisited {
		visited = &at
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE route_stops SET status = $3, notes = $4, visited_at = $5
		WHERE route_id = $1 AND position = $2`, id, position, status, notes, visited)
	if err != nil {
		return domain.Route{}, fmt.Errorf("failed to update stop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Route{}, domain.NotFoundf("stop %d of route %d", position, id)
	}
	if _, err := r.db.Exec(ctx, `UPDATE routes SET updated_at = now() WHERE id = $1`, id); err != nil {
		return domain.Route{}, fmt.Errorf("failed to touch route %d: %w", id, err)
	}
	return r.Get(ctx, id)
}
