package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

type LoadRepositoryInterface interface {
	Create(ctx context.Context, l domain.Load, orderIDs []int64) (domain.Load, error)
	Get(ctx context.Context, id int64) (domain.Load, error)
	List(ctx context.Context, status domain.LoadStatus, page domain.Page) ([]domain.Load, error)
	AddOrders(ctx context.Context, loadID int64, orderIDs []int64) (domain.Load, error)
	RemoveOrder(ctx context.Context, loadID, orderID int64) (domain.Load, error)
	ChangeStatus(ctx context.Context, id int64, to domain.LoadStatus) (domain.Load, error)
}

type LoadRepository struct {
	db *pgxpool.Pool
}

func NewLoadRepository(db *pgxpool.Pool) LoadRepositoryInterface {
	return &LoadRepository{db: db}
}

const loadColumns = `id, number, description, vehicle_plate, driver_name, status, departure_date, created_at, updated_at`

func scanLoad(row pgx.Row) (domain.Load, error) {
	var l domain.Load
	err := row.Scan(&l.ID, &l.Number, &l.Description, &l.VehiclePlate, &l.DriverName, &l.Status,
		&l.DepartureDate, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *LoadRepository) Create(ctx context.Context, l domain.Load, orderIDs []int64) (domain.Load, error) {
	var id int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var seq int64
		if err := tx.QueryRow(ctx, `SELECT nextval('load_number_seq')`).Scan(&seq); err != nil {
			return fmt.Errorf("failed to get next load number: %w", err)
		}
		number := fmt.Sprintf("CAR-%05d", seq)
		err := tx.QueryRow(ctx, `
			INSERT INTO loads (number, description, vehicle_plate, driver_name, status, departure_date)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			number, l.Description, l.VehiclePlate, l.DriverName, domain.LoadOpen, l.DepartureDate,
		).Scan(&id)
		if err != nil {
			return mapErr(err, "load "+number)
		}
		return attachOrders(ctx, tx, id, number, orderIDs)
	})
	if err != nil {
		return domain.Load{}, err
	}
	return r.Get(ctx, id)
}

// lockLoad locks an open load for changes to its orders.
func lockLoad(ctx context.Context, tx pgx.Tx, id int64) (domain.Load, error) {
	l, err := scanLoad(tx.QueryRow(ctx, `SELECT `+loadColumns+` FROM loads WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Load{}, mapErr(err, fmt.Sprintf("load %d", id))
	}
	return l, nil
}

// attachOrders moves approved, unassigned orders into the load.
func attachOrders(ctx context.Context, tx pgx.Tx, loadID int64, number string, orderIDs []int64) error {
	for _, oid := range orderIDs {
		var (
			status  domain.OrderStatus
			current *int64
		)
		err := tx.QueryRow(ctx, `SELECT status, load_id FROM orders WHERE id = $1 FOR UPDATE`, oid).
			Scan(&status, &current)
		if err != nil {
			return mapErr(err, fmt.Sprintf("order %d", oid))
		}
		if current != nil {
			if *current == loadID {
				continue
			}
			return fmt.Errorf("%w: order %d already belongs to load %d", domain.ErrConflict, oid, *current)
		}
		if status != domain.OrderApproved {
			return fmt.Errorf("%w: order %d is %s, only approved orders can be loaded",
				domain.ErrInvalidTransition, oid, status)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET status = $2, load_id = $3, version = version + 1, updated_at = now()
			WHERE id = $1`, oid, domain.OrderLoaded, loadID); err != nil {
			return fmt.Errorf("failed to load order %d: %w", oid, err)
		}
		if err := logStatus(ctx, tx, oid, domain.OrderLoaded, "load "+number, ""); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE loads SET updated_at = now() WHERE id = $1`, loadID); err != nil {
		return fmt.Errorf("failed to touch load %d: %w", loadID, err)
	}
	return nil
}

func (r *LoadRepository) Get(ctx context.Context, id int64) (domain.Load, error) {
	l, err := scanLoad(r.db.QueryRow(ctx, `SELECT `+loadColumns+` FROM loads WHERE id = $1`, id))
	if err != nil {
		return domain.Load{}, mapErr(err, fmt.Sprintf("load %d", id))
	}
	if err := r.fillTotals(ctx, &l); err != nil {
		return domain.Load{}, err
	}
	return l, nil
}

func (r *LoadRepository) fillTotals(ctx context.Context, l *domain.Load) error {
	rows, err := r.db.Query(ctx, `SELECT id, total, weight FROM orders WHERE load_id = $1 ORDER BY id`, l.ID)
	if err != nil {
		return fmt.Errorf("load orders of load %d: %w", l.ID, err)
	}
	defer rows.Close()

	l.OrderIDs = []int64{}
	l.TotalValue, l.TotalWeight = decimal.Zero, decimal.Zero
	for rows.Next() {
		var (
			id            int64
			total, weight decimal.Decimal
		)
		if err := rows.Scan(&id, &total, &weight); err != nil {
			return err
		}
		l.OrderIDs = append(l.OrderIDs, id)
		l.TotalValue = l.TotalValue.Add(total)
		l.TotalWeight = l.TotalWeight.Add(weight)
	}
	return rows.Err()
}

func (r *LoadRepository) List(ctx context.Context, status domain.LoadStatus, page domain.Page) ([]domain.Load, error) {
	page = page.Normalize()
	rows, err := r.db.Query(ctx, `
		SELECT `+loadColumns+` FROM loads
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, string(status), page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}
	var out []domain.Load
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.fillTotals(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = []domain.Load{}
	}
	return out, nil
}

func (r *LoadRepository) AddOrders(ctx context.Context, loadID int64, orderIDs []int64) (domain.Load, error) {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		l, err := lockLoad(ctx, tx, loadID)
		if err != nil {
			return err
		}
		if l.Status != domain.LoadOpen {
			return fmt.Errorf("%w: load %s is %s", domain.ErrInvalidTransition, l.Number, l.Status)
		}
		return attachOrders(ctx, tx, loadID, l.Number, orderIDs)
	})
	if err != nil {
		return domain.Load{}, err
	}
	return r.Get(ctx, loadID)
}

func (r *LoadRepository) RemoveOrder(ctx context.Context, loadID, orderID int64) (domain.Load, error) {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		l, err := lockLoad(ctx, tx, loadID)
		if err != nil {
			return err
		}
		if l.Status != domain.LoadOpen {
			return fmt.Errorf("%w: load %s is %s", domain.ErrInvalidTransition, l.Number, l.Status)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET status = $3, load_id = NULL, version = version + 1, updated_at = now()
			WHERE id = $1 AND load_id = $2`, orderID, loadID, domain.OrderApproved)
		if err != nil {
			return fmt.Errorf("failed to unload order %d: %w", orderID, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFoundf("order %d in load %s", orderID, l.Number)
		}
		if err := logStatus(ctx, tx, orderID, domain.OrderApproved, "load "+l.Number, "removed from load"); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE loads SET updated_at = now() WHERE id = $1`, loadID)
		return err
	})
	if err != nil {
		return domain.Load{}, err
	}
	return r.Get(ctx, loadID)
}

// ChangeStatus applies a load transition; delivering a load delivers its orders.
func (r *LoadRepository) ChangeStatus(ctx context.Context, id int64, to domain.LoadStatus) (domain.Load, error) {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		l, err := lockLoad(ctx, tx, id)
		if err != nil {
			return err
		}
		if !l.Status.CanTransition(to) {
			return fmt.Errorf("%w: load %s cannot go from %s to %s", domain.ErrInvalidTransition, l.Number, l.Status, to)
		}
		if to == domain.LoadClosed {
			var n int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM orders WHERE load_id = $1`, id).Scan(&n); err != nil {
				return fmt.Errorf("count orders of load %d: %w", id, err)
			}
			if n == 0 {
				return domain.Invalidf("load %s has no orders", l.Number)
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE loads SET status = $2, updated_at = now() WHERE id = $1`, id, to); err != nil {
			return fmt.Errorf("failed to update load status: %w", err)
		}
		if to != domain.LoadDelivered {
			return nil
		}

		rows, err := tx.Query(ctx, `
			UPDATE orders SET status = $2, version = version + 1, updated_at = now()
			WHERE load_id = $1 AND status = $3
			RETURNING id`, id, domain.OrderDelivered, domain.OrderLoaded)
		if err != nil {
			return fmt.Errorf("failed to deliver orders: %w", err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}
		for _, oid := range ids {
			if err := logStatus(ctx, tx, oid, domain.OrderDelivered, "load "+l.Number, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Load{}, err
	}
	return r.Get(ctx, id)
}
