package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

type OrderRepositoryInterface interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, o domain.Order, changedBy string) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	FindByLocalID(ctx context.Context, deviceID, localID string) (domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	Update(ctx context.Context, o domain.Order) (domain.Order, error)
	ChangeStatus(ctx context.Context, id int64, to domain.OrderStatus, changedBy, notes string,
		check func(domain.Order) error) (domain.Order, error)
	Timeline(ctx context.Context, id int64) ([]domain.StatusLogEntry, error)
}

type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.number, o.customer_id, c.name, o.sales_rep_id, o.payment_table_id, o.status,
	       o.source, o.total, o.weight, o.notes, o.load_id, COALESCE(o.device_id, ''),
	       COALESCE(o.local_id, ''), o.version, o.created_at, o.updated_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerName, &o.SalesRepID,
		&o.PaymentTableID, &o.Status, &o.Source, &o.Total, &o.Weight, &o.Notes, &o.LoadID,
		&o.DeviceID, &o.LocalID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *OrderRepository) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to get next order number: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) Create(ctx context.Context, o domain.Order, changedBy string) (domain.Order, error) {
	var id int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		// 1. Insert order
		err := tx.QueryRow(ctx, `
			INSERT INTO orders
			    (number, customer_id, sales_rep_id, payment_table_id, status, source, total, weight,
			     notes, device_id, local_id, version, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),NULLIF($11,''),1,$12,$12)
			RETURNING id`,
			o.Number, o.CustomerID, o.SalesRepID, o.PaymentTableID, o.Status, o.Source, o.Total,
			o.Weight, o.Notes, o.DeviceID, o.LocalID, o.CreatedAt,
		).Scan(&id)
		if err != nil {
			return mapErr(err, "order "+o.Number)
		}

		// 2. Items and installments
		if err := insertLines(ctx, tx, id, o.Items, o.Installments); err != nil {
			return err
		}

		// 3. Status log
		return logStatus(ctx, tx, id, o.Status, changedBy, "")
	})
	if err != nil {
		return domain.Order{}, err
	}
	return r.Get(ctx, id)
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, items []domain.OrderItem, inst []paymentplan.Installment) error {
	for _, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items
			    (order_id, product_id, product_code, product_name, unit, quantity, list_price,
			     unit_price, discount_percent, total, weight)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			orderID, it.ProductID, it.ProductCode, it.ProductName, it.Unit, it.Quantity,
			it.ListPrice, it.UnitPrice, it.DiscountPercent, it.Total, it.Weight)
		if err != nil {
			return mapErr(err, "order item "+it.ProductCode)
		}
	}
	for _, in := range inst {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_installments (order_id, number, due_date, percent, amount)
			VALUES ($1,$2,$3,$4,$5)`,
			orderID, in.Number, in.DueDate, in.Percent, in.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert installment %d: %w", in.Number, err)
		}
	}
	return nil
}

func logStatus(ctx context.Context, q querier, orderID int64, status domain.OrderStatus, changedBy, notes string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, notes, changed_at)
		VALUES ($1, $2, $3, $4, now())`, orderID, status, changedBy, notes)
	if err != nil {
		return fmt.Errorf("failed to insert order status log: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return domain.Order{}, mapErr(err, fmt.Sprintf("order %d", id))
	}
	if err := r.loadLines(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) FindByLocalID(ctx context.Context, deviceID, localID string) (domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.device_id = $1 AND o.local_id = $2`, deviceID, localID))
	if err != nil {
		return domain.Order{}, mapErr(err, fmt.Sprintf("order %s/%s", deviceID, localID))
	}
	if err := r.loadLines(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, o *domain.Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_code, product_name, unit, quantity, list_price,
		       unit_price, discount_percent, total, weight
		FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("load items of order %d: %w", o.ID, err)
	}
	o.Items = []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductCode, &it.ProductName,
			&it.Unit, &it.Quantity, &it.ListPrice, &it.UnitPrice, &it.DiscountPercent, &it.Total,
			&it.Weight); err != nil {
			rows.Close()
			return err
		}
		o.Items = append(o.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
		SELECT number, due_date, percent, amount
		FROM order_installments WHERE order_id = $1 ORDER BY number`, o.ID)
	if err != nil {
		return fmt.Errorf("load installments of order %d: %w", o.ID, err)
	}
	defer rows.Close()
	o.Installments = nil
	for rows.Next() {
		var in paymentplan.Installment
		if err := rows.Scan(&in.Number, &in.DueDate, &in.Percent, &in.Amount); err != nil {
			return err
		}
		o.Installments = append(o.Installments, in)
	}
	return rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("o.status = $%d", f.Status)
	}
	if f.SalesRepID != nil {
		add("o.sales_rep_id = $%d", *f.SalesRepID)
	}
	if f.CustomerID != nil {
		add("o.customer_id = $%d", *f.CustomerID)
	}
	if f.LoadID != nil {
		add("o.load_id = $%d", *f.LoadID)
	}
	if f.From != nil {
		add("o.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("o.created_at < $%d", *f.To)
	}

	q := orderSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.Normalize()
	q += " ORDER BY o.created_at DESC, o.id DESC" + pageClause(len(args)+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update replaces items, installments, totals and notes of a pending order.
// o.Version must match the stored version.
func (r *OrderRepository) Update(ctx context.Context, o domain.Order) (domain.Order, error) {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			status  domain.OrderStatus
			version int
		)
		err := tx.QueryRow(ctx, `SELECT status, version FROM orders WHERE id = $1 FOR UPDATE`, o.ID).
			Scan(&status, &version)
		if err != nil {
			return mapErr(err, fmt.Sprintf("order %d", o.ID))
		}
		if version != o.Version {
			return fmt.Errorf("%w: order %d is at version %d, not %d", domain.ErrConflict, o.ID, version, o.Version)
		}
		if status != domain.OrderPending {
			return fmt.Errorf("%w: order %d is %s and can no longer be edited", domain.ErrInvalidTransition, o.ID, status)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE orders SET payment_table_id=$2, total=$3, weight=$4, notes=$5,
			    version = version + 1, updated_at = now()
			WHERE id = $1`, o.ID, o.PaymentTableID, o.Total, o.Weight, o.Notes); err != nil {
			return mapErr(err, fmt.Sprintf("order %d", o.ID))
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
			return fmt.Errorf("failed to clear items: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_installments WHERE order_id = $1`, o.ID); err != nil {
			return fmt.Errorf("failed to clear installments: %w", err)
		}
		return insertLines(ctx, tx, o.ID, o.Items, o.Installments)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return r.Get(ctx, o.ID)
}

// ChangeStatus moves an order to a new status under a row lock. check sees
// the current order and may veto the change.
func (r *OrderRepository) ChangeStatus(ctx context.Context, id int64, to domain.OrderStatus, changedBy, notes string,
	check func(domain.Order) error) (domain.Order, error) {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := scanOrder(tx.QueryRow(ctx, orderSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id))
		if err != nil {
			return mapErr(err, fmt.Sprintf("order %d", id))
		}
		if check != nil {
			if err := check(cur); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET status = $2, version = version + 1, updated_at = now()
			WHERE id = $1`, id, to); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return logStatus(ctx, tx, id, to, changedBy, notes)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return r.Get(ctx, id)
}

func (r *OrderRepository) Timeline(ctx context.Context, id int64) ([]domain.StatusLogEntry, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check order %d: %w", id, err)
	}
	if !exists {
		return nil, domain.NotFoundf("order %d", id)
	}

	rows, err := r.db.Query(ctx, `
		SELECT order_id, status, changed_by, notes, changed_at
		FROM order_status_log WHERE order_id = $1 ORDER BY changed_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("load timeline of order %d: %w", id, err)
	}
	defer rows.Close()

	out := []domain.StatusLogEntry{}
	for rows.Next() {
		var e domain.StatusLogEntry
		if err := rows.Scan(&e.OrderID, &e.Status, &e.ChangedBy, &e.Notes, &e.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
