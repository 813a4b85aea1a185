package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

// PaymentCheck validates a payment against the locked order state.
type PaymentCheck func(total decimal.Decimal, status domain.OrderStatus, paid decimal.Decimal) error

type PaymentRepositoryInterface interface {
	Add(ctx context.Context, p domain.Payment, check PaymentCheck) (domain.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) (total decimal.Decimal, payments []domain.Payment, err error)
}

type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepositoryInterface {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Add(ctx context.Context, p domain.Payment, check PaymentCheck) (domain.Payment, error) {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			total  decimal.Decimal
			status domain.OrderStatus
			paid   decimal.Decimal
		)
		err := tx.QueryRow(ctx, `SELECT total, status FROM orders WHERE id = $1 FOR UPDATE`, p.OrderID).
			Scan(&total, &status)
		if err != nil {
			return mapErr(err, fmt.Sprintf("order %d", p.OrderID))
		}
		if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1`, p.OrderID).
			Scan(&paid); err != nil {
			return fmt.Errorf("sum payments of order %d: %w", p.OrderID, err)
		}
		if check != nil {
			if err := check(total, status, paid); err != nil {
				return err
			}
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO payments (order_id, amount, method, installment, paid_at, notes)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id, created_at`,
			p.OrderID, p.Amount, p.Method, p.Installment, p.PaidAt, p.Notes,
		).Scan(&p.ID, &p.CreatedAt)
		return mapErr(err, "payment")
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID int64) (decimal.Decimal, []domain.Payment, error) {
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, `SELECT total FROM orders WHERE id = $1`, orderID).Scan(&total); err != nil {
		return decimal.Zero, nil, mapErr(err, fmt.Sprintf("order %d", orderID))
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, amount, method, installment, paid_at, notes, created_at
		FROM payments WHERE order_id = $1 ORDER BY paid_at, id`, orderID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("list payments of order %d: %w", orderID, err)
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Installment, &p.PaidAt,
			&p.Notes, &p.CreatedAt); err != nil {
			return decimal.Zero, nil, err
		}
		out = append(out, p)
	}
	return total, out, rows.Err()
}
