package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

type PaymentTableRepositoryInterface interface {
	Create(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error)
	Get(ctx context.Context, id int64) (paymentplan.Table, error)
	List(ctx context.Context, activeOnly bool) ([]paymentplan.Table, error)
	Update(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error)
}

type PaymentTableRepository struct {
	db *pgxpool.Pool
}

func NewPaymentTableRepository(db *pgxpool.Pool) PaymentTableRepositoryInterface {
	return &PaymentTableRepository{db: db}
}

const paymentTableColumns = `id, name, description, terms, active, created_at, updated_at`

// ScanPaymentTable reads a payment_tables row; terms are stored as JSONB.
func ScanPaymentTable(row pgx.Row) (paymentplan.Table, error) {
	var (
		t   paymentplan.Table
		raw []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &raw, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return paymentplan.Table{}, err
	}
	if err := json.Unmarshal(raw, &t.Terms); err != nil {
		return paymentplan.Table{}, fmt.Errorf("decode terms of payment table %d: %w", t.ID, err)
	}
	return t, nil
}

func (r *PaymentTableRepository) Create(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error) {
	terms, err := json.Marshal(t.Terms)
	if err != nil {
		return paymentplan.Table{}, err
	}
	out, err := ScanPaymentTable(r.db.QueryRow(ctx, `
		INSERT INTO payment_tables (name, description, terms, active)
		VALUES ($1,$2,$3,$4)
		RETURNING `+paymentTableColumns, t.Name, t.Description, terms, t.Active))
	return out, mapErr(err, "payment table "+t.Name)
}

func (r *PaymentTableRepository) Get(ctx context.Context, id int64) (paymentplan.Table, error) {
	t, err := ScanPaymentTable(r.db.QueryRow(ctx, `SELECT `+paymentTableColumns+` FROM payment_tables WHERE id=$1`, id))
	return t, mapErr(err, fmt.Sprintf("payment table %d", id))
}

func (r *PaymentTableRepository) List(ctx context.Context, activeOnly bool) ([]paymentplan.Table, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentTableColumns+` FROM payment_tables
		WHERE (NOT $1 OR active) ORDER BY name`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list payment tables: %w", err)
	}
	defer rows.Close()

	out := []paymentplan.Table{}
	for rows.Next() {
		t, err := ScanPaymentTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PaymentTableRepository) Update(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error) {
	terms, err := json.Marshal(t.Terms)
	if err != nil {
		return paymentplan.Table{}, err
	}
	out, err := ScanPaymentTable(r.db.QueryRow(ctx, `
		UPDATE payment_tables SET name=$2, description=$3, terms=$4, active=$5, updated_at=now()
		WHERE id=$1
		RETURNING `+paymentTableColumns, t.ID, t.Name, t.Description, terms, t.Active))
	return out, mapErr(err, fmt.Sprintf("payment table %d", t.ID))
}
