package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

type SalesRepRepositoryInterface interface {
	Create(ctx context.Context, r domain.SalesRep) (domain.SalesRep, error)
	Get(ctx context.Context, id int64) (domain.SalesRep, error)
	List(ctx context.Context, active *bool, page domain.Page) ([]domain.SalesRep, error)
	Update(ctx context.Context, r domain.SalesRep) (domain.SalesRep, error)
}

type SalesRepRepository struct {
	db *pgxpool.Pool
}

func NewSalesRepRepository(db *pgxpool.Pool) SalesRepRepositoryInterface {
	return &SalesRepRepository{db: db}
}

const salesRepColumns = `id, code, name, phone, email, active, created_at, updated_at`

func scanSalesRep(row pgx.Row) (domain.SalesRep, error) {
	var s domain.SalesRep
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Phone, &s.Email, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *SalesRepRepository) Create(ctx context.Context, s domain.SalesRep) (domain.SalesRep, error) {
	out, err := scanSalesRep(r.db.QueryRow(ctx, `
		INSERT INTO sales_reps (code, name, phone, email, active)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+salesRepColumns, s.Code, s.Name, s.Phone, s.Email, s.Active))
	return out, mapErr(err, "sales rep "+s.Code)
}

func (r *SalesRepRepository) Get(ctx context.Context, id int64) (domain.SalesRep, error) {
	s, err := scanSalesRep(r.db.QueryRow(ctx, `SELECT `+salesRepColumns+` FROM sales_reps WHERE id=$1`, id))
	return s, mapErr(err, fmt.Sprintf("sales rep %d", id))
}

func (r *SalesRepRepository) List(ctx context.Context, active *bool, page domain.Page) ([]domain.SalesRep, error) {
	page = page.Normalize()
	rows, err := r.db.Query(ctx, `
		SELECT `+salesRepColumns+` FROM sales_reps
		WHERE ($1::boolean IS NULL OR active = $1)
		ORDER BY name, id LIMIT $2 OFFSET $3`, active, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list sales reps: %w", err)
	}
	defer rows.Close()

	out := []domain.SalesRep{}
	for rows.Next() {
		s, err := scanSalesRep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SalesRepRepository) Update(ctx context.Context, s domain.SalesRep) (domain.SalesRep, error) {
	out, err := scanSalesRep(r.db.QueryRow(ctx, `
		UPDATE sales_reps SET code=$2, name=$3, phone=$4, email=$5, active=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+salesRepColumns, s.ID, s.Code, s.Name, s.Phone, s.Email, s.Active))
	return out, mapErr(err, fmt.Sprintf("sales rep %d", s.ID))
}
