package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

type Repository struct {
	CustomerRepo     CustomerRepositoryInterface
	ProductRepo      ProductRepositoryInterface
	SalesRepRepo     SalesRepRepositoryInterface
	PaymentTableRepo PaymentTableRepositoryInterface
	OrderRepo        OrderRepositoryInterface
	PaymentRepo      PaymentRepositoryInterface
	LoadRepo         LoadRepositoryInterface
	RouteRepo        RouteRepositoryInterface
}

func New(db *pgxpool.Pool) *Repository {
	return &Repository{
		CustomerRepo:     NewCustomerRepository(db),
		ProductRepo:      NewProductRepository(db),
		SalesRepRepo:     NewSalesRepRepository(db),
		PaymentTableRepo: NewPaymentTableRepository(db),
		OrderRepo:        NewOrderRepository(db),
		PaymentRepo:      NewPaymentRepository(db),
		LoadRepo:         NewLoadRepository(db),
		RouteRepo:        NewRouteRepository(db),
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// mapErr translates driver errors into domain errors.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundf("%s", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s already exists (%s)", domain.ErrConflict, what, pgErr.ConstraintName)
		case "23503":
			return domain.Invalidf("%s references a missing record (%s)", what, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// withTx runs fn in a transaction, committing when it returns nil.
func withTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// pageClause renders LIMIT/OFFSET placeholders starting at n.
func pageClause(n int) string {
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n, n+1)
}
