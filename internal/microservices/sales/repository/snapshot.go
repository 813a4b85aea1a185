package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

// Snapshot reads the data that goes into a sales rep package. It implements
// syncpkg.Source.
type Snapshot struct {
	db *pgxpool.Pool
}

func NewSnapshot(db *pgxpool.Pool) *Snapshot {
	return &Snapshot{db: db}
}

func (s *Snapshot) SalesRep(ctx context.Context, id int64) (domain.SalesRep, error) {
	r, err := scanSalesRep(s.db.QueryRow(ctx, `SELECT `+salesRepColumns+` FROM sales_reps WHERE id=$1`, id))
	return r, mapErr(err, fmt.Sprintf("sales rep %d", id))
}

// SalesRepByCode finds a rep by its code, case sensitive.
func (s *Snapshot) SalesRepByCode(ctx context.Context, code string) (domain.SalesRep, error) {
	r, err := scanSalesRep(s.db.QueryRow(ctx, `SELECT `+salesRepColumns+` FROM sales_reps WHERE code=$1`, code))
	return r, mapErr(err, "sales rep "+code)
}

func (s *Snapshot) ActiveSalesReps(ctx context.Context) ([]domain.SalesRep, error) {
	rows, err := s.db.Query(ctx, `SELECT `+salesRepColumns+` FROM sales_reps WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active sales reps: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SalesRep, error) {
		return scanSalesRep(row)
	})
}

// Customers are the active customers of the rep plus the ones with no rep.
func (s *Snapshot) Customers(ctx context.Context, salesRepID int64) ([]domain.Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE active AND (sales_rep_id = $1 OR sales_rep_id IS NULL)
		ORDER BY name, id`, salesRepID)
	if err != nil {
		return nil, fmt.Errorf("snapshot customers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Customer, error) {
		return scanCustomer(row)
	})
}

func (s *Snapshot) Products(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE active ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("snapshot products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		return scanProduct(row)
	})
}

func (s *Snapshot) PaymentTables(ctx context.Context) ([]paymentplan.Table, error) {
	rows, err := s.db.Query(ctx, `SELECT `+paymentTableColumns+` FROM payment_tables WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("snapshot payment tables: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (paymentplan.Table, error) {
		return ScanPaymentTable(row)
	})
}

func (s *Snapshot) Routes(ctx context.Context, salesRepID int64, from time.Time) ([]domain.Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+routeColumns+` FROM routes
		WHERE sales_rep_id = $1 AND route_date >= $2::date
		ORDER BY route_date, id`, salesRepID, from)
	if err != nil {
		return nil, fmt.Errorf("snapshot routes: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Route, error) {
		return scanRoute(row)
	})
	if err != nil {
		return nil, err
	}
	routes := &RouteRepository{db: s.db}
	for i := range out {
		if err := routes.loadStops(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Orders returns the rep's orders created since, with their items.
func (s *Snapshot) Orders(ctx context.Context, salesRepID int64, since time.Time) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx, orderSelect+`
		WHERE o.sales_rep_id = $1 AND o.created_at >= $2
		ORDER BY o.created_at, o.id`, salesRepID, since)
	if err != nil {
		return nil, fmt.Errorf("snapshot orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil || len(orders) == 0 {
		return orders, err
	}

	index := make(map[int64]int, len(orders))
	ids := make([]int64, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids[i] = o.ID
		orders[i].Items = []domain.OrderItem{}
	}
	items, err := s.db.Query(ctx, `
		SELECT id, order_id, product_id, product_code, product_name, unit, quantity, list_price,
		       unit_price, discount_percent, total, weight
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("snapshot order items: %w", err)
	}
	defer items.Close()
	for items.Next() {
		var it domain.OrderItem
		if err := items.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductCode, &it.ProductName,
			&it.Unit, &it.Quantity, &it.ListPrice, &it.UnitPrice, &it.DiscountPercent, &it.Total,
			&it.Weight); err != nil {
			return nil, err
		}
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, items.Err()
}
