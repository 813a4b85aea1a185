package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

type CustomerRepositoryInterface interface {
	Create(ctx context.Context, c domain.Customer) (domain.Customer, error)
	Get(ctx context.Context, id int64) (domain.Customer, error)
	List(ctx context.Context, f domain.CustomerFilter) ([]domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (domain.Customer, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) CustomerRepositoryInterface {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, code, name, trade_name, document, phone, email, address, city, state,
	zip_code, sales_rep_id, credit_limit, notes, active, created_at, updated_at`

func scanCustomer(row pgx.Row) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.TradeName, &c.Document, &c.Phone, &c.Email,
		&c.Address, &c.City, &c.State, &c.ZipCode, &c.SalesRepID, &c.CreditLimit, &c.Notes,
		&c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CustomerRepository) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO customers
		    (code, name, trade_name, document, phone, email, address, city, state, zip_code,
		     sales_rep_id, credit_limit, notes, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING `+customerColumns,
		c.Code, c.Name, c.TradeName, c.Document, c.Phone, c.Email, c.Address, c.City, c.State,
		c.ZipCode, c.SalesRepID, c.CreditLimit, c.Notes, c.Active)
	out, err := scanCustomer(row)
	return out, mapErr(err, "customer "+c.Code)
}

func (r *CustomerRepository) Get(ctx context.Context, id int64) (domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
	return c, mapErr(err, fmt.Sprintf("customer %d", id))
}

func (r *CustomerRepository) List(ctx context.Context, f domain.CustomerFilter) ([]domain.Customer, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR trade_name ILIKE $%d OR code ILIKE $%d OR document ILIKE $%d)", n, n, n, n))
	}
	if f.SalesRepID != nil {
		args = append(args, *f.SalesRepID)
		where = append(where, fmt.Sprintf("sales_rep_id = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}

	q := `SELECT ` + customerColumns + ` FROM customers`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.Normalize()
	q += " ORDER BY name, id" + pageClause(len(args)+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE customers SET
		    code=$2, name=$3, trade_name=$4, document=$5, phone=$6, email=$7, address=$8,
		    city=$9, state=$10, zip_code=$11, sales_rep_id=$12, credit_limit=$13, notes=$14,
		    active=$15, updated_at=now()
		WHERE id=$1
		RETURNING `+customerColumns,
		c.ID, c.Code, c.Name, c.TradeName, c.Document, c.Phone, c.Email, c.Address, c.City,
		c.State, c.ZipCode, c.SalesRepID, c.CreditLimit, c.Notes, c.Active)
	out, err := scanCustomer(row)
	return out, mapErr(err, fmt.Sprintf("customer %d", c.ID))
}

func (r *CustomerRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return fmt.Errorf("update customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("customer %d", id)
	}
	return nil
}
