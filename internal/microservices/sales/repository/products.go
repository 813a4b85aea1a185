package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

type ProductRepositoryInterface interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepositoryInterface {
	return &ProductRepository{db: db}
}

const productColumns = `id, code, name, description, category, unit, sub_unit, sub_unit_ratio, price,
	cost, min_price, max_discount_percent, weight, stock, active, created_at, updated_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Category, &p.Unit, &p.SubUnit,
		&p.SubUnitRatio, &p.Price, &p.Cost, &p.MinPrice, &p.MaxDiscountPercent, &p.Weight,
		&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO products
		    (code, name, description, category, unit, sub_unit, sub_unit_ratio, price, cost,
		     min_price, max_discount_percent, weight, stock, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING `+productColumns,
		p.Code, p.Name, p.Description, p.Category, p.Unit, p.SubUnit, p.SubUnitRatio, p.Price,
		p.Cost, p.MinPrice, p.MaxDiscountPercent, p.Weight, p.Stock, p.Active)
	out, err := scanProduct(row)
	return out, mapErr(err, "product "+p.Code)
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	return p, mapErr(err, fmt.Sprintf("product %d", id))
}

func (r *ProductRepository) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", n, n))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.Normalize()
	q += " ORDER BY name, id" + pageClause(len(args)+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products SET
		    code=$2, name=$3, description=$4, category=$5, unit=$6, sub_unit=$7,
		    sub_unit_ratio=$8, price=$9, cost=$10, min_price=$11, max_discount_percent=$12,
		    weight=$13, stock=$14, active=$15, updated_at=now()
		WHERE id=$1
		RETURNING `+productColumns,
		p.ID, p.Code, p.Name, p.Description, p.Category, p.Unit, p.SubUnit, p.SubUnitRatio,
		p.Price, p.Cost, p.MinPrice, p.MaxDiscountPercent, p.Weight, p.Stock, p.Active)
	out, err := scanProduct(row)
	return out, mapErr(err, fmt.Sprintf("product %d", p.ID))
}

func (r *ProductRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("product %d", id)
	}
	return nil
}
