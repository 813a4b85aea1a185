package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// PackagesPG stores versioned sales rep packages as JSONB. It implements
// syncpkg.Store.
type PackagesPG struct {
	db *pgxpool.Pool
}

func NewPackagesPG(db *pgxpool.Pool) *PackagesPG {
	return &PackagesPG{db: db}
}

func (r *PackagesPG) Latest(ctx context.Context, salesRepID int64) (syncpkg.Package, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT payload FROM sync_packages
		WHERE sales_rep_id = $1
		ORDER BY version DESC LIMIT 1`, salesRepID).Scan(&raw)
	if err != nil {
		return syncpkg.Package{}, notFound(err, fmt.Sprintf("package of sales rep %d", salesRepID))
	}
	var p syncpkg.Package
	if err := json.Unmarshal(raw, &p); err != nil {
		return syncpkg.Package{}, fmt.Errorf("decode package of sales rep %d: %w", salesRepID, err)
	}
	return p, nil
}

// LatestVersion returns the newest version number, 0 when there is none.
func (r *PackagesPG) LatestVersion(ctx context.Context, salesRepID int64) (int64, error) {
	var v int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM sync_packages WHERE sales_rep_id = $1`, salesRepID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("latest package version of sales rep %d: %w", salesRepID, err)
	}
	return v, nil
}

func (r *PackagesPG) Save(ctx context.Context, p syncpkg.Package) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode package: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO sync_packages (sales_rep_id, version, checksum, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.SalesRep.ID, p.Version, p.Checksum, payload, p.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert package v%d: %w", p.Version, err)
	}
	return nil
}

// Prune keeps the newest keep versions of a rep's package.
func (r *PackagesPG) Prune(ctx context.Context, salesRepID int64, keep int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM sync_packages
		WHERE sales_rep_id = $1 AND version <= (
		    SELECT COALESCE(MAX(version), 0) - $2 FROM sync_packages WHERE sales_rep_id = $1
		)`, salesRepID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune packages of sales rep %d: %w", salesRepID, err)
	}
	return tag.RowsAffected(), nil
}
