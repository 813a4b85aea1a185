package syncpkg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

// Source reads the current state a package is assembled from.
type Source interface {
	SalesRep(ctx context.Context, id int64) (domain.SalesRep, error)
	ActiveSalesReps(ctx context.Context) ([]domain.SalesRep, error)
	Customers(ctx context.Context, salesRepID int64) ([]domain.Customer, error)
	Products(ctx context.Context) ([]domain.Product, error)
	PaymentTables(ctx context.Context) ([]paymentplan.Table, error)
	Routes(ctx context.Context, salesRepID int64, from time.Time) ([]domain.Route, error)
	Orders(ctx context.Context, salesRepID int64, since time.Time) ([]domain.Order, error)
}

// Store keeps versioned packages. Latest returns domain.ErrNotFound when a
// rep has no package yet.
type Store interface {
	Latest(ctx context.Context, salesRepID int64) (Package, error)
	Save(ctx context.Context, p Package) error
}

// Pruner is implemented by stores that drop old package versions, like
// repository.PackagesPG.
type Pruner interface {
	Prune(ctx context.Context, salesRepID int64, keep int) (int64, error)
}

// KeepVersions is how many package versions per rep survive a rebuild.
const KeepVersions = 5

type Builder struct {
	src    Source
	store  Store
	window time.Duration
	keep   int
	log    *logger.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewBuilder returns a builder that puts the orders of the last window into
// each package. When store is a Pruner, every new version drops all but the
// newest KeepVersions.
func NewBuilder(src Source, store Store, window time.Duration, log *logger.Logger) *Builder {
	return &Builder{
		src:    src,
		store:  store,
		window: window,
		keep:   KeepVersions,
		log:    log,
		now:    time.Now,
		locks:  map[int64]*sync.Mutex{},
	}
}

func (b *Builder) lock(salesRepID int64) func() {
	b.mu.Lock()
	l, ok := b.locks[salesRepID]
	if !ok {
		l = &sync.Mutex{}
		b.locks[salesRepID] = l
	}
	b.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Build assembles a fresh, unsaved package with its checksum set.
func (b *Builder) Build(ctx context.Context, salesRepID int64) (Package, error) {
	rep, err := b.src.SalesRep(ctx, salesRepID)
	if err != nil {
		return Package{}, err
	}
	if !rep.Active {
		return Package{}, domain.Invalidf("sales rep %s is inactive", rep.Code)
	}
	now := b.now().UTC()
	p := Package{Format: FormatVersion, SalesRep: rep, GeneratedAt: now}

	if p.Customers, err = b.src.Customers(ctx, salesRepID); err != nil {
		return Package{}, fmt.Errorf("package customers: %w", err)
	}
	if p.Products, err = b.src.Products(ctx); err != nil {
		return Package{}, fmt.Errorf("package products: %w", err)
	}
	if p.PaymentTables, err = b.src.PaymentTables(ctx); err != nil {
		return Package{}, fmt.Errorf("package payment tables: %w", err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if p.Routes, err = b.src.Routes(ctx, salesRepID, today); err != nil {
		return Package{}, fmt.Errorf("package routes: %w", err)
	}
	if p.Orders, err = b.src.Orders(ctx, salesRepID, now.Add(-b.window)); err != nil {
		return Package{}, fmt.Errorf("package orders: %w", err)
	}

	if p.Checksum, err = p.ComputeChecksum(); err != nil {
		return Package{}, fmt.Errorf("package checksum: %w", err)
	}
	return p, nil
}

// Rebuild builds the package of a rep and stores it as a new version when
// its content differs from the latest one.
func (b *Builder) Rebuild(ctx context.Context, salesRepID int64) (Package, bool, error) {
	defer b.lock(salesRepID)()

	p, err := b.Build(ctx, salesRepID)
	if err != nil {
		return Package{}, false, err
	}
	latest, err := b.store.Latest(ctx, salesRepID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p.Version = 1
	case err != nil:
		return Package{}, false, err
	case latest.Checksum == p.Checksum:
		return latest, false, nil
	default:
		p.Version = latest.Version + 1
	}
	if err := b.store.Save(ctx, p); err != nil {
		return Package{}, false, fmt.Errorf("save package v%d of rep %d: %w", p.Version, salesRepID, err)
	}
	b.prune(ctx, salesRepID)
	return p, true, nil
}

// prune failures are only logged: the new version is saved and the next one
// prunes again.
func (b *Builder) prune(ctx context.Context, salesRepID int64) {
	pr, ok := b.store.(Pruner)
	if !ok || b.keep <= 0 {
		return
	}
	n, err := pr.Prune(ctx, salesRepID, b.keep)
	if err != nil {
		b.log.Error("package_prune_failed", err, map[string]any{"sales_rep_id": salesRepID})
		return
	}
	if n > 0 {
		b.log.Debug("packages_pruned", map[string]any{"sales_rep_id": salesRepID, "removed": n})
	}
}

// RebuildAll rebuilds the packages of every active rep, a few at a time.
// It returns how many packages got a new version.
func (b *Builder) RebuildAll(ctx context.Context) (int, error) {
	reps, err := b.src.ActiveSalesReps(ctx)
	if err != nil {
		return 0, err
	}
	var (
		mu      sync.Mutex
		changed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, rep := range reps {
		g.Go(func() error {
			_, ok, err := b.Rebuild(gctx, rep.ID)
			if err != nil {
				return fmt.Errorf("rep %s: %w", rep.Code, err)
			}
			if ok {
				mu.Lock()
				changed++
				mu.Unlock()
			}
			return nil
		})
	}
	err = g.Wait()
	return changed, err
}

// Current returns the latest stored package, building the first one on
// demand. It does not look for changes; Rebuild does.
func (b *Builder) Current(ctx context.Context, salesRepID int64) (Package, error) {
	p, err := b.store.Latest(ctx, salesRepID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return Package{}, err
	}
	p, _, err = b.Rebuild(ctx, salesRepID)
	return p, err
}
