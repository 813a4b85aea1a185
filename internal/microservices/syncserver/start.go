package syncserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
	sales "github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/syncserver/discovery"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/syncserver/handler"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/syncserver/service"
	shared "github.com/rasganxd/vendas-fortes-sub005/internal/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// NewService wires the sync service on top of Postgres. Orders uploaded by
// devices go through the same order service as the REST API. Without an
// event publisher no package worker hears about changes, so every pull
// rebuilds the package itself.
func NewService(cfg config.SyncConfig, db *pgxpool.Pool, pub sales.EventPublisher, info service.Info, log *logger.Logger) service.SyncServiceInterface {
	snapshot := repository.NewSnapshot(db)
	builder := syncpkg.NewBuilder(snapshot, shared.NewPackagesPG(db), cfg.OrderWindow(), log)
	orders := sales.New(*repository.New(db), pub, log).OrderService
	rebuildOnPull := cfg.RebuildOnPull || pub == nil
	if rebuildOnPull {
		log.Info("rebuild_on_pull", map[string]any{"events": pub != nil})
	}
	return service.NewSyncService(shared.NewDevicesPG(db), snapshot, builder, orders, info, rebuildOnPull, log)
}

// staleAfter matches three missed heartbeats of a worker with the default
// interval.
const staleAfter = 90 * time.Second

// Run serves the sync API and answers discovery probes until ctx is canceled
// or one of them fails.
func Run(ctx context.Context, cfg config.SyncConfig, db *pgxpool.Pool, pub sales.EventPublisher, version string, log *logger.Logger) error {
	info := service.Info{ServerID: uuid.NewString(), Name: cfg.ServerName, Version: version}
	svc := NewService(cfg, db, pub, info, log)
	monitor := service.NewMonitorService(shared.NewDevicesPG(db), shared.NewWorkersPG(db), staleAfter)
	h := httpx.RequestLog(log, handler.Router(handler.NewSyncHandler(svc), handler.NewMonitorHandler(monitor)))

	resp, err := discovery.Listen(fmt.Sprintf(":%d", cfg.DiscoveryPort), syncpkg.Announcement{
		ServerID: info.ServerID,
		Name:     info.Name,
		HTTPPort: cfg.Port,
		Version:  info.Version,
	}, log)
	if err != nil {
		return fmt.Errorf("discovery listen: %w", err)
	}

	return serve(ctx, fmt.Sprintf(":%d", cfg.Port), h, resp, log)
}

func serve(ctx context.Context, addr string, h http.Handler, resp *discovery.Responder, log *logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("discovery_started", map[string]any{"addr": resp.Addr().String()})
		return resp.Serve(gctx)
	})
	g.Go(func() error {
		log.Info("service_started", map[string]any{"addr": addr})
		return httpx.New(addr, h).Run(gctx)
	})
	err := g.Wait()
	log.Info("service_stopped", map[string]any{"addr": addr})
	return err
}
