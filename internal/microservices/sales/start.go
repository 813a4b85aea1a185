package sales

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/handlers"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"
)

// NewHandler assembles repository, service and routes of the order service.
func NewHandler(cfg config.HTTPConfig, db *pgxpool.Pool, pub service.EventPublisher, log *logger.Logger) http.Handler {
	repo := repository.New(db)
	svc := service.New(*repo, pub, log)
	mux := handlers.Router(handlers.New(svc))
	return httpx.LimitConcurrency(cfg.MaxConcurrent, httpx.RequestLog(log, mux))
}

// Run serves the order service until ctx is canceled.
func Run(ctx context.Context, cfg config.HTTPConfig, db *pgxpool.Pool, pub service.EventPublisher, log *logger.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info("service_started", map[string]any{"addr": addr, "max_concurrent": cfg.MaxConcurrent})
	err := httpx.New(addr, NewHandler(cfg, db, pub, log)).Run(ctx)
	log.Info("service_stopped", map[string]any{"addr": addr})
	return err
}
