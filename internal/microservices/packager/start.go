package packager

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/packager/service"
	sales "github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// Run consumes package rebuild events until ctx is canceled.
func Run(ctx context.Context, cfg config.Config, db *pgxpool.Pool, client *rabbitmq.Client, log *logger.Logger) error {
	builder := syncpkg.NewBuilder(sales.NewSnapshot(db), repository.NewPackagesPG(db), cfg.Sync.OrderWindow(), log)
	svc := service.NewPackagerService(repository.NewWorkersPG(db), builder,
		cfg.Worker.Name, cfg.Worker.Prefetch, cfg.Worker.Heartbeat(), log)

	ch, err := client.NewChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = svc.Run(ctx, ch)
	if err != nil {
		log.Error("worker_stopped", err, nil)
	}
	return err
}
