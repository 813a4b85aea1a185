package notificator

import (
	"context"
	"fmt"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/notificator/service"
)

// Run prints the sales events matching keys until ctx is canceled.
func Run(ctx context.Context, client *rabbitmq.Client, keys []string, sink service.Sink, log *logger.Logger) error {
	ch, err := client.NewChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	return service.NewNotificatorService(keys, sink, log).Notify(ctx, ch)
}
