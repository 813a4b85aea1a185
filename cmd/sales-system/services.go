package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/database"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/notificator"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/packager"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/syncserver"
)

var orderServiceCmd = &cobra.Command{
	Use:   "order-service",
	Short: "Serve the REST API for customers, products, orders, loads and routes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("order-service")
		defer log.Sync()

		db, err := connectDB(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		pub, closePub, err := optionalPublisher(cfg, "order-service", log)
		if err != nil {
			return err
		}
		defer closePub()

		return sales.Run(cmd.Context(), cfg.HTTP, db, pub, log)
	},
}

var syncServerCmd = &cobra.Command{
	Use:   "sync-server",
	Short: "Serve the LAN sync API and answer device discovery probes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("sync-server")
		defer log.Sync()

		db, err := connectDB(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		pub, closePub, err := optionalPublisher(cfg, "sync-server", log)
		if err != nil {
			return err
		}
		defer closePub()

		return syncserver.Run(cmd.Context(), cfg.Sync, db, pub, version, log)
	},
}

var packageWorkerCmd = &cobra.Command{
	Use:   "package-worker",
	Short: "Rebuild sales rep data packages from change events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateRabbitMQ(); err != nil {
			return err
		}
		log := logger.New("package-worker")
		defer log.Sync()

		db, err := connectDB(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		client, err := rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("rabbitmq connect: %w", err)
		}
		defer client.Close()
		log.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "vhost": cfg.RabbitMQ.VHost})

		return packager.Run(cmd.Context(), cfg, db, client, log)
	},
}

var notificatorCmd = &cobra.Command{
	Use:   "notificator",
	Short: "Follow sales events on the message bus",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateRabbitMQ(); err != nil {
			return err
		}
		log := logger.New("notificator")
		defer log.Sync()

		client, err := rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("rabbitmq connect: %w", err)
		}
		defer client.Close()

		keys, _ := cmd.Flags().GetStringSlice("events")
		return notificator.Run(cmd.Context(), client, keys, nil, log)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("migrate")
		defer log.Sync()

		db, err := connectDB(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			log.Error("migration_failed", err, nil)
			return err
		}
		log.Info("migration_done", nil)
		return nil
	},
}

func init() {
	orderServiceCmd.Flags().Int("port", 0, "HTTP port")
	orderServiceCmd.Flags().Int("max-concurrent", 0, "maximum requests served at once, 0 for no limit")
	_ = viper.BindPFlag("http.port", orderServiceCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("http.max_concurrent", orderServiceCmd.Flags().Lookup("max-concurrent"))

	syncServerCmd.Flags().Int("port", 0, "HTTP port of the sync API")
	syncServerCmd.Flags().Int("discovery-port", 0, "UDP port answering discovery probes")
	syncServerCmd.Flags().String("name", "", "server name announced to devices")
	_ = viper.BindPFlag("sync.port", syncServerCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("sync.discovery_port", syncServerCmd.Flags().Lookup("discovery-port"))
	syncServerCmd.Flags().Bool("rebuild-on-pull", false, "rebuild a rep's package on every pull, for setups without a package worker")
	_ = viper.BindPFlag("sync.server_name", syncServerCmd.Flags().Lookup("name"))
	_ = viper.BindPFlag("sync.rebuild_on_pull", syncServerCmd.Flags().Lookup("rebuild-on-pull"))

	packageWorkerCmd.Flags().String("worker-name", "", "unique worker name")
	packageWorkerCmd.Flags().Int("heartbeat-interval", 0, "heartbeat interval in seconds")
	packageWorkerCmd.Flags().Int("prefetch", 0, "RabbitMQ prefetch")
	_ = viper.BindPFlag("worker.name", packageWorkerCmd.Flags().Lookup("worker-name"))
	_ = viper.BindPFlag("worker.heartbeat_interval", packageWorkerCmd.Flags().Lookup("heartbeat-interval"))
	_ = viper.BindPFlag("worker.prefetch", packageWorkerCmd.Flags().Lookup("prefetch"))

	notificatorCmd.Flags().StringSlice("events", nil, "routing keys to follow, e.g. orders.#; all events when empty")
}

func connectDB(ctx context.Context, cfg config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error("db_connection_failed", err, nil)
		return nil, err
	}
	log.Info("db_connected", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Database})
	return db, nil
}

// optionalPublisher dials RabbitMQ when it is configured. Without it the
// services still work and the sync server rebuilds packages on every pull.
func optionalPublisher(cfg config.Config, source string, log *logger.Logger) (service.EventPublisher, func(), error) {
	if cfg.RabbitMQ.Host == "" {
		log.Warn("events_disabled", map[string]any{"reason": "rabbitmq host not configured"})
		return nil, func() {}, nil
	}
	if err := cfg.ValidateRabbitMQ(); err != nil {
		return nil, nil, err
	}
	client, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	if err := rabbitmq.DeclareTopology(client.Channel()); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("declare topology: %w", err)
	}
	log.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "vhost": cfg.RabbitMQ.VHost})
	return rabbitmq.NewEventPublisher(client, source), client.Close, nil
}
