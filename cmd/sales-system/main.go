package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "sales-system",
	Short:         "Sales force and distribution services",
	Long:          "Order service, LAN sync server, package worker and the sales rep device client in one binary.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	viper.SetEnvPrefix("SALES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "config.yaml", "path to the YAML config file")
	pf.String("log-level", "", "debug, info, warn or error")
	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))

	pf.String("db-host", "", "Postgres host")
	pf.Int("db-port", 0, "Postgres port")
	pf.String("db-user", "", "Postgres user")
	pf.String("db-password", "", "Postgres password")
	pf.String("db-name", "", "Postgres database")
	_ = viper.BindPFlag("database.host", pf.Lookup("db-host"))
	_ = viper.BindPFlag("database.port", pf.Lookup("db-port"))
	_ = viper.BindPFlag("database.user", pf.Lookup("db-user"))
	_ = viper.BindPFlag("database.password", pf.Lookup("db-password"))
	_ = viper.BindPFlag("database.database", pf.Lookup("db-name"))

	pf.String("rabbitmq-host", "", "RabbitMQ host, empty disables event publishing where optional")
	pf.Int("rabbitmq-port", 0, "RabbitMQ port")
	pf.String("rabbitmq-user", "", "RabbitMQ user")
	pf.String("rabbitmq-password", "", "RabbitMQ password")
	_ = viper.BindPFlag("rabbitmq.host", pf.Lookup("rabbitmq-host"))
	_ = viper.BindPFlag("rabbitmq.port", pf.Lookup("rabbitmq-port"))
	_ = viper.BindPFlag("rabbitmq.user", pf.Lookup("rabbitmq-user"))
	_ = viper.BindPFlag("rabbitmq.password", pf.Lookup("rabbitmq-password"))

	rootCmd.AddCommand(orderServiceCmd, syncServerCmd, packageWorkerCmd, notificatorCmd, migrateCmd, mobileCmd)
}

// loadConfig reads the file named by --config and layers flags and SALES_*
// variables on top of it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return config.Config{}, err
	}
	cfg.ApplyOverrides(viper.GetViper())
	logger.SetLevel(cfg.Log.Level)
	return cfg, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}
