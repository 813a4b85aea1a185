package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
	"github.com/rasganxd/vendas-fortes-sub005/internal/editguard"
	"github.com/rasganxd/vendas-fortes-sub005/internal/mobile"
)

var mobileCmd = &cobra.Command{
	Use:   "mobile",
	Short: "Sales rep device client",
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Look for sync servers on the local network",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		wait, _ := cmd.Flags().GetDuration("wait")
		found, err := mobile.Discover(cmd.Context(), discoveryTarget(cmd, cfg), "", wait)
		if err != nil {
			return err
		}
		out := make([]map[string]any, 0, len(found))
		for _, a := range found {
			out = append(out, map[string]any{"server_id": a.ServerID, "name": a.Name, "version": a.Version, "url": a.BaseURL()})
		}
		return printJSON(out)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register SALES_REP_CODE",
	Short: "Register this device with a sync server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := mobile.OpenStore(cmd.Context(), cfg.Mobile.StorePath)
		if err != nil {
			return err
		}
		defer store.Close()

		url := cfg.Mobile.ServerURL
		if url == "" {
			wait, _ := cmd.Flags().GetDuration("wait")
			found, err := mobile.Discover(cmd.Context(), discoveryTarget(cmd, cfg), "", wait)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return errors.New("no sync server answered, pass --server")
			}
			url = found[0].BaseURL()
		}
		resp, err := mobile.Enroll(cmd.Context(), store, mobile.NewClient(url, ""), args[0], cfg.Mobile.DeviceName)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"device_id": resp.DeviceID, "sales_rep": resp.SalesRep.Code, "server": url})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload pending orders and download the data package",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("mobile")
		defer log.Sync()

		store, err := mobile.OpenStore(cmd.Context(), cfg.Mobile.StorePath)
		if err != nil {
			return err
		}
		defer store.Close()

		url, err := store.Meta(cmd.Context(), mobile.MetaServerURL)
		if err != nil {
			return err
		}
		token, err := store.Meta(cmd.Context(), mobile.MetaToken)
		if err != nil {
			return err
		}
		if url == "" || token == "" {
			return errors.New("device not registered, run mobile register first")
		}

		s := mobile.NewSession(store, mobile.NewClient(url, token), editguard.New(), log)
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			log.Info("auto_sync_started", map[string]any{"every": cfg.Mobile.Interval().String()})
			s.AutoSync(cmd.Context(), cfg.Mobile.Interval())
			return nil
		}
		res, err := s.Sync(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List the orders kept on this device",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := mobile.OpenStore(cmd.Context(), cfg.Mobile.StorePath)
		if err != nil {
			return err
		}
		defer store.Close()
		orders, err := store.Orders(cmd.Context(), "")
		if err != nil {
			return err
		}
		return printJSON(orders)
	},
}

func init() {
	mobileCmd.PersistentFlags().String("store", "", "path of the device database")
	mobileCmd.PersistentFlags().String("server", "", "sync server URL, discovered when empty")
	mobileCmd.PersistentFlags().Duration("wait", 2*time.Second, "how long to wait for discovery answers")
	mobileCmd.PersistentFlags().String("target", "", "discovery address, defaults to the broadcast address")
	_ = viper.BindPFlag("mobile.store_path", mobileCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("mobile.server_url", mobileCmd.PersistentFlags().Lookup("server"))

	registerCmd.Flags().String("device-name", "", "name shown on the server")
	_ = viper.BindPFlag("mobile.device_name", registerCmd.Flags().Lookup("device-name"))

	syncCmd.Flags().Bool("watch", false, "keep syncing every mobile.sync_interval seconds")
	syncCmd.Flags().Int("interval", 0, "seconds between syncs with --watch")
	_ = viper.BindPFlag("mobile.sync_interval", syncCmd.Flags().Lookup("interval"))

	mobileCmd.AddCommand(discoverCmd, registerCmd, syncCmd, ordersCmd)
}

func discoveryTarget(cmd *cobra.Command, cfg config.Config) string {
	if t, _ := cmd.Flags().GetString("target"); t != "" {
		return t
	}
	return net.JoinHostPort("255.255.255.255", strconv.Itoa(cfg.Sync.DiscoveryPort))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
