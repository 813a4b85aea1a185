package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime parameter of the sales system. Each mode only
// validates the sections it uses.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sync     SyncConfig     `yaml:"sync"`
	Worker   WorkerConfig   `yaml:"worker"`
	Mobile   MobileConfig   `yaml:"mobile"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	UseTLS   bool   `yaml:"tls"`
}

type HTTPConfig struct {
	Port          int `yaml:"port"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

type SyncConfig struct {
	Port          int    `yaml:"port"`
	DiscoveryPort int    `yaml:"discovery_port"`
	ServerName    string `yaml:"server_name"`
	// OrderWindowDays bounds how far back a rep's orders go into a package.
	OrderWindowDays int `yaml:"order_window_days"`
	// RebuildOnPull rebuilds a rep's package on every pull. It is forced on
	// when no RabbitMQ is configured.
	RebuildOnPull bool `yaml:"rebuild_on_pull"`
}

type WorkerConfig struct {
	Name              string `yaml:"name"`
	HeartbeatInterval int    `yaml:"heartbeat_interval"` // seconds
	Prefetch          int    `yaml:"prefetch"`
}

type MobileConfig struct {
	StorePath    string `yaml:"store_path"`
	ServerURL    string `yaml:"server_url"`
	DeviceName   string `yaml:"device_name"`
	SyncInterval int    `yaml:"sync_interval"` // seconds
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with every optional value filled in.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable", MaxConns: 10},
		RabbitMQ: RabbitMQConfig{Port: 5672, VHost: "/"},
		HTTP:     HTTPConfig{Port: 3000, MaxConcurrent: 50},
		Sync:     SyncConfig{Port: 3100, DiscoveryPort: 41234, ServerName: "vendas-sync", OrderWindowDays: 30},
		Worker:   WorkerConfig{Name: "packager-1", HeartbeatInterval: 30, Prefetch: 1},
		Mobile:   MobileConfig{StorePath: "mobile.db", SyncInterval: 300},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults. A missing file is not an error:
// flags and environment may provide everything.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ValidateDatabase checks the database section.
func (c Config) ValidateDatabase() error {
	if c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "" {
		return errors.New("database config incomplete: host, user and database are required")
	}
	return nil
}

// ValidateRabbitMQ checks the rabbitmq section.
func (c Config) ValidateRabbitMQ() error {
	if c.RabbitMQ.Host == "" || c.RabbitMQ.User == "" {
		return errors.New("rabbitmq config incomplete: host and user are required")
	}
	return nil
}

func (w WorkerConfig) Heartbeat() time.Duration {
	if w.HeartbeatInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(w.HeartbeatInterval) * time.Second
}

func (s SyncConfig) OrderWindow() time.Duration {
	if s.OrderWindowDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(s.OrderWindowDays) * 24 * time.Hour
}

func (m MobileConfig) Interval() time.Duration {
	if m.SyncInterval <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(m.SyncInterval) * time.Second
}
