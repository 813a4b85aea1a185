package config

// Overrides is the subset of viper used to layer flags and SALES_*
// environment variables over the file.
type Overrides interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
}

// ApplyOverrides copies every key set in o into c.
func (c *Config) ApplyOverrides(o Overrides) {
	str := func(key string, dst *string) {
		if o.IsSet(key) {
			*dst = o.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if o.IsSet(key) {
			*dst = o.GetInt(key)
		}
	}

	str("database.host", &c.Database.Host)
	num("database.port", &c.Database.Port)
	str("database.user", &c.Database.User)
	str("database.password", &c.Database.Password)
	str("database.database", &c.Database.Database)
	str("database.sslmode", &c.Database.SSLMode)
	num("database.max_conns", &c.Database.MaxConns)

	str("rabbitmq.host", &c.RabbitMQ.Host)
	num("rabbitmq.port", &c.RabbitMQ.Port)
	str("rabbitmq.user", &c.RabbitMQ.User)
	str("rabbitmq.password", &c.RabbitMQ.Password)
	str("rabbitmq.vhost", &c.RabbitMQ.VHost)
	if o.IsSet("rabbitmq.tls") {
		c.RabbitMQ.UseTLS = o.GetBool("rabbitmq.tls")
	}

	num("http.port", &c.HTTP.Port)
	num("http.max_concurrent", &c.HTTP.MaxConcurrent)

	num("sync.port", &c.Sync.Port)
	num("sync.discovery_port", &c.Sync.DiscoveryPort)
	str("sync.server_name", &c.Sync.ServerName)
	num("sync.order_window_days", &c.Sync.OrderWindowDays)
	if o.IsSet("sync.rebuild_on_pull") {
		c.Sync.RebuildOnPull = o.GetBool("sync.rebuild_on_pull")
	}

	str("worker.name", &c.Worker.Name)
	num("worker.heartbeat_interval", &c.Worker.HeartbeatInterval)
	num("worker.prefetch", &c.Worker.Prefetch)

	str("mobile.store_path", &c.Mobile.StorePath)
	str("mobile.server_url", &c.Mobile.ServerURL)
	str("mobile.device_name", &c.Mobile.DeviceName)
	num("mobile.sync_interval", &c.Mobile.SyncInterval)

	str("log.level", &c.Log.Level)
}
