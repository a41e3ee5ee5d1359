package config

import "time"

// Default value constants.
const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultDBHost   = "localhost"
	DefaultDBPort   = 5432
	DefaultDBName   = "patreg"
	DefaultDBUser   = "patreg"
	DefaultSSLMode  = "disable"
	DefaultMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultCachePrefix = "patreg"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultChunkSize = 1000
)

// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = DefaultDBName
	}
	if cfg.Database.Username == "" {
		cfg.Database.Username = DefaultDBUser
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultMaxConns
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = DefaultCachePrefix
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Ingestion.ChunkSize == 0 {
		cfg.Ingestion.ChunkSize = DefaultChunkSize
	}
}
