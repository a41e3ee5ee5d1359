// Package config provides configuration loading, defaults, and validation.
package config

import (
	"fmt"

	"github.com/turtacn/patreg-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	httpiface "github.com/turtacn/patreg-insight/internal/interfaces/http"
)

// IngestionConfig holds the batch-load settings.
type IngestionConfig struct {
	// ChunkSize bounds the number of rows decoded and persisted as one unit.
	ChunkSize int `mapstructure:"chunk_size"`

	// PostalCodesPath locates the postal-code reference table. Empty disables
	// region/city enrichment.
	PostalCodesPath string `mapstructure:"postal_codes_path"`
}

// CacheConfig holds the response-cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// Config is the root configuration structure. Every component reads its
// settings from the relevant sub-struct.
type Config struct {
	Server    httpiface.ServerConfig `mapstructure:"server"`
	Database  postgres.Config        `mapstructure:"database"`
	Redis     redis.Config           `mapstructure:"redis"`
	Cache     CacheConfig            `mapstructure:"cache"`
	Log       logging.Config         `mapstructure:"log"`
	Ingestion IngestionConfig        `mapstructure:"ingestion"`
}

// Validate performs semantic validation of the fully-populated Config. Any
// error is fatal; the application refuses to start on invalid configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.Username == "" {
		return fmt.Errorf("config: database.username is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("config: database.database is required")
	}

	if c.Cache.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when the cache is enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Ingestion.ChunkSize < 1 {
		return fmt.Errorf("config: ingestion.chunk_size must be >= 1, got %d", c.Ingestion.ChunkSize)
	}
	return nil
}
