package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "PATREG"

// newViper builds a pre-configured Viper instance: YAML file type, PATREG_
// env prefix, automatic env binding, and a key replacer that maps "." → "_"
// so that nested keys like "database.host" resolve to "PATREG_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the YAML file at configPath, merges any PATREG_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result. It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PATREG_* environment variables,
// with no config file required. This is the preferred loading strategy for
// containerised deployments.
//
// Environment variable naming convention:
//
//	PATREG_<SECTION>_<FIELD>   e.g.  PATREG_DATABASE_HOST, PATREG_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// Without a config file viper has no key registry, so AutomaticEnv alone
	// is not enough for Unmarshal to see the variables. Bind each known key.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: failed to bind env for %q: %w", key, err)
		}
	}
	return unmarshalAndFinalize(v)
}

// configKeys lists every leaf key of Config in viper notation.
var configKeys = []string{
	"server.host",
	"server.port",
	"server.read_timeout",
	"server.write_timeout",
	"server.idle_timeout",
	"server.shutdown_timeout",
	"database.host",
	"database.port",
	"database.database",
	"database.username",
	"database.password",
	"database.ssl_mode",
	"database.max_conns",
	"database.min_conns",
	"database.conn_max_lifetime",
	"database.conn_max_idle_time",
	"redis.addr",
	"redis.username",
	"redis.password",
	"redis.db",
	"redis.pool_size",
	"redis.min_idle_conns",
	"redis.dial_timeout",
	"redis.read_timeout",
	"redis.write_timeout",
	"cache.enabled",
	"cache.prefix",
	"log.level",
	"log.format",
	"log.output_paths",
	"ingestion.chunk_size",
	"ingestion.postal_codes_path",
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk. It is intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here, callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
