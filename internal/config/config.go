// Package config provides configuration types, defaults, loading, and
// persistence for the catalog CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CATALOG_DATABASE_PATH.
const EnvPrefix = "CATALOG"

// Config holds all catalog configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// DatabaseConfig selects the SQLite file and driver.
type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Driver      string        `mapstructure:"driver"` // "ncruces" or "modernc"
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// LogConfig configures the debug log file.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Level   string `mapstructure:"level"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "none", "file", "stdout", "otlp"
	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name"`
}

// CacheConfig configures the category listing cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // 0 disables caching
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Path:        "catalog.sqlite",
			Driver:      "ncruces",
			BusyTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Enabled: false,
			Path:    "catalog.log",
			Level:   "info",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // required when enabled with the file exporter
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "catalog",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}

// SetDefaults registers every default with v so that environment
// variables are picked up for all keys.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.busy_timeout", d.Database.BusyTimeout)
	v.SetDefault("log.enabled", d.Log.Enabled)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Load reads configFile (if set and present) on top of the defaults and
// CATALOG_* environment overrides, then validates the result. A missing
// configFile is not an error.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateDatabase(c.Database); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", c.Cache.TTL)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	return nil
}

// ValidateDatabase checks database configuration for errors.
func ValidateDatabase(db DatabaseConfig) error {
	if strings.TrimSpace(db.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	switch db.Driver {
	case "", "ncruces", "modernc":
	default:
		return fmt.Errorf("database.driver must be \"ncruces\" or \"modernc\", got %q", db.Driver)
	}
	if db.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative, got %v", db.BusyTimeout)
	}
	return nil
}

// ValidateLog checks log configuration for errors.
func ValidateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", l.Level)
	}
	if l.Enabled && l.Path == "" {
		return fmt.Errorf("log.path is required when logging is enabled")
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only matter when tracing is on.
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Catalog Configuration

database:
  path: catalog.sqlite     # SQLite file, created with its directory on first use
  driver: ncruces          # "ncruces" (default) or "modernc"
  busy_timeout: 5s

log:
  enabled: false
  path: catalog.log
  level: info              # debug, info, warn, error

# Category listing cache; 0 disables it
cache:
  ttl: 10m

# Debounce for "catalog watch"
watch:
  debounce: 100ms

# Tracing (OpenTelemetry)
# tracing:
#   enabled: true
#   exporter: file         # none, file, stdout, otlp
#   file_path: traces/catalog.jsonl
#   sample_rate: 1.0
#
# Example: send traces to a collector via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: collector.internal:4317
#   sample_rate: 0.1
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
