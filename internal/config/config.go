// Package config loads recordsync settings from defaults, an optional YAML
// file, RECORDSYNC_ environment variables and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/roach88/recordsync/internal/schema"
)

// Defaults.
const (
	DefaultConfigFile = "recordsync.yaml"
	DefaultScope      = "private"
	DefaultWorkers    = 4
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
)

// EnvPrefix prefixes every environment override, e.g. RECORDSYNC_WORKERS.
const EnvPrefix = "RECORDSYNC_"

// Config holds resolved settings.
type Config struct {
	// Scope overrides every type's declared scope when set.
	Scope string `koanf:"scope"`

	// Workers bounds concurrent projections.
	Workers int `koanf:"workers"`

	// Database is the outbox path. Empty disables the outbox.
	Database string `koanf:"database"`

	// MetricsFile receives Prometheus text exposition after a run. Empty disables it.
	MetricsFile string `koanf:"metrics_file"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// FileUsed is the config file that was read, if any.
	FileUsed string `koanf:"-"`
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// cfgFile names an explicit config file that must exist. When empty,
// recordsync.yaml in the working directory is read if present.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"scope":        "",
		"workers":      DefaultWorkers,
		"database":     "",
		"metrics_file": "",
		"log_level":    DefaultLogLevel,
		"log_format":   DefaultLogFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			used = DefaultConfigFile
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Load environment variables
	// Transform: RECORDSYNC_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Scope != "" {
		if _, err := schema.ParseScope(c.Scope); err != nil {
			return fmt.Errorf("scope: %w", err)
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ScopeOverride returns the configured scope, or nil when each type's
// declared scope applies.
func (c *Config) ScopeOverride() *schema.Scope {
	if c.Scope == "" {
		return nil
	}
	s, err := schema.ParseScope(c.Scope)
	if err != nil {
		return nil
	}
	return &s
}

// ParseLevel resolves a log level name.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log_level: unknown level %q", name)
	}
	return level, nil
}
