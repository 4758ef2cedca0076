// Package config loads the settings of a cascade application: the database
// to connect to, session defaults, logging, statement statistics and the
// schema file used by the code generator.
//
// Values are read, lowest precedence first, from built-in defaults, a YAML
// file (cascade.yaml), CASCADE_ environment variables and command-line
// flags. Nested keys are separated by a double underscore in variable names:
//
//	CASCADE_DATABASE__URL=postgres://localhost/shop
//	CASCADE_SESSION__CACHE_CAPACITY=5000
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/syssam/cascade/dialect"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Log      LogConfig      `koanf:"log"`
	Stats    StatsConfig    `koanf:"stats"`
	Schema   SchemaConfig   `koanf:"schema"`

	// File is the configuration file that was read, if any.
	File string `koanf:"-"`
}

// DatabaseConfig selects the database. URL takes precedence over Driver
// and DSN.
type DatabaseConfig struct {
	URL    string `koanf:"url"`
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// SessionConfig holds the session defaults.
type SessionConfig struct {
	Autocommit    bool `koanf:"autocommit"`
	CacheCapacity int  `koanf:"cache_capacity"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// StatsConfig enables statement statistics and slow statement logging.
type StatsConfig struct {
	Enabled       bool          `koanf:"enabled"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

// SchemaConfig locates the YAML schema and the generated entity package.
type SchemaConfig struct {
	File    string `koanf:"file"`
	Package string `koanf:"package"`
	Output  string `koanf:"output"`
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		switch c.Database.Driver {
		case dialect.SQLite, dialect.Postgres, dialect.MySQL:
		case "":
			return fmt.Errorf("config: database.url or database.driver is required")
		default:
			return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
		}
	}
	if c.Session.CacheCapacity < 0 {
		return fmt.Errorf("config: session.cache_capacity must not be negative, got %d", c.Session.CacheCapacity)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log.format %q", c.Log.Format)
	}
	if c.Stats.SlowThreshold < 0 {
		return fmt.Errorf("config: stats.slow_threshold must not be negative")
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
