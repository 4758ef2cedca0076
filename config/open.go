package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/syssam/cascade"
	"github.com/syssam/cascade/dialect"
	dsql "github.com/syssam/cascade/dialect/sql"
)

// NewLogger returns the logger described by the log section, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Log.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenDriver opens the configured database. With statistics enabled the
// driver is wrapped by a StatsDriver logging slow statements on logger.
func (c *Config) OpenDriver(logger *slog.Logger) (dialect.Driver, error) {
	var (
		drv *dsql.Driver
		err error
	)
	if c.Database.URL != "" {
		drv, err = dsql.OpenURL(c.Database.URL)
	} else {
		drv, err = dsql.Open(c.Database.Driver, c.Database.DSN)
	}
	if err != nil {
		return nil, err
	}
	if !c.Stats.Enabled {
		return drv, nil
	}
	opts := []dsql.StatsOption{dsql.WithSlowQueryLog(logger)}
	if c.Stats.SlowThreshold > 0 {
		opts = append(opts, dsql.WithSlowThreshold(c.Stats.SlowThreshold))
	}
	return dsql.NewStatsDriver(drv, opts...), nil
}

// SessionOptions returns the session options of the session section.
func (c *Config) SessionOptions(logger *slog.Logger) []cascade.Option {
	opts := []cascade.Option{
		cascade.WithLogger(logger),
		cascade.WithAutocommit(c.Session.Autocommit),
	}
	if c.Session.CacheCapacity > 0 {
		opts = append(opts, cascade.WithCacheCapacity(c.Session.CacheCapacity))
	}
	return opts
}
