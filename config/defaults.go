package config

// Default configuration values.
const (
	DefaultFile          = "cascade.yaml"
	DefaultFileAlt       = "cascade.yml"
	DefaultDriver        = "sqlite"
	DefaultDSN           = "file:cascade.db"
	DefaultCacheCapacity = 1000
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultSlowThreshold = "100ms"
	DefaultSchemaFile    = "schema.yaml"
	DefaultOutput        = "entity"
)

func defaults() map[string]any {
	return map[string]any{
		"database.driver":        DefaultDriver,
		"database.dsn":           DefaultDSN,
		"session.autocommit":     true,
		"session.cache_capacity": DefaultCacheCapacity,
		"log.level":              DefaultLogLevel,
		"log.format":             DefaultLogFormat,
		"stats.enabled":          false,
		"stats.slow_threshold":   DefaultSlowThreshold,
		"schema.file":            DefaultSchemaFile,
		"schema.output":          DefaultOutput,
	}
}
