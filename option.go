package cascade

import (
	"log/slog"

	"github.com/syssam/cascade/adapter"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger of the session. Statements and cascade
// decisions are logged at debug level, cache overflows and transactions
// rolled back on close at warn level. The default logger discards.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithCacheCapacity bounds the identity cache. Default is
// DefaultCacheCapacity.
func WithCacheCapacity(n int) Option {
	return func(s *Session) {
		s.cache = NewIdentityCache(n)
	}
}

// WithAutocommit sets the initial autocommit mode. Default is true.
func WithAutocommit(on bool) Option {
	return func(s *Session) {
		s.autocommit = on
	}
}

// WithAdapters sets the type adapter registry. The session registers
// adapters passed to RegisterTypeAdapter in it.
func WithAdapters(r *adapter.Registry) Option {
	return func(s *Session) {
		if r != nil {
			s.adapters = r
		}
	}
}

// WithDialect overrides the dialect reported by the driver.
func WithDialect(name string) Option {
	return func(s *Session) {
		s.dialect = name
	}
}
