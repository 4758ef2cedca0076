// Package sql implements the dialect driver interfaces over database/sql.
//
// A Driver hands out pinned connections. Statement values are bound as
// arguments, using $n placeholders on PostgreSQL and ? elsewhere; predicates
// arrive already rendered by the SQL generator.
//
//	drv, err := sql.OpenURL("sqlite:/var/lib/shop.db")
//	if err != nil {
//		return err
//	}
//	conn, err := drv.Conn(ctx)
//
// # Drivers
//
// The package registers modernc.org/sqlite ("sqlite") and lib/pq
// ("postgres"); go-sql-driver/mysql registers "mysql" itself. MySQL sources
// are opened with clientFoundRows so that updates report matched rows.
//
// # Errors
//
// Statement failures are returned as *dialect.ConstraintError when the
// database reports a unique, foreign-key or check violation, and as
// *dialect.GrammarError otherwise. Context cancellation is returned as is.
//
//	if sql.IsUniqueConstraintError(err) {
//		// duplicate key
//	}
//
// # Instrumentation
//
// StatsDriver counts statements and reports slow ones; DebugDriver logs
// every statement:
//
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(logger))
//	debug := sql.NewDebugDriver(stats, sql.DebugWithLogger(logger))
package sql
