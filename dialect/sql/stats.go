package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/cascade/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, duration time.Duration)

// StatsDriver wraps a Driver with statement statistics collection.
type StatsDriver struct {
	dialect.Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to logger, or to the default
// logger if logger is nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, duration time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "duration", duration, "query", query)
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv, _ := sql.OpenURL("postgres://localhost/shop")
//	stats := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//	sess := cascade.NewSession(stats, registry)
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Conn returns a connection that records statistics.
func (d *StatsDriver) Conn(ctx context.Context) (dialect.Conn, error) {
	c, err := d.Driver.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &statsConn{Conn: c, statsExec: statsExec{ExecQuerier: c, driver: d}}, nil
}

func (d *StatsDriver) record(ctx context.Context, query string, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, duration)
		}
	}
}

// statsExec records every statement of the wrapped ExecQuerier.
type statsExec struct {
	dialect.ExecQuerier
	driver *StatsDriver
}

func (e statsExec) Execute(ctx context.Context, query string) (int64, error) {
	start := time.Now()
	n, err := e.ExecQuerier.Execute(ctx, query)
	e.driver.record(ctx, query, start, err, false)
	return n, err
}

func (e statsExec) Query(ctx context.Context, query string) (dialect.Rows, error) {
	start := time.Now()
	rows, err := e.ExecQuerier.Query(ctx, query)
	e.driver.record(ctx, query, start, err, true)
	return rows, err
}

func (e statsExec) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	start := time.Now()
	id, err := e.ExecQuerier.Insert(ctx, table, values, idColumn)
	e.driver.record(ctx, "INSERT INTO "+table, start, err, false)
	return id, err
}

func (e statsExec) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	start := time.Now()
	n, err := e.ExecQuerier.Update(ctx, table, values, where)
	e.driver.record(ctx, "UPDATE "+table+" WHERE "+where, start, err, false)
	return n, err
}

func (e statsExec) Delete(ctx context.Context, table, where string) (int64, error) {
	start := time.Now()
	n, err := e.ExecQuerier.Delete(ctx, table, where)
	e.driver.record(ctx, "DELETE FROM "+table+" WHERE "+where, start, err, false)
	return n, err
}

type statsConn struct {
	dialect.Conn
	statsExec
}

func (c *statsConn) Execute(ctx context.Context, query string) (int64, error) {
	return c.statsExec.Execute(ctx, query)
}

func (c *statsConn) Query(ctx context.Context, query string) (dialect.Rows, error) {
	return c.statsExec.Query(ctx, query)
}

func (c *statsConn) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	return c.statsExec.Insert(ctx, table, values, idColumn)
}

func (c *statsConn) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	return c.statsExec.Update(ctx, table, values, where)
}

func (c *statsConn) Delete(ctx context.Context, table, where string) (int64, error) {
	return c.statsExec.Delete(ctx, table, where)
}

func (c *statsConn) Begin(ctx context.Context) (dialect.Tx, error) {
	tx, err := c.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, statsExec: statsExec{ExecQuerier: tx, driver: c.driver}}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	statsExec
}

// Execute records and runs a statement within the transaction.
func (tx *StatsTx) Execute(ctx context.Context, query string) (int64, error) {
	return tx.statsExec.Execute(ctx, query)
}

// Query records and runs a query within the transaction.
func (tx *StatsTx) Query(ctx context.Context, query string) (dialect.Rows, error) {
	return tx.statsExec.Query(ctx, query)
}

// Insert records and runs an insert within the transaction.
func (tx *StatsTx) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	return tx.statsExec.Insert(ctx, table, values, idColumn)
}

// Update records and runs an update within the transaction.
func (tx *StatsTx) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	return tx.statsExec.Update(ctx, table, values, where)
}

// Delete records and runs a delete within the transaction.
func (tx *StatsTx) Delete(ctx context.Context, table, where string) (int64, error) {
	return tx.statsExec.Delete(ctx, table, where)
}

// DebugDriver wraps a Driver with statement logging.
type DebugDriver struct {
	dialect.Driver
	log func(context.Context, ...any)
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.log = logFunc
	}
}

// DebugWithLogger logs statements at debug level on logger.
func DebugWithLogger(logger *slog.Logger) DebugOption {
	return DebugWithLog(func(ctx context.Context, v ...any) {
		logger.DebugContext(ctx, fmt.Sprint(v...))
	})
}

// NewDebugDriver wraps a Driver with statement logging.
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(_ context.Context, v ...any) {
			slog.Info(fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Conn returns a connection that logs its statements.
func (d *DebugDriver) Conn(ctx context.Context) (dialect.Conn, error) {
	c, err := d.Driver.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &debugConn{Conn: c, debugExec: debugExec{ExecQuerier: c, log: d.log, prefix: ""}}, nil
}

type debugExec struct {
	dialect.ExecQuerier
	log    func(context.Context, ...any)
	prefix string
}

func (e debugExec) Execute(ctx context.Context, query string) (int64, error) {
	e.log(ctx, fmt.Sprintf("%sexec: %s", e.prefix, query))
	return e.ExecQuerier.Execute(ctx, query)
}

func (e debugExec) Query(ctx context.Context, query string) (dialect.Rows, error) {
	e.log(ctx, fmt.Sprintf("%squery: %s", e.prefix, query))
	return e.ExecQuerier.Query(ctx, query)
}

func (e debugExec) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	e.log(ctx, fmt.Sprintf("%sinsert: %s values: %v", e.prefix, table, values))
	return e.ExecQuerier.Insert(ctx, table, values, idColumn)
}

func (e debugExec) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	e.log(ctx, fmt.Sprintf("%supdate: %s values: %v where: %s", e.prefix, table, values, where))
	return e.ExecQuerier.Update(ctx, table, values, where)
}

func (e debugExec) Delete(ctx context.Context, table, where string) (int64, error) {
	e.log(ctx, fmt.Sprintf("%sdelete: %s where: %s", e.prefix, table, where))
	return e.ExecQuerier.Delete(ctx, table, where)
}

type debugConn struct {
	dialect.Conn
	debugExec
}

func (c *debugConn) Execute(ctx context.Context, query string) (int64, error) {
	return c.debugExec.Execute(ctx, query)
}

func (c *debugConn) Query(ctx context.Context, query string) (dialect.Rows, error) {
	return c.debugExec.Query(ctx, query)
}

func (c *debugConn) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	return c.debugExec.Insert(ctx, table, values, idColumn)
}

func (c *debugConn) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	return c.debugExec.Update(ctx, table, values, where)
}

func (c *debugConn) Delete(ctx context.Context, table, where string) (int64, error) {
	return c.debugExec.Delete(ctx, table, where)
}

func (c *debugConn) Begin(ctx context.Context) (dialect.Tx, error) {
	c.log(ctx, "begin transaction")
	tx, err := c.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, debugExec: debugExec{ExecQuerier: tx, log: c.log, prefix: "tx "}}, nil
}

// DebugTx wraps a transaction with statement logging.
type DebugTx struct {
	dialect.Tx
	debugExec
}

// Execute logs and runs a statement within the transaction.
func (tx *DebugTx) Execute(ctx context.Context, query string) (int64, error) {
	return tx.debugExec.Execute(ctx, query)
}

// Query logs and runs a query within the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string) (dialect.Rows, error) {
	return tx.debugExec.Query(ctx, query)
}

// Insert logs and runs an insert within the transaction.
func (tx *DebugTx) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	return tx.debugExec.Insert(ctx, table, values, idColumn)
}

// Update logs and runs an update within the transaction.
func (tx *DebugTx) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	return tx.debugExec.Update(ctx, table, values, where)
}

// Delete logs and runs a delete within the transaction.
func (tx *DebugTx) Delete(ctx context.Context, table, where string) (int64, error) {
	return tx.debugExec.Delete(ctx, table, where)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.log(context.Background(), "commit transaction")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.log(context.Background(), "rollback transaction")
	return tx.Tx.Rollback()
}

// Ensure interfaces are implemented.
var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Conn   = (*statsConn)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Conn   = (*debugConn)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
