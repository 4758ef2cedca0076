package dialect

import (
	"context"
	"errors"
	"fmt"
)

// Dialect names.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Value is a column value bound to a statement.
type Value struct {
	Column string
	V      any
}

// Row is a materialized result row keyed by column name.
type Row map[string]any

// Rows is a forward-only result cursor, implemented by *sql.Rows.
type Rows interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// ExecQuerier executes statements. Predicates are passed as rendered SQL;
// values are bound as statement arguments.
type ExecQuerier interface {
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, query string) (int64, error)
	// Query runs a query. Callers must close the returned rows.
	Query(ctx context.Context, query string) (Rows, error)
	// Insert adds a row and returns the generated value of idColumn, or 0
	// when idColumn is empty.
	Insert(ctx context.Context, table string, values []Value, idColumn string) (int64, error)
	// Update sets values on the rows matching where and returns the number
	// of matched rows.
	Update(ctx context.Context, table string, values []Value, where string) (int64, error)
	// Delete removes the rows matching where and returns their number.
	Delete(ctx context.Context, table, where string) (int64, error)
}

// Tx is a native transaction on a Conn.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Conn is a single pinned database connection.
type Conn interface {
	ExecQuerier
	Begin(ctx context.Context) (Tx, error)
	// Close returns the connection to its pool.
	Close() error
}

// Driver hands out connections for one database.
type Driver interface {
	Dialect() string
	Conn(ctx context.Context) (Conn, error)
	Close() error
}

// ScanAll reads and closes rows.
func ScanAll(rows Rows) (_ []Row, rerr error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			rerr = errors.Join(rerr, cerr)
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			row[c] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GrammarError is returned when the database rejects a statement.
type GrammarError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *GrammarError) Error() string {
	return fmt.Sprintf("cascade: sql grammar: %v (query: %s)", e.Err, e.Query)
}

// Unwrap returns the driver error.
func (e *GrammarError) Unwrap() error { return e.Err }

// Constraint kinds.
const (
	ConstraintUnique     = "unique"
	ConstraintForeignKey = "foreign key"
	ConstraintCheck      = "check"
)

// ConstraintError is returned when a statement violates a constraint.
type ConstraintError struct {
	Kind  string
	Query string
	Err   error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("cascade: %s constraint violated: %v", e.Kind, e.Err)
}

// Unwrap returns the driver error.
func (e *ConstraintError) Unwrap() error { return e.Err }
