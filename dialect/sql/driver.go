package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/cascade/dialect"
)

// Driver is a dialect.Driver implementation for SQL based databases.
type Driver struct {
	Executor
	db      *sql.DB
	dialect string
}

// Open wraps the database/sql.Open method and returns a Driver. The driver
// name is also the dialect name.
func Open(name, source string) (*Driver, error) {
	source, err := prepareSource(name, source)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(name, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	d := &Driver{db: db, dialect: dialect}
	d.Executor = Executor{ExecQuerier: db, dialect: d.Dialect()}
	return d
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect implements the dialect.Driver interface.
func (d *Driver) Dialect() string {
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Conn implements the dialect.Driver interface. The returned connection is
// pinned until it is closed.
func (d *Driver) Conn(ctx context.Context) (dialect.Conn, error) {
	c, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: acquire connection: %w", err)
	}
	return &PinnedConn{Executor: Executor{ExecQuerier: c, dialect: d.Dialect()}, conn: c}, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error { return d.db.Close() }

// PinnedConn is a dialect.Conn over a single *sql.Conn.
type PinnedConn struct {
	Executor
	conn *sql.Conn
}

// Begin implements the dialect.Conn interface.
func (c *PinnedConn) Begin(ctx context.Context) (dialect.Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{Executor: Executor{ExecQuerier: tx, dialect: c.dialect}, tx: tx}, nil
}

// Close implements the dialect.Conn interface.
func (c *PinnedConn) Close() error { return c.conn.Close() }

// Tx implements the dialect.Tx interface.
type Tx struct {
	Executor
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// ExecQuerier wraps the standard Exec and Query methods. It is implemented
// by *sql.DB, *sql.Conn and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor implements dialect.ExecQuerier given ExecQuerier.
type Executor struct {
	ExecQuerier
	dialect string
}

// Execute implements the dialect.ExecQuerier interface.
func (c Executor) Execute(ctx context.Context, query string) (int64, error) {
	return c.exec(ctx, query)
}

// Query implements the dialect.ExecQuerier interface.
func (c Executor) Query(ctx context.Context, query string) (dialect.Rows, error) {
	rows, err := c.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError(query, err)
	}
	return rows, nil
}

// Insert implements the dialect.ExecQuerier interface.
func (c Executor) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	args := make([]any, len(values))
	switch {
	case len(values) > 0:
		b.WriteString(" (")
		for i, v := range values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.Column)
			args[i] = v.V
		}
		b.WriteString(") VALUES (")
		for i := range values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.placeholder(i + 1))
		}
		b.WriteString(")")
	case c.dialect == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	default:
		b.WriteString(" DEFAULT VALUES")
	}
	query := b.String()
	if c.dialect == dialect.Postgres {
		if idColumn == "" {
			_, err := c.exec(ctx, query, args...)
			return 0, err
		}
		query += " RETURNING " + idColumn
		var id int64
		if err := c.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, wrapError(query, err)
		}
		return id, nil
	}
	res, err := c.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapError(query, err)
	}
	if idColumn == "" {
		return 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: last insert id: %w", err)
	}
	return id, nil
}

// Update implements the dialect.ExecQuerier interface.
func (c Executor) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	args := make([]any, len(values))
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Column)
		b.WriteString(" = ")
		b.WriteString(c.placeholder(i + 1))
		args[i] = v.V
	}
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	return c.exec(ctx, b.String(), args...)
}

// Delete implements the dialect.ExecQuerier interface.
func (c Executor) Delete(ctx context.Context, table, where string) (int64, error) {
	query := "DELETE FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	return c.exec(ctx, query)
}

func (c Executor) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapError(query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	return n, nil
}

func (c Executor) placeholder(i int) string {
	if c.dialect == dialect.Postgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// wrapError classifies a statement failure. Context errors pass through.
func wrapError(query string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if kind := constraintKind(err); kind != "" {
		return &dialect.ConstraintError{Kind: kind, Query: query, Err: err}
	}
	return &dialect.GrammarError{Query: query, Err: err}
}

var (
	_ dialect.Driver = (*Driver)(nil)
	_ dialect.Conn   = (*PinnedConn)(nil)
	_ dialect.Tx     = (*Tx)(nil)
)
