package sql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cascade/dialect"
)

func newMock(t *testing.T, name string) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(name, db), mock
}

// TestOpenDB tests the OpenDB function with different dialects.
func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		dialect string
	}{
		{"Postgres", "postgres", dialect.Postgres},
		{"MySQL", "mysql", dialect.MySQL},
		{"SQLite", "sqlite", dialect.SQLite},
		{"SQLite3", "sqlite3", dialect.SQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, _ := newMock(t, tt.driver)
			assert.Equal(t, tt.dialect, drv.Dialect())
			assert.NotNil(t, drv.DB())
		})
	}
}

func TestInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec("INSERT INTO users (name, age) VALUES (?, ?)").
			WithArgs("a8m", int64(30)).
			WillReturnResult(sqlmock.NewResult(7, 1))
		id, err := drv.Insert(ctx, "users", []dialect.Value{{Column: "name", V: "a8m"}, {Column: "age", V: int64(30)}}, "id")
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sqlite_default_values", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec("INSERT INTO users DEFAULT VALUES").
			WillReturnResult(sqlmock.NewResult(3, 1))
		id, err := drv.Insert(ctx, "users", nil, "")
		require.NoError(t, err)
		assert.Zero(t, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mysql_default_values", func(t *testing.T) {
		drv, mock := newMock(t, dialect.MySQL)
		mock.ExpectExec("INSERT INTO users () VALUES ()").
			WillReturnResult(sqlmock.NewResult(4, 1))
		id, err := drv.Insert(ctx, "users", nil, "id")
		require.NoError(t, err)
		assert.Equal(t, int64(4), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres_returning", func(t *testing.T) {
		drv, mock := newMock(t, dialect.Postgres)
		mock.ExpectQuery("INSERT INTO users (name) VALUES ($1) RETURNING id").
			WithArgs("a8m").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		id, err := drv.Insert(ctx, "users", []dialect.Value{{Column: "name", V: "a8m"}}, "id")
		require.NoError(t, err)
		assert.Equal(t, int64(9), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres_without_id", func(t *testing.T) {
		drv, mock := newMock(t, dialect.Postgres)
		mock.ExpectExec("INSERT INTO tags (name) VALUES ($1)").
			WithArgs("go").
			WillReturnResult(sqlmock.NewResult(0, 1))
		_, err := drv.Insert(ctx, "tags", []dialect.Value{{Column: "name", V: "go"}}, "")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateDelete(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t, dialect.Postgres)

	mock.ExpectExec("UPDATE users SET name = $1, age = $2 WHERE id = 1").
		WithArgs("a8m", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := drv.Update(ctx, "users", []dialect.Value{{Column: "name", V: "a8m"}, {Column: "age"}}, "id = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = drv.Update(ctx, "users", nil, "id = 1")
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec("DELETE FROM users WHERE id = 1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	n, err = drv.Delete(ctx, "users", "id = 1")
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS t (id INTEGER)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = drv.Execute(ctx, "CREATE TABLE IF NOT EXISTS t (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryScanAll(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectQuery("SELECT * FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Alice").
			AddRow(int64(2), nil))

	rows, err := drv.Query(ctx, "SELECT * FROM users")
	require.NoError(t, err)
	list, err := dialect.ScanAll(rows)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, dialect.Row{"id": int64(1), "name": "Alice"}, list[0])
	assert.Nil(t, list[1]["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPinnedConnTx(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t, dialect.SQLite)

	conn, err := drv.Conn(ctx)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM users WHERE id = 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := conn.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Execute(ctx, "SAVEPOINT sp_1")
	require.NoError(t, err)
	n, err := tx.Delete(ctx, "users", "id = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = tx.Execute(ctx, "ROLLBACK TO SAVEPOINT sp_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorClassification(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"pq_unique", &pq.Error{Code: "23505"}, dialect.ConstraintUnique},
		{"pq_fk", &pq.Error{Code: "23503"}, dialect.ConstraintForeignKey},
		{"mysql_duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, dialect.ConstraintUnique},
		{"mysql_check", &mysql.MySQLError{Number: 3819}, dialect.ConstraintCheck},
		{"sqlite_string", errors.New("constraint failed: UNIQUE constraint failed: users.email"), dialect.ConstraintUnique},
		{"sqlite_fk_string", errors.New("FOREIGN KEY constraint failed"), dialect.ConstraintForeignKey},
		{"grammar", errors.New(`near "SELEC": syntax error`), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, mock := newMock(t, dialect.SQLite)
			mock.ExpectExec("DELETE FROM users").WillReturnError(tt.err)
			_, err := drv.Delete(ctx, "users", "")
			require.Error(t, err)
			require.ErrorIs(t, err, tt.err)
			if tt.kind == "" {
				var ge *dialect.GrammarError
				require.ErrorAs(t, err, &ge)
				assert.Equal(t, "DELETE FROM users", ge.Query)
				assert.False(t, IsConstraintError(err))
				return
			}
			var ce *dialect.ConstraintError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.True(t, IsConstraintError(err))
			assert.Equal(t, tt.kind == dialect.ConstraintUnique, IsUniqueConstraintError(err))
			assert.Equal(t, tt.kind == dialect.ConstraintForeignKey, IsForeignKeyConstraintError(err))
			assert.Equal(t, tt.kind == dialect.ConstraintCheck, IsCheckConstraintError(err))
		})
	}

	t.Run("context", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec("DELETE FROM users").WillReturnError(context.Canceled)
		_, err := drv.Delete(ctx, "users", "")
		assert.Equal(t, context.Canceled, err)
	})
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{
		"sqlite3":  dialect.SQLite,
		"postgres": dialect.Postgres,
		"pgx":      dialect.Postgres,
		"mysql":    dialect.MySQL,
	} {
		got, err := driverName(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverName("oracle")
	require.Error(t, err)
}

func TestPrepareSource(t *testing.T) {
	src, err := prepareSource(dialect.MySQL, "root:pass@tcp(localhost:3306)/shop")
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(src)
	require.NoError(t, err)
	assert.True(t, cfg.ClientFoundRows)
	assert.Equal(t, "shop", cfg.DBName)

	src, err = prepareSource(dialect.SQLite, "file:shop.db")
	require.NoError(t, err)
	assert.Equal(t, "file:shop.db", src)
}

func TestStatsDriver(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t, dialect.SQLite)

	var slow []string
	stats := NewStatsDriver(drv,
		WithSlowThreshold(-1),
		WithSlowQueryHook(func(_ context.Context, query string, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	assert.Equal(t, time.Duration(-1), stats.SlowThreshold())

	conn, err := stats.Conn(ctx)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM users WHERE id = 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT * FROM users").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET name = ? WHERE id = 2").WithArgs("x").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err = conn.Delete(ctx, "users", "id = 1")
	require.NoError(t, err)
	rows, err := conn.Query(ctx, "SELECT * FROM users")
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	tx, err := conn.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Update(ctx, "users", []dialect.Value{{Column: "name", V: "x"}}, "id = 2")
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	snap := stats.QueryStats().Stats()
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(2), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(3), snap.SlowQueries)
	assert.Equal(t, []string{"DELETE FROM users WHERE id = 1", "SELECT * FROM users", "UPDATE users WHERE id = 2"}, slow)
	assert.Contains(t, snap.String(), "queries=1 execs=2")

	stats.QueryStats().Reset()
	assert.Zero(t, stats.QueryStats().Stats().TotalExecs)
}

func TestDebugDriver(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t, dialect.SQLite)

	var logs []string
	debug := NewDebugDriver(drv, DebugWithLog(func(_ context.Context, v ...any) {
		logs = append(logs, v[0].(string))
	}))
	conn, err := debug.Conn(ctx)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users WHERE id = 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := conn.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Delete(ctx, "users", "id = 1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{
		"begin transaction",
		"tx delete: users where: id = 1",
		"commit transaction",
	}, logs)
}
