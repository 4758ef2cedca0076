package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/syssam/cascade/dialect"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// sqlStateError is implemented by errors that carry a SQLSTATE code.
type sqlStateError interface {
	SQLState() string
}

// IsConstraintError reports if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e *dialect.ConstraintError
	return errors.As(err, &e) || constraintKind(err) != ""
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	return constraintKind(err) == dialect.ConstraintUnique
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return constraintKind(err) == dialect.ConstraintForeignKey
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return constraintKind(err) == dialect.ConstraintCheck
}

// constraintKind returns the violated constraint kind, or "" if err is not
// a constraint violation.
func constraintKind(err error) string {
	if err == nil {
		return ""
	}
	var ce *dialect.ConstraintError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pgKind(string(pe.Code))
	}
	if e, ok := asError[sqlStateError](err); ok {
		if kind := pgKind(e.SQLState()); kind != "" {
			return kind
		}
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return dialect.ConstraintUnique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return dialect.ConstraintForeignKey
		case mysqlCheckConstraintViolate:
			return dialect.ConstraintCheck
		}
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return dialect.ConstraintUnique
		case sqliteConstraintForeignKey:
			return dialect.ConstraintForeignKey
		case sqliteConstraintCheck:
			return dialect.ConstraintCheck
		}
	}
	// Fallback to string matching for drivers without typed errors.
	msg := err.Error()
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed"):
		return dialect.ConstraintUnique
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"):
		return dialect.ConstraintForeignKey
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed"):
		return dialect.ConstraintCheck
	}
	return ""
}

func pgKind(code string) string {
	switch code {
	case pgUniqueViolation:
		return dialect.ConstraintUnique
	case pgForeignKeyViolation:
		return dialect.ConstraintForeignKey
	case pgCheckViolation:
		return dialect.ConstraintCheck
	}
	return ""
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
