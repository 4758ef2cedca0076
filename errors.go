package cascade

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/cascade/adapter"
	"github.com/syssam/cascade/criterion"
	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("cascade: entity not found")

	// ErrNotSingular is returned when a query that expects at most one
	// result returns several.
	ErrNotSingular = errors.New("cascade: entity not singular")

	// ErrNoTransaction is returned when a write is attempted while
	// autocommit is off and no transaction is open.
	ErrNoTransaction = errors.New("cascade: no open transaction")
)

// Error types owned by the packages that detect them.
type (
	// ModelConfigurationError reports missing or invalid entity metadata.
	ModelConfigurationError = schema.ConfigError
	// InvalidMappingError reports a field type without a type adapter, or
	// a value its adapter cannot convert.
	InvalidMappingError = adapter.MappingError
	// InvalidCriteriaError reports a predicate or ordering referencing a
	// field the queried type does not declare.
	InvalidCriteriaError = criterion.UnknownFieldError
	// SQLGrammarError reports a statement rejected by the database.
	SQLGrammarError = dialect.GrammarError
	// ConstraintError reports a statement violating a database constraint.
	ConstraintError = dialect.ConstraintError
)

// IsModelConfiguration returns true if the error is a ModelConfigurationError.
func IsModelConfiguration(err error) bool {
	return schema.IsConfigError(err)
}

// IsInvalidMapping returns true if the error is an InvalidMappingError.
func IsInvalidMapping(err error) bool {
	return adapter.IsMappingError(err)
}

// IsInvalidCriteria returns true if the error is an InvalidCriteriaError.
func IsInvalidCriteria(err error) bool {
	return criterion.IsUnknownField(err)
}

// IsSQLGrammar returns true if the error is a SQLGrammarError.
func IsSQLGrammar(err error) bool {
	if err == nil {
		return false
	}
	var e *SQLGrammarError
	return errors.As(err, &e)
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintError
	return errors.As(err, &e)
}

// TransactionStateError is returned, before any statement is sent, when a
// write is attempted while autocommit is off and no transaction is open,
// or when the transaction state does not allow an operation.
type TransactionStateError struct {
	Op  string
	Msg string
}

// Error returns the error string.
func (e *TransactionStateError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("cascade: transaction state: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("cascade: transaction state: %s requires an open transaction or autocommit", e.Op)
}

// Is reports whether the target error matches ErrNoTransaction.
func (e *TransactionStateError) Is(err error) bool {
	return err == ErrNoTransaction && e.Msg == ""
}

// IsTransactionState returns true if the error is a TransactionStateError.
func IsTransactionState(err error) bool {
	if err == nil {
		return false
	}
	var e *TransactionStateError
	return errors.As(err, &e)
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("cascade: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("cascade: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity type name.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects at most one
// result but receives several.
type NotSingularError struct {
	label string
	count int
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	return fmt.Sprintf("cascade: %s not singular (got %d results, expected at most 1)", e.label, e.count)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity type name.
func (e *NotSingularError) Label() string {
	return e.label
}

// Count returns the number of results.
func (e *NotSingularError) Count() int {
	return e.count
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err      error // Original error that triggered rollback
	Rollback error // Error returned by the rollback itself
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("cascade: rollback failed: %v (after: %v)", e.Rollback, e.Err)
}

// Unwrap returns the original error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during a batch
// operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "cascade: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("cascade: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns an AggregateError holding the non-nil errors,
// or nil if there are none.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "list", "unique", "count", "load")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("cascade: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("cascade: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a write error with additional context.
type MutationError struct {
	Entity string // Entity type being written
	Op     string // Operation (e.g., "save", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("cascade: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
