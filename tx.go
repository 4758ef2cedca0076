package cascade

import (
	"context"
	"errors"
	"reflect"
	"strconv"

	"github.com/syssam/cascade/schema"
)

// BeginTransaction starts a transaction. It is a no-op under autocommit.
// The outermost call begins a native transaction, opening the session for
// its duration if needed; nested calls create a savepoint named sp_<n>, n
// being the nesting level of the enclosing transaction. Closing the last
// session reference rolls back a transaction still open.
func (s *Session) BeginTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autocommit {
		return nil
	}
	if s.depth > 0 {
		if _, err := s.logged(s.tx).Execute(ctx, "SAVEPOINT "+savepoint(s.depth)); err != nil {
			return err
		}
		s.depth++
		s.marks = append(s.marks, len(s.changes))
		return nil
	}
	ref := s.refs == 0
	if ref {
		if err := s.open(ctx); err != nil {
			return err
		}
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		if ref {
			err = joinClose(err, s.close())
		}
		return err
	}
	s.log.DebugContext(ctx, "begin transaction")
	s.tx, s.depth, s.txRef = tx, 1, ref
	s.marks = []int{len(s.changes)}
	return nil
}

// Commit ends the innermost transaction. A nested level releases its
// savepoint. Commit is a no-op under autocommit or when no transaction is
// open.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autocommit || s.depth == 0 {
		return nil
	}
	if s.depth > 1 {
		s.depth--
		s.marks = s.marks[:len(s.marks)-1]
		_, err := s.logged(s.tx).Execute(ctx, "RELEASE SAVEPOINT "+savepoint(s.depth))
		return err
	}
	s.log.DebugContext(ctx, "commit transaction")
	return s.finish(s.tx.Commit())
}

// Rollback aborts the innermost transaction. A nested level rolls back to
// its savepoint and releases it. Rollback is a no-op under autocommit or
// when no transaction is open.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autocommit || s.depth == 0 {
		return nil
	}
	if s.depth > 1 {
		s.depth--
		mark := s.marks[len(s.marks)-1]
		s.marks = s.marks[:len(s.marks)-1]
		name := savepoint(s.depth)
		ex := s.logged(s.tx)
		if _, err := ex.Execute(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return err
		}
		s.revert(mark)
		_, err := ex.Execute(ctx, "RELEASE SAVEPOINT "+name)
		return err
	}
	s.log.DebugContext(ctx, "rollback transaction")
	s.revert(0)
	return s.finish(s.tx.Rollback())
}

// finish resets the transaction state after the outermost commit or
// rollback and releases the reference taken by BeginTransaction.
func (s *Session) finish(err error) error {
	ref := s.txRef
	s.tx, s.depth, s.txRef = nil, 0, false
	s.changes, s.marks = nil, nil
	if ref {
		err = joinClose(err, s.close())
	}
	return err
}

// change is an in-memory effect of a statement run inside a transaction:
// an identity put into the cache, or a generated key assigned to field of
// e. Rolling the transaction back undoes it.
type change struct {
	id    schema.Identity
	e     schema.Entity
	field string
}

// track records c while a transaction is open.
func (s *Session) track(c change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		s.changes = append(s.changes, c)
	}
}

// revert undoes the changes recorded since mark, newest first: cached
// identities are evicted and generated keys reset to their zero value.
// s.mu must be held.
func (s *Session) revert(mark int) {
	if mark > len(s.changes) {
		return
	}
	for i := len(s.changes) - 1; i >= mark; i-- {
		c := s.changes[i]
		if c.e == nil {
			s.cache.Evict(c.id)
			continue
		}
		v := c.e.Get(c.field)
		if v == nil {
			continue
		}
		if err := c.e.Set(c.field, reflect.Zero(reflect.TypeOf(v)).Interface()); err != nil {
			s.log.Warn("cannot reset generated key", "type", c.e.EntityName(), "field", c.field, "error", err)
		}
	}
	s.changes = s.changes[:mark]
}

// joinClose adds the error of a session close to err.
func joinClose(err, cerr error) error {
	if cerr == nil {
		return err
	}
	return errors.Join(err, cerr)
}

// SetAutocommit switches autocommit mode. It fails while a transaction is
// open.
func (s *Session) SetAutocommit(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depth > 0 {
		return &TransactionStateError{Op: "set autocommit", Msg: "transaction in progress"}
	}
	s.autocommit = on
	return nil
}

// Autocommit reports if autocommit mode is on.
func (s *Session) Autocommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autocommit
}

// InTransaction runs fn between BeginTransaction and Commit, rolling back
// if fn fails.
func (s *Session) InTransaction(ctx context.Context, fn func(context.Context) error) error {
	if err := s.BeginTransaction(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		if rerr := s.Rollback(ctx); rerr != nil {
			return &RollbackError{Err: err, Rollback: rerr}
		}
		return err
	}
	return s.Commit(ctx)
}

// inTransaction reports if a user transaction is open.
func (s *Session) inTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth > 0
}

// atomic runs fn inside a native transaction unless one is already open.
// It is used by writes under autocommit so that a failing cascade leaves
// no partial graph behind.
func (s *Session) atomic(ctx context.Context, fn func(context.Context) error) error {
	s.mu.Lock()
	if s.tx != nil {
		s.mu.Unlock()
		return fn(ctx)
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.tx = tx
	mark := len(s.changes)
	s.mu.Unlock()

	err = fn(ctx)

	s.mu.Lock()
	s.tx = nil
	s.mu.Unlock()
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = &RollbackError{Err: err, Rollback: rerr}
		}
	} else {
		err = tx.Commit()
	}

	s.mu.Lock()
	if err != nil {
		s.revert(mark)
	}
	s.changes = s.changes[:mark]
	s.mu.Unlock()
	return err
}

func savepoint(n int) string { return "sp_" + strconv.Itoa(n) }
