package cascade

import (
	"context"

	"github.com/syssam/cascade/criterion"
	"github.com/syssam/cascade/schema"
	"github.com/syssam/cascade/sqlgen"
)

// Criteria builds and runs a query over the entities of one type.
// Predicates are joined with AND; orderings apply in the order added.
type Criteria struct {
	s *Session
	q sqlgen.Query
}

// CreateCriteria returns an empty query over the entities of typ.
func (s *Session) CreateCriteria(typ string) *Criteria {
	return &Criteria{s: s, q: sqlgen.Query{Type: typ}}
}

// Add appends predicates to the query.
func (c *Criteria) Add(cs ...criterion.Criterion) *Criteria {
	c.q.Where = append(c.q.Where, cs...)
	return c
}

// OrderBy appends orderings to the query.
func (c *Criteria) OrderBy(os ...criterion.Order) *Criteria {
	c.q.Order = append(c.q.Order, os...)
	return c
}

// Limit bounds the number of results.
func (c *Criteria) Limit(n int) *Criteria {
	c.q.Limit = n
	return c
}

// Offset skips the first n results.
func (c *Criteria) Offset(n int) *Criteria {
	c.q.Offset = n
	return c
}

// Type returns the queried entity type.
func (c *Criteria) Type() string { return c.q.Type }

// SQL returns the SELECT statement of the query.
func (c *Criteria) SQL() (string, error) {
	return c.s.builder.SelectQuery(c.q)
}

// List returns the matching entities. Every result is put into the identity
// cache.
func (c *Criteria) List(ctx context.Context) ([]schema.Entity, error) {
	query, err := c.SQL()
	if err != nil {
		return nil, &QueryError{Entity: c.q.Type, Op: "list", Err: err}
	}
	var es []schema.Entity
	err = c.s.with(ctx, func() error {
		es, err = c.s.newLoader().all(ctx, c.q.Type, query)
		if err != nil {
			return err
		}
		for _, e := range es {
			id, err := c.s.mapper.Identity(e)
			if err != nil {
				return err
			}
			c.s.remember(id, e)
		}
		return nil
	})
	if err != nil {
		return nil, &QueryError{Entity: c.q.Type, Op: "list", Err: err}
	}
	return es, nil
}

// Unique returns the only matching entity, or nil if none matches. It fails
// with a NotSingularError if several entities match.
func (c *Criteria) Unique(ctx context.Context) (schema.Entity, error) {
	es, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(es) {
	case 0:
		return nil, nil
	case 1:
		return es[0], nil
	}
	return nil, &NotSingularError{label: c.q.Type, count: len(es)}
}

// Count returns the number of matching entities. Ordering and paging do
// not change the count, but an ordering on an unknown field is rejected.
func (c *Criteria) Count(ctx context.Context) (n int, err error) {
	query, err := c.s.builder.CountQuery(c.q)
	if err != nil {
		return 0, &QueryError{Entity: c.q.Type, Op: "count", Err: err}
	}
	err = c.s.with(ctx, func() error {
		v, err := c.s.count(ctx, query)
		n = int(v)
		return err
	})
	if err != nil {
		return 0, &QueryError{Entity: c.q.Type, Op: "count", Err: err}
	}
	return n, nil
}
