package lazy

import (
	"context"
	"fmt"

	"github.com/syssam/cascade/schema"
)

// One is a single-valued relationship handle. *T must implement
// schema.Entity. The zero One is untouched: it reads as nil, and writes
// leave the stored relationship as it is until the handle is set or loaded.
type One[T any] struct {
	v Value[*T]
}

var _ schema.ToOne = (*One[struct{ schema.Entity }])(nil)

// Get returns the related entity, loading it on first access.
func (o *One[T]) Get(ctx context.Context) (*T, error) { return o.v.Get(ctx) }

// Set relates e. A nil e clears the relationship.
func (o *One[T]) Set(e *T) { o.v.Set(e) }

// Defer makes the handle load its value with fn on first access.
func (o *One[T]) Defer(fn func(context.Context) (*T, error)) { o.v.Defer(fn) }

// Resolved reports if the related entity is known.
func (o *One[T]) Resolved() bool { return o.v.Resolved() }

// PeekEntity implements schema.ToOne.
func (o *One[T]) PeekEntity() (schema.Entity, bool) {
	if !o.v.Assigned() {
		return nil, false
	}
	p, ok := o.v.Peek()
	if !ok || p == nil {
		return nil, ok
	}
	return any(p).(schema.Entity), true
}

// SetEntity implements schema.ToOne.
func (o *One[T]) SetEntity(e schema.Entity) error {
	p, err := cast[T](e)
	if err != nil {
		return err
	}
	o.v.Set(p)
	return nil
}

// DeferEntity implements schema.ToOne.
func (o *One[T]) DeferEntity(fn func(context.Context) (schema.Entity, error)) {
	o.v.Defer(func(ctx context.Context) (*T, error) {
		e, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return cast[T](e)
	})
}

// Many is a collection-valued relationship handle. *T must implement
// schema.Entity. Like One, the zero Many is untouched until Set, Add,
// Remove or a load assigns it.
type Many[T any] struct {
	v Value[[]*T]
}

var _ schema.ToMany = (*Many[struct{ schema.Entity }])(nil)

// Get returns the related entities, loading them on first access.
func (m *Many[T]) Get(ctx context.Context) ([]*T, error) { return m.v.Get(ctx) }

// Set replaces the related entities.
func (m *Many[T]) Set(es ...*T) { m.v.Set(es) }

// Add resolves the collection and appends es to it.
func (m *Many[T]) Add(ctx context.Context, es ...*T) error {
	cur, err := m.v.Get(ctx)
	if err != nil {
		return err
	}
	m.v.Set(append(cur, es...))
	return nil
}

// Remove resolves the collection and removes e from it.
func (m *Many[T]) Remove(ctx context.Context, e *T) error {
	cur, err := m.v.Get(ctx)
	if err != nil {
		return err
	}
	kept := make([]*T, 0, len(cur))
	for _, x := range cur {
		if x != e {
			kept = append(kept, x)
		}
	}
	m.v.Set(kept)
	return nil
}

// Defer makes the handle load its value with fn on first access.
func (m *Many[T]) Defer(fn func(context.Context) ([]*T, error)) { m.v.Defer(fn) }

// Resolved reports if the related entities are known.
func (m *Many[T]) Resolved() bool { return m.v.Resolved() }

// PeekEntities implements schema.ToMany.
func (m *Many[T]) PeekEntities() ([]schema.Entity, bool) {
	ps, ok := m.v.Peek()
	if !ok || !m.v.Assigned() {
		return nil, false
	}
	es := make([]schema.Entity, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			es = append(es, any(p).(schema.Entity))
		}
	}
	return es, true
}

// SetEntities implements schema.ToMany.
func (m *Many[T]) SetEntities(es []schema.Entity) error {
	ps, err := castAll[T](es)
	if err != nil {
		return err
	}
	m.v.Set(ps)
	return nil
}

// DeferEntities implements schema.ToMany.
func (m *Many[T]) DeferEntities(fn func(context.Context) ([]schema.Entity, error)) {
	m.v.Defer(func(ctx context.Context) ([]*T, error) {
		es, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return castAll[T](es)
	})
}

func cast[T any](e schema.Entity) (*T, error) {
	if e == nil {
		return nil, nil
	}
	p, ok := any(e).(*T)
	if !ok {
		return nil, fmt.Errorf("lazy: cannot assign %s entity (%T) to a %T handle", e.EntityName(), e, p)
	}
	return p, nil
}

func castAll[T any](es []schema.Entity) ([]*T, error) {
	ps := make([]*T, 0, len(es))
	for _, e := range es {
		p, err := cast[T](e)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}
