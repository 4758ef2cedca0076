package cascade

import (
	"context"
	"fmt"

	"github.com/syssam/cascade/schema"
)

// Persistent constrains P to be a pointer to E implementing schema.Entity.
type Persistent[E any] interface {
	*E
	schema.Entity
}

func typeOf[E any, P Persistent[E]]() string {
	return P(new(E)).EntityName()
}

// Load is the typed form of Session.Load:
//
//	order, err := cascade.Load[Order](ctx, s, 1)
func Load[E any, P Persistent[E]](ctx context.Context, s *Session, id any) (P, error) {
	e, err := s.Load(ctx, typeOf[E, P](), id)
	if err != nil {
		return nil, err
	}
	return as[E, P](e)
}

// Query returns a Criteria over the entities of type E.
func Query[E any, P Persistent[E]](s *Session) *Criteria {
	return s.CreateCriteria(typeOf[E, P]())
}

// List is the typed form of Criteria.List.
func List[E any, P Persistent[E]](ctx context.Context, c *Criteria) ([]P, error) {
	es, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	ps := make([]P, len(es))
	for i, e := range es {
		if ps[i], err = as[E, P](e); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// Unique is the typed form of Criteria.Unique. It returns nil if no entity
// matches.
func Unique[E any, P Persistent[E]](ctx context.Context, c *Criteria) (P, error) {
	e, err := c.Unique(ctx)
	if err != nil || e == nil {
		return nil, err
	}
	return as[E, P](e)
}

func as[E any, P Persistent[E]](e schema.Entity) (P, error) {
	p, ok := e.(P)
	if !ok {
		return nil, fmt.Errorf("cascade: %s entity has type %T, not %T", e.EntityName(), e, p)
	}
	return p, nil
}
