package cascade

import (
	"context"
	"errors"

	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
)

// loader materializes rows into entities. Entities built during one load
// are kept in loading, which breaks relationship cycles even when the
// identity cache overflows.
type loader struct {
	s       *Session
	loading map[schema.Identity]schema.Entity
}

func (s *Session) newLoader() *loader {
	return &loader{s: s, loading: make(map[schema.Identity]schema.Entity)}
}

// fromRow returns the entity of typ stored in row. An entity already built
// by this load or present in the identity cache is returned as is. A new
// entity is registered before its relationships are resolved, so a
// relationship leading back to it finds the partially built instance.
func (l *loader) fromRow(ctx context.Context, typ string, row dialect.Row) (schema.Entity, error) {
	meta := l.s.meta
	e, err := meta.New(typ)
	if err != nil {
		return nil, err
	}
	fields, err := meta.PersistentFields(typ)
	if err != nil {
		return nil, err
	}
	var relations []*schema.Field
	for _, f := range fields {
		if meta.RelationshipOf(f) != nil {
			relations = append(relations, f)
			continue
		}
		v, err := l.s.adapters.FromStorage(f.GoType, row[meta.ColumnName(f)])
		if err != nil {
			return nil, fieldErr(typ, f, err)
		}
		if err := e.Set(f.Name, v); err != nil {
			return nil, fieldErr(typ, f, err)
		}
	}
	id, err := l.s.mapper.Identity(e)
	if err != nil {
		return nil, err
	}
	if c, ok := l.loading[id]; ok {
		return c, nil
	}
	if c, ok := l.s.cache.Get(id); ok {
		return c, nil
	}
	l.loading[id] = e
	l.s.remember(id, e)
	lazy := meta.IsLazy(typ)
	for _, f := range relations {
		if err := l.resolve(ctx, e, f, meta.RelationshipOf(f), row, lazy); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// resolve assigns the relationship f of e, or defers it when the type of e
// loads lazily.
func (l *loader) resolve(ctx context.Context, e schema.Entity, f *schema.Field, rel *schema.Relation, row dialect.Row, lazy bool) error {
	typ := e.EntityName()
	h := e.Get(f.Name)
	if !rel.Kind.Single() {
		many, ok := h.(schema.ToMany)
		if !ok {
			return &ModelConfigurationError{Type: typ, Field: f.Name, Msg: "accessor does not return a relationship handle"}
		}
		if lazy {
			many.DeferEntities(func(ctx context.Context) (es []schema.Entity, err error) {
				err = l.s.with(ctx, func() error {
					es, err = l.s.newLoader().many(ctx, e, f, rel)
					return err
				})
				return es, err
			})
			return nil
		}
		es, err := l.many(ctx, e, f, rel)
		if err != nil {
			return err
		}
		return many.SetEntities(es)
	}
	one, ok := h.(schema.ToOne)
	if !ok {
		return &ModelConfigurationError{Type: typ, Field: f.Name, Msg: "accessor does not return a relationship handle"}
	}
	var fk any
	if rel.OwnsKey() {
		if fk = row[rel.Column]; fk == nil {
			return one.SetEntity(nil)
		}
	}
	if lazy {
		one.DeferEntity(func(ctx context.Context) (r schema.Entity, err error) {
			err = l.s.with(ctx, func() error {
				r, err = l.s.newLoader().one(ctx, e, rel, fk)
				return err
			})
			return r, err
		})
		return nil
	}
	r, err := l.one(ctx, e, rel, fk)
	if err != nil {
		return err
	}
	return one.SetEntity(r)
}

// one loads the entity related to e through a single-valued relationship.
// fk is the foreign-key value stored in the row of e when its table holds
// the key. A dangling foreign key resolves to nil.
func (l *loader) one(ctx context.Context, e schema.Entity, rel *schema.Relation, fk any) (schema.Entity, error) {
	var query string
	if rel.OwnsKey() {
		pk, err := l.s.meta.PrimaryKeyField(rel.Target)
		if err != nil {
			return nil, err
		}
		key, err := l.s.adapters.FromStorage(pk.GoType, fk)
		if err != nil {
			return nil, fieldErr(rel.Target, pk, err)
		}
		if r, ok := l.lookup(rel.Target, key); ok {
			return r, nil
		}
		if query, err = l.s.builder.SelectByKeyQuery(rel.Target, key); err != nil {
			return nil, err
		}
	} else {
		key, err := l.s.builder.EntityKey(e)
		if err != nil {
			return nil, err
		}
		if query, err = l.s.builder.SelectByColumnQuery(rel.Target, rel.Column, rel.Type, key, 1); err != nil {
			return nil, err
		}
	}
	rows, err := l.s.query(ctx, query)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return l.fromRow(ctx, rel.Target, rows[0])
}

// many loads the entities related to e through a collection relationship,
// in primary-key order of the target.
func (l *loader) many(ctx context.Context, e schema.Entity, f *schema.Field, rel *schema.Relation) ([]schema.Entity, error) {
	key, err := l.s.builder.EntityKey(e)
	if err != nil {
		return nil, err
	}
	var query string
	switch rel.Kind {
	case schema.OneToMany:
		query, err = l.s.builder.SelectByColumnQuery(rel.Target, rel.Column, rel.Type, key, 0)
	case schema.ManyToMany:
		query, err = l.s.builder.ManyToManyJoinQuery(rel.Type, f.Name, key)
	default:
		err = errors.New("cascade: unexpected collection relationship " + rel.Kind.String())
	}
	if err != nil {
		return nil, err
	}
	return l.all(ctx, rel.Target, query)
}

// all runs query and materializes every row as an entity of typ.
func (l *loader) all(ctx context.Context, typ, query string) ([]schema.Entity, error) {
	rows, err := l.s.query(ctx, query)
	if err != nil {
		return nil, err
	}
	es := make([]schema.Entity, 0, len(rows))
	for _, row := range rows {
		e, err := l.fromRow(ctx, typ, row)
		if err != nil {
			return nil, err
		}
		es = append(es, e)
	}
	return es, nil
}

// lookup finds the entity of typ with primary key key among the entities
// of this load and in the identity cache.
func (l *loader) lookup(typ string, key any) (schema.Entity, bool) {
	table, err := l.s.meta.TableName(typ)
	if err != nil {
		return nil, false
	}
	id := schema.NewIdentity(table, key)
	if e, ok := l.loading[id]; ok {
		return e, true
	}
	return l.s.cache.Get(id)
}
