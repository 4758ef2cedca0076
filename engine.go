package cascade

import (
	"context"

	"github.com/syssam/cascade/adapter"
	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
)

// Save inserts e, then writes its relationships according to the cascade
// mode of its type. Related entities are saved or updated.
func (s *Session) Save(ctx context.Context, e schema.Entity) error {
	return s.write(ctx, "save", e, func(ctx context.Context, w *writer) error {
		mm, err := s.mapper.Map(e)
		if err != nil {
			return err
		}
		if err := w.insert(ctx, e, mm); err != nil {
			return err
		}
		return w.finish(ctx, e, mm, false)
	})
}

// Update updates the row of e, then writes its relationships. It fails with
// a NotFoundError if no row has the primary key of e.
func (s *Session) Update(ctx context.Context, e schema.Entity) error {
	return s.write(ctx, "update", e, func(ctx context.Context, w *writer) error {
		mm, err := s.mapper.Map(e)
		if err != nil {
			return err
		}
		n, err := w.update(ctx, mm)
		if err != nil {
			return err
		}
		if n == 0 {
			return NewNotFoundError(mm.Type, mm.Key)
		}
		return w.finish(ctx, e, mm, true)
	})
}

// SaveOrUpdate updates the row of e, or inserts it when no row was updated,
// then writes its relationships.
func (s *Session) SaveOrUpdate(ctx context.Context, e schema.Entity) error {
	return s.write(ctx, "save or update", e, func(ctx context.Context, w *writer) error {
		return w.saveOrUpdate(ctx, e)
	})
}

// Delete deletes the row of e and its many-to-many join rows, and evicts e
// from the identity cache. Foreign keys referencing the row from other
// tables are left untouched. It fails with a NotFoundError if no row has
// the primary key of e.
func (s *Session) Delete(ctx context.Context, e schema.Entity) error {
	return s.write(ctx, "delete", e, func(ctx context.Context, w *writer) error {
		mm, err := s.mapper.Map(e)
		if err != nil {
			return err
		}
		where, err := s.builder.KeyPredicate(mm.Type, mm.Key)
		if err != nil {
			return err
		}
		n, err := s.exec().Delete(ctx, mm.Table, where)
		if err != nil {
			return err
		}
		if n == 0 {
			return NewNotFoundError(mm.Type, mm.Key)
		}
		for _, rv := range mm.ManyToMany {
			query, err := s.builder.DeleteJoinRowsQuery(mm.Type, rv.Field.Name, mm.Key)
			if err != nil {
				return err
			}
			if _, err := s.exec().Execute(ctx, query); err != nil {
				return err
			}
		}
		s.cache.Evict(mm.Identity())
		return nil
	})
}

// SaveAll saves every entity and returns the number of successes. Failures
// do not stop the batch and are returned as an AggregateError.
func (s *Session) SaveAll(ctx context.Context, es ...schema.Entity) (int, error) {
	return s.batch(ctx, es, s.Save)
}

// SaveOrUpdateAll is the batch form of SaveOrUpdate.
func (s *Session) SaveOrUpdateAll(ctx context.Context, es ...schema.Entity) (int, error) {
	return s.batch(ctx, es, s.SaveOrUpdate)
}

// DeleteAll is the batch form of Delete.
func (s *Session) DeleteAll(ctx context.Context, es ...schema.Entity) (int, error) {
	return s.batch(ctx, es, s.Delete)
}

// batch applies fn to every entity. Inside a transaction each item runs in
// its own savepoint, so a failed item does not abort the others.
func (s *Session) batch(ctx context.Context, es []schema.Entity, fn func(context.Context, schema.Entity) error) (int, error) {
	var (
		n    int
		errs []error
		tx   = s.inTransaction()
	)
	for _, e := range es {
		var err error
		if tx {
			err = s.InTransaction(ctx, func(ctx context.Context) error { return fn(ctx, e) })
		} else {
			err = fn(ctx, e)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, NewAggregateError(errs...)
}

// write checks the transaction state and runs fn with a fresh writer.
func (s *Session) write(ctx context.Context, op string, e schema.Entity, fn func(context.Context, *writer) error) error {
	if !s.Autocommit() && !s.inTransaction() {
		return &TransactionStateError{Op: op}
	}
	err := s.with(ctx, func() error {
		return s.atomic(ctx, func(ctx context.Context) error {
			return fn(ctx, &writer{s: s, seen: make(map[schema.Identity]bool), visited: make(map[schema.Entity]bool)})
		})
	})
	if err != nil {
		return &MutationError{Entity: e.EntityName(), Op: op, Err: err}
	}
	return nil
}

// writer is the state of one top-level write. Each entity is written at
// most once: seen holds the identities of written entities and visited
// their pointers, which covers entities whose key was still default.
type writer struct {
	s       *Session
	seen    map[schema.Identity]bool
	visited map[schema.Entity]bool
}

func (w *writer) done(e schema.Entity) bool {
	if w.visited[e] {
		return true
	}
	id, err := w.s.mapper.Identity(e)
	if err != nil {
		return false
	}
	return w.seen[id] && !adapter.IsDefault(e.Get(w.pkName(e)))
}

func (w *writer) pkName(e schema.Entity) string {
	pk, err := w.s.meta.PrimaryKeyField(e.EntityName())
	if err != nil {
		return ""
	}
	return pk.Name
}

// saveOrUpdate updates e or inserts it when no row was updated, then
// cascades to its relationships.
func (w *writer) saveOrUpdate(ctx context.Context, e schema.Entity) error {
	if w.done(e) {
		return nil
	}
	mm, err := w.s.mapper.Map(e)
	if err != nil {
		return err
	}
	if mm.AutoKey() && adapter.IsDefault(mm.Key) {
		if err := w.insert(ctx, e, mm); err != nil {
			return err
		}
		return w.finish(ctx, e, mm, false)
	}
	n, err := w.update(ctx, mm)
	if err != nil {
		return err
	}
	if n > 0 {
		return w.finish(ctx, e, mm, true)
	}
	if err := w.insert(ctx, e, mm); err != nil {
		return err
	}
	return w.finish(ctx, e, mm, false)
}

// update updates the row of mm and returns the number of matched rows. An
// entity without columns rewrites its primary key, so that an existing row
// still counts as updated.
func (w *writer) update(ctx context.Context, mm *ModelMap) (int64, error) {
	where, err := w.s.builder.KeyPredicate(mm.Type, mm.Key)
	if err != nil {
		return 0, err
	}
	values := mm.Columns
	if len(values) == 0 {
		kv, err := w.s.mapper.KeyValue(mm)
		if err != nil {
			return 0, err
		}
		values = []dialect.Value{{Column: w.s.meta.ColumnName(mm.PK), V: kv}}
	}
	return w.s.exec().Update(ctx, mm.Table, values, where)
}

// insert inserts the row of mm. A database-generated key is assigned back
// to e.
func (w *writer) insert(ctx context.Context, e schema.Entity, mm *ModelMap) error {
	values, idColumn := mm.Columns, ""
	if mm.AutoKey() {
		pkColumn := w.s.meta.ColumnName(mm.PK)
		if adapter.IsDefault(mm.Key) {
			idColumn = pkColumn
		} else {
			kv, err := w.s.mapper.KeyValue(mm)
			if err != nil {
				return err
			}
			values = append([]dialect.Value{{Column: pkColumn, V: kv}}, values...)
		}
	}
	id, err := w.s.exec().Insert(ctx, mm.Table, values, idColumn)
	if err != nil {
		return err
	}
	if idColumn == "" {
		return nil
	}
	key, err := w.s.adapters.FromStorage(mm.PK.GoType, id)
	if err != nil {
		return fieldErr(mm.Type, mm.PK, err)
	}
	if err := e.Set(mm.PK.Name, key); err != nil {
		return fieldErr(mm.Type, mm.PK, err)
	}
	w.s.track(change{e: e, field: mm.PK.Name})
	mm.Key = e.Get(mm.PK.Name)
	return nil
}

// finish marks e as written, caches it and cascades to its relationships.
// updated tells if the row existed before this write.
func (w *writer) finish(ctx context.Context, e schema.Entity, mm *ModelMap, updated bool) error {
	id := mm.Identity()
	w.seen[id] = true
	w.visited[e] = true
	w.s.remember(id, e)

	mode := w.s.meta.CascadeModeOf(mm.Type)
	if mode == schema.CascadeNone {
		return nil
	}
	c := &cascade{writer: w, mode: mode, mm: mm, updated: updated}
	for _, rv := range mm.ManyToMany {
		if err := c.manyToMany(ctx, rv); err != nil {
			return err
		}
	}
	for _, rv := range mm.ManyToOne {
		if err := c.manyToOne(ctx, rv); err != nil {
			return err
		}
	}
	for _, rv := range mm.OneToMany {
		if err := c.oneToMany(ctx, rv); err != nil {
			return err
		}
	}
	for _, rv := range mm.OneToOne {
		if err := c.oneToOne(ctx, rv); err != nil {
			return err
		}
	}
	return nil
}

// cascade writes the relationships of one entity. Unresolved handles are
// skipped: the caller did not change them.
type cascade struct {
	*writer
	mode    schema.CascadeMode
	mm      *ModelMap
	updated bool
}

// related prepares r for a key write and returns its primary key. Under
// CascadeAll r is saved or updated first; under CascadeKeys an entity
// whose key is still default is skipped and ok is false.
func (c *cascade) related(ctx context.Context, rv RelationValue, r schema.Entity) (key any, ok bool, err error) {
	if c.mode == schema.CascadeAll {
		if err := c.saveOrUpdate(ctx, r); err != nil {
			return nil, false, err
		}
	}
	key, err = c.s.builder.EntityKey(r)
	if err != nil {
		return nil, false, err
	}
	if adapter.IsDefault(key) {
		c.s.log.DebugContext(ctx, "skipping related entity without key",
			"type", c.mm.Type, "field", rv.Field.Name, "target", r.EntityName())
		return nil, false, nil
	}
	return key, true, nil
}

func (c *cascade) execute(ctx context.Context, query string, err error) error {
	if err != nil {
		return err
	}
	_, err = c.s.exec().Execute(ctx, query)
	return err
}

func (c *cascade) manyToMany(ctx context.Context, rv RelationValue) error {
	es, ok := rv.Many.PeekEntities()
	if !ok {
		return nil
	}
	b := c.s.builder
	name := rv.Field.Name
	jt, err := b.JoinTable(c.mm.Type, name)
	if err != nil {
		return err
	}
	kv, err := c.s.mapper.KeyValue(c.mm)
	if err != nil {
		return err
	}
	keep := make([]any, 0, len(es))
	for _, r := range es {
		rk, ok, err := c.related(ctx, rv, r)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		keep = append(keep, rk)
		query, err := b.JoinRowExistsQuery(c.mm.Type, name, c.mm.Key, rk)
		if err != nil {
			return err
		}
		n, err := c.s.count(ctx, query)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		rkv, err := b.KeyValue(rv.Relation.Target, rk)
		if err != nil {
			return err
		}
		values := []dialect.Value{{Column: jt.Self, V: kv}, {Column: jt.Other, V: rkv}}
		if _, err := c.s.exec().Insert(ctx, jt.Name, values, ""); err != nil {
			return err
		}
	}
	c.s.log.DebugContext(ctx, "removing stale join rows", "table", jt.Name, "kept", len(keep))
	query, err := b.DeleteStaleJoinRowsQuery(c.mm.Type, name, c.mm.Key, keep)
	return c.execute(ctx, query, err)
}

func (c *cascade) manyToOne(ctx context.Context, rv RelationValue) error {
	r, ok := rv.One.PeekEntity()
	if !ok {
		return nil
	}
	if r == nil {
		if !c.updated {
			return nil
		}
		query, err := c.s.builder.UpdateForeignKeyQuery(c.mm.Type, rv.Field.Name, c.mm.Key, nil)
		return c.execute(ctx, query, err)
	}
	rk, ok, err := c.related(ctx, rv, r)
	if err != nil || !ok {
		return err
	}
	query, err := c.s.builder.UpdateForeignKeyQuery(c.mm.Type, rv.Field.Name, c.mm.Key, rk)
	return c.execute(ctx, query, err)
}

func (c *cascade) oneToMany(ctx context.Context, rv RelationValue) error {
	es, ok := rv.Many.PeekEntities()
	if !ok {
		return nil
	}
	keep := make([]any, 0, len(es))
	for _, r := range es {
		rk, ok, err := c.related(ctx, rv, r)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		keep = append(keep, rk)
		query, err := c.s.builder.UpdateForeignKeyQuery(c.mm.Type, rv.Field.Name, c.mm.Key, rk)
		if err := c.execute(ctx, query, err); err != nil {
			return err
		}
	}
	if !c.updated {
		return nil
	}
	c.s.log.DebugContext(ctx, "detaching stale children", "type", c.mm.Type, "field", rv.Field.Name, "kept", len(keep))
	query, err := c.s.builder.DetachStaleChildrenQuery(c.mm.Type, rv.Field.Name, c.mm.Key, keep)
	return c.execute(ctx, query, err)
}

func (c *cascade) oneToOne(ctx context.Context, rv RelationValue) error {
	r, ok := rv.One.PeekEntity()
	if !ok {
		return nil
	}
	if r == nil {
		if !c.updated {
			return nil
		}
		query, err := c.s.builder.ClearForeignKeyQuery(c.mm.Type, rv.Field.Name, c.mm.Key)
		return c.execute(ctx, query, err)
	}
	rk, ok, err := c.related(ctx, rv, r)
	if err != nil || !ok {
		return err
	}
	query, err := c.s.builder.UpdateOneToOneForeignKeyQuery(c.mm.Type, rv.Field.Name, c.mm.Key, rk)
	return c.execute(ctx, query, err)
}
