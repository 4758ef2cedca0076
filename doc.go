// Package cascade maps Go entities onto relational tables and persists
// object graphs with cascading writes.
//
// Entity types expose an accessor table (EntityName, Get and Set) and are
// declared in a schema.Registry, either with the builders of the schema
// package or from a YAML document. The compiler package generates both
// from YAML.
//
//	drv, err := dsql.Open(dialect.SQLite, "file:shop.db")
//	if err != nil {
//		return err
//	}
//	s := cascade.NewSession(drv, reg, cascade.WithLogger(logger))
//	if err := s.Open(ctx); err != nil {
//		return err
//	}
//	defer s.Close()
//
//	order := &Order{Total: 12.5}
//	order.Items.Set(&LineItem{SKU: "A-1", Qty: 2})
//	if err := s.Save(ctx, order); err != nil {
//		return err
//	}
//
//	big, err := cascade.List[Order](ctx, cascade.Query[Order](s).
//		Add(criterion.Gt("total", 10)).
//		OrderBy(criterion.Desc("total")))
//
// # Cascading
//
// The cascade mode of a type decides what happens to its relationships
// when it is written. CascadeNone ignores them, CascadeKeys writes foreign
// keys and join rows for related entities that already have a key, and
// CascadeAll saves or updates related entities recursively. Relationships
// are processed in a fixed order: many-to-many, many-to-one, one-to-many,
// then one-to-one. Entities already visited during one write are skipped,
// so cyclic graphs terminate.
//
// # Sessions and transactions
//
// A Session pins one connection while open. Open and Close are reference
// counted. In autocommit mode (the default) every write runs in its own
// transaction and BeginTransaction, Commit and Rollback do nothing.
// Otherwise writes require an open transaction, and nested transactions
// are savepoints.
//
// Loaded entities are kept in a bounded identity cache, so loading the same
// row twice in one session returns the same pointer.
package cascade
