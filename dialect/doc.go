// Package dialect defines the driver surface the persistence layer runs on.
//
// A Driver hands out pinned connections. A Conn executes statements and
// begins native transactions; the session issues savepoints on the
// transaction for nested levels:
//
//	conn, err := drv.Conn(ctx)
//	tx, err := conn.Begin(ctx)
//	id, err := tx.Insert(ctx, "orders", []dialect.Value{{Column: "total", V: 9.5}}, "id")
//	rows, err := tx.Query(ctx, "SELECT * FROM orders WHERE id = 1")
//	list, err := dialect.ScanAll(rows)
//
// Failures are reported as *GrammarError or *ConstraintError. The
// database/sql implementation lives in dialect/sql.
package dialect
