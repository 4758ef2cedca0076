// Package sqlgen generates the SQL text of the persistence engine.
//
// Generation is pure: a Builder reads entity metadata and type adapters and
// returns statements, it never talks to a database. Values are rendered as
// literals according to the storage class of their column, not the run-time
// type of the value: TEXT values are single-quoted with embedded quotes
// doubled, BLOB values are hex literals and NULL stands for nil.
//
//	b := sqlgen.New(dialect.SQLite, registry, adapters)
//	query, err := b.SelectQuery(sqlgen.Query{
//		Type:   "Order",
//		Where:  []criterion.Criterion{criterion.Gt("total", 100)},
//		Order:  []criterion.Order{criterion.Desc("total")},
//		Limit:  10,
//	})
//	// SELECT * FROM orders WHERE total > 100 ORDER BY total DESC LIMIT 10
//
// Many-to-many join tables name their columns <table>_<pk>_1 and
// <table>_<pk>_2 after the first and second participant.
package sqlgen
