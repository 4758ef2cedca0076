// Package schema declares how entity types map onto tables.
//
// An entity is any pointer type implementing Entity. Its declaration lists
// the scalar fields, the primary key and the relationships:
//
//	schema.Define("Order").
//		Cascade(schema.CascadeAll).
//		Fields(
//			schema.Int64("id").PrimaryKey().AutoIncrement(),
//			schema.Float64("total"),
//			edge.OneToMany("items", "LineItem").Ref("order"),
//		).
//		New(func() schema.Entity { return new(Order) })
//
// Declarations are collected in a Registry, which validates them as a whole
// and fills in defaults: table names are the pluralized snake_case type
// names, foreign keys are named <field>_<target key column>, and join tables
// <first table>_<second table>. The same declarations can be read from a
// YAML document with LoadYAML.
//
// Identity is the (table, key) pair identifying a persisted row. It is used
// by the session cache and by the cycle tracking of cascaded writes.
package schema
