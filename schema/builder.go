package schema

import "github.com/syssam/cascade/schema/field"

// TypeBuilder is a fluent builder for entity types.
type TypeBuilder struct {
	desc *Type
}

// Define starts the definition of the entity type name.
//
//	schema.Define("Order").
//		Cascade(schema.CascadeAll).
//		Fields(
//			schema.Int64("id").PrimaryKey().AutoIncrement(),
//			schema.Float64("total"),
//			edge.OneToMany("items", "LineItem").Column("order_id"),
//		).
//		New(func() schema.Entity { return &Order{} })
func Define(name string) *TypeBuilder {
	return &TypeBuilder{desc: &Type{Name: name}}
}

// Table overrides the default table name.
func (b *TypeBuilder) Table(name string) *TypeBuilder {
	b.desc.Table = name
	return b
}

// Cascade sets the cascade mode of the type.
func (b *TypeBuilder) Cascade(m CascadeMode) *TypeBuilder {
	b.desc.Cascade = m
	return b
}

// Lazy makes the relationships of the type load on first access.
func (b *TypeBuilder) Lazy() *TypeBuilder {
	b.desc.Lazy = true
	return b
}

// Fields appends fields to the type.
func (b *TypeBuilder) Fields(fs ...FieldDescriber) *TypeBuilder {
	for _, f := range fs {
		b.desc.Fields = append(b.desc.Fields, f.Descriptor())
	}
	return b
}

// Indexes appends secondary indexes to the type.
func (b *TypeBuilder) Indexes(is ...IndexDescriber) *TypeBuilder {
	for _, i := range is {
		b.desc.Indexes = append(b.desc.Indexes, i.Descriptor())
	}
	return b
}

// Mixin is a reusable set of fields and indexes.
type Mixin interface {
	Fields() []FieldDescriber
	Indexes() []IndexDescriber
}

// Mixin appends the fields and indexes of each mixin to the type.
func (b *TypeBuilder) Mixin(ms ...Mixin) *TypeBuilder {
	for _, m := range ms {
		b.Fields(m.Fields()...)
		b.Indexes(m.Indexes()...)
	}
	return b
}

// New sets the constructor used when rows are materialized.
func (b *TypeBuilder) New(fn func() Entity) *TypeBuilder {
	b.desc.New = fn
	return b
}

// Descriptor implements TypeDescriber.
func (b *TypeBuilder) Descriptor() *Type { return b.desc }

// FieldBuilder is a fluent builder for scalar fields.
type FieldBuilder struct {
	desc *Field
}

// Of returns a builder for a field of an arbitrary Go type. The type name
// must match an adapter registered in the adapter registry.
func Of(name, goType string) *FieldBuilder {
	return &FieldBuilder{desc: &Field{Name: name, GoType: goType}}
}

// Bool returns a builder for a bool field.
func Bool(name string) *FieldBuilder { return Of(name, field.TypeBool) }

// Int returns a builder for an int field.
func Int(name string) *FieldBuilder { return Of(name, field.TypeInt) }

// Int32 returns a builder for an int32 field.
func Int32(name string) *FieldBuilder { return Of(name, field.TypeInt32) }

// Int64 returns a builder for an int64 field.
func Int64(name string) *FieldBuilder { return Of(name, field.TypeInt64) }

// Float64 returns a builder for a float64 field.
func Float64(name string) *FieldBuilder { return Of(name, field.TypeFloat64) }

// String returns a builder for a string field.
func String(name string) *FieldBuilder { return Of(name, field.TypeString) }

// Bytes returns a builder for a []byte field.
func Bytes(name string) *FieldBuilder { return Of(name, field.TypeBytes) }

// Time returns a builder for a time.Time field.
func Time(name string) *FieldBuilder { return Of(name, field.TypeTime) }

// UUID returns a builder for a uuid.UUID field.
func UUID(name string) *FieldBuilder { return Of(name, field.TypeUUID) }

// Column overrides the default column name.
func (b *FieldBuilder) Column(name string) *FieldBuilder {
	b.desc.Column = name
	return b
}

// PrimaryKey marks the field as the primary key.
func (b *FieldBuilder) PrimaryKey() *FieldBuilder {
	b.desc.PK = true
	return b
}

// AutoIncrement marks an integral primary key as assigned by the database.
func (b *FieldBuilder) AutoIncrement() *FieldBuilder {
	b.desc.AutoIncrement = true
	return b
}

// Nillable allows NULL in the column. Pointer and sql.Null* Go types are
// nillable implicitly.
func (b *FieldBuilder) Nillable() *FieldBuilder {
	b.desc.Nullable = true
	return b
}

// Unique adds a uniqueness constraint to the column.
func (b *FieldBuilder) Unique() *FieldBuilder {
	b.desc.Unique = true
	return b
}

// Descriptor implements FieldDescriber.
func (b *FieldBuilder) Descriptor() *Field { return b.desc }
