package edge

import "github.com/syssam/cascade/schema"

// Builder is a fluent builder for relationship fields.
type Builder struct {
	desc *schema.Field
}

func newBuilder(name, target string, kind schema.RelationKind) *Builder {
	return &Builder{desc: &schema.Field{
		Name: name,
		Rel:  &schema.Relation{Kind: kind, Target: target},
	}}
}

// ManyToOne declares a single-valued reference whose foreign key lives in
// the declaring table.
func ManyToOne(name, target string) *Builder {
	return newBuilder(name, target, schema.ManyToOne)
}

// OneToMany declares a collection whose foreign key lives in the target
// table.
func OneToMany(name, target string) *Builder {
	return newBuilder(name, target, schema.OneToMany)
}

// OneToOne declares a single-valued reference. The foreign key lives in the
// table of the owner, which defaults to the declaring type.
func OneToOne(name, target string) *Builder {
	return newBuilder(name, target, schema.OneToOne)
}

// ManyToMany declares a collection stored in a join table.
func ManyToMany(name, target string) *Builder {
	return newBuilder(name, target, schema.ManyToMany)
}

// Column sets the foreign-key column.
func (b *Builder) Column(name string) *Builder {
	b.desc.Rel.Column = name
	return b
}

// Owner sets the one-to-one side whose table holds the foreign key.
func (b *Builder) Owner(typ string) *Builder {
	b.desc.Rel.Owner = typ
	return b
}

// Through sets the many-to-many join table.
func (b *Builder) Through(table string) *Builder {
	b.desc.Rel.JoinTable = table
	return b
}

// Inverse marks the declaring type as the second many-to-many participant.
func (b *Builder) Inverse() *Builder {
	b.desc.Rel.Inverse = true
	return b
}

// Ref names the relationship field on the target that describes the same
// edge from the other side.
func (b *Builder) Ref(field string) *Builder {
	b.desc.Rel.Ref = field
	return b
}

// Descriptor implements schema.FieldDescriber.
func (b *Builder) Descriptor() *schema.Field { return b.desc }
