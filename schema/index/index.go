// Package index declares secondary indexes of entity types.
//
//	schema.Define("Customer").
//		Fields(...).
//		Indexes(
//			index.Fields("last_name", "first_name"),
//			index.Fields("email").Unique().StorageKey("customers_email"),
//		)
package index

import "github.com/syssam/cascade/schema"

// Builder is a fluent builder for indexes.
type Builder struct {
	desc *schema.Index
}

// Fields starts an index over the given scalar fields, in order.
func Fields(fields ...string) *Builder {
	return &Builder{desc: &schema.Index{Fields: fields}}
}

// Unique makes the index a uniqueness constraint.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// StorageKey sets the index name in the database.
func (b *Builder) StorageKey(name string) *Builder {
	b.desc.Name = name
	return b
}

// Descriptor implements schema.IndexDescriber.
func (b *Builder) Descriptor() *schema.Index { return b.desc }
