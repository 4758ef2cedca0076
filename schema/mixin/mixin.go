// Package mixin provides reusable sets of fields and indexes for entity
// types.
//
//	schema.Define("Order").
//		Mixin(mixin.ID{}, mixin.Time{}).
//		Fields(schema.Float64("total"))
//
// Mixin fields are plain columns: the application assigns timestamps.
package mixin

import (
	"github.com/syssam/cascade/schema"
	"github.com/syssam/cascade/schema/index"
)

// Schema is an empty mixin to embed in custom mixins.
type Schema struct{}

// Fields implements schema.Mixin.
func (Schema) Fields() []schema.FieldDescriber { return nil }

// Indexes implements schema.Mixin.
func (Schema) Indexes() []schema.IndexDescriber { return nil }

var _ schema.Mixin = Schema{}

// ID adds an auto-increment int64 primary key named id.
type ID struct {
	Schema
}

// Fields implements schema.Mixin.
func (ID) Fields() []schema.FieldDescriber {
	return []schema.FieldDescriber{
		schema.Int64("id").PrimaryKey().AutoIncrement(),
	}
}

// UUID adds a uuid.UUID primary key named id.
type UUID struct {
	Schema
}

// Fields implements schema.Mixin.
func (UUID) Fields() []schema.FieldDescriber {
	return []schema.FieldDescriber{
		schema.UUID("id").PrimaryKey(),
	}
}

// CreateTime adds created_at.
type CreateTime struct {
	Schema
}

// Fields implements schema.Mixin.
func (CreateTime) Fields() []schema.FieldDescriber {
	return []schema.FieldDescriber{schema.Time("created_at")}
}

// UpdateTime adds updated_at.
type UpdateTime struct {
	Schema
}

// Fields implements schema.Mixin.
func (UpdateTime) Fields() []schema.FieldDescriber {
	return []schema.FieldDescriber{schema.Time("updated_at")}
}

// Time adds created_at and updated_at.
type Time struct {
	Schema
}

// Fields implements schema.Mixin.
func (Time) Fields() []schema.FieldDescriber {
	return append(CreateTime{}.Fields(), UpdateTime{}.Fields()...)
}

// SoftDelete adds a nullable deleted_at timestamp and an index on it.
// A nil value means the entity is not deleted.
type SoftDelete struct {
	Schema
}

// Fields implements schema.Mixin.
func (SoftDelete) Fields() []schema.FieldDescriber {
	return []schema.FieldDescriber{schema.Of("deleted_at", "*time.Time")}
}

// Indexes implements schema.Mixin.
func (SoftDelete) Indexes() []schema.IndexDescriber {
	return []schema.IndexDescriber{index.Fields("deleted_at")}
}

// TimeSoftDelete combines Time and SoftDelete.
type TimeSoftDelete struct {
	Schema
}

// Fields implements schema.Mixin.
func (TimeSoftDelete) Fields() []schema.FieldDescriber {
	return append(Time{}.Fields(), SoftDelete{}.Fields()...)
}

// Indexes implements schema.Mixin.
func (TimeSoftDelete) Indexes() []schema.IndexDescriber {
	return SoftDelete{}.Indexes()
}
