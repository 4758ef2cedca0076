package schema

// Type is the declarative mapping of one entity type onto a table.
type Type struct {
	// Name is the value returned by Entity.EntityName for instances.
	Name string
	// Table defaults to the pluralized snake_case form of Name.
	Table string
	// Fields holds both scalar and relationship fields.
	Fields []*Field
	// Cascade applies to all relationships of the type on write.
	Cascade CascadeMode
	// Lazy makes relationships load through deferred handles.
	Lazy bool
	// Indexes are the secondary indexes of the table.
	Indexes []*Index
	// New allocates a zero-valued instance.
	New func() Entity
}

// Descriptor implements TypeDescriber.
func (t *Type) Descriptor() *Type { return t }

// Field returns the field with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// PrimaryKey returns the primary-key field, or nil if none is declared.
func (t *Type) PrimaryKey() *Field {
	for _, f := range t.Fields {
		if f.PK {
			return f
		}
	}
	return nil
}

// Scalars returns the non-relationship fields in declaration order.
func (t *Type) Scalars() []*Field {
	fs := make([]*Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Rel == nil {
			fs = append(fs, f)
		}
	}
	return fs
}

// Relations returns the relationship fields in declaration order.
func (t *Type) Relations() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if f.Rel != nil {
			fs = append(fs, f)
		}
	}
	return fs
}

// TypeDescriber is implemented by *Type and by the type builder.
type TypeDescriber interface {
	Descriptor() *Type
}

// Field describes one persistent field.
type Field struct {
	// Name is the accessor name used with Entity.Get and Entity.Set.
	Name string
	// Column defaults to the snake_case form of Name.
	Column string
	// GoType is the Go type name used to find the field's type adapter.
	// Relationship fields leave it empty.
	GoType        string
	PK            bool
	AutoIncrement bool
	Nullable      bool
	Unique        bool
	// Rel is set for relationship fields.
	Rel *Relation
}

// Descriptor implements FieldDescriber.
func (f *Field) Descriptor() *Field { return f }

// IsRelation reports if f is a relationship field.
func (f *Field) IsRelation() bool { return f.Rel != nil }

// FieldDescriber is implemented by *Field and by the field and edge builders.
type FieldDescriber interface {
	Descriptor() *Field
}

// Relation describes a relationship declared by a field.
type Relation struct {
	Kind RelationKind
	// Type is the declaring entity type. The registry fills it in.
	Type string
	// Target is the related entity type.
	Target string
	// Column is the foreign-key column. It lives in the declaring table for
	// ManyToOne, in the target table for OneToMany and in the owner table
	// for OneToOne. ManyToMany relationships leave it empty.
	Column string
	// Owner is the OneToOne side whose table holds Column.
	Owner string
	// JoinTable is the ManyToMany join table.
	JoinTable string
	// Inverse marks the declaring type as the second ManyToMany participant.
	Inverse bool
	// Ref names the relationship field on Target describing the same edge.
	Ref string
}

// OwnsKey reports if the declaring table holds the foreign-key column.
func (r *Relation) OwnsKey() bool {
	switch r.Kind {
	case ManyToOne:
		return true
	case OneToOne:
		return r.Owner == r.Type
	}
	return false
}

// Index is a secondary index over scalar fields of a type.
type Index struct {
	// Name defaults to <table>_<columns>_idx, or _key for unique indexes.
	Name   string
	Fields []string
	Unique bool
}

// Descriptor implements IndexDescriber.
func (i *Index) Descriptor() *Index { return i }

// IndexDescriber is implemented by *Index and by the index builder.
type IndexDescriber interface {
	Descriptor() *Index
}
