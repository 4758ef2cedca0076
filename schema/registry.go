package schema

import (
	"strings"
	"sync"

	"github.com/go-openapi/inflect"

	"github.com/syssam/cascade/schema/field"
)

// Metadata is the view of the entity declarations consumed by the mapping,
// SQL generation and persistence layers.
type Metadata interface {
	IsPersistent(typ string) bool
	TableName(typ string) (string, error)
	// PersistentFields returns all fields of typ, scalar and relationship,
	// in declaration order.
	PersistentFields(typ string) ([]*Field, error)
	PrimaryKeyField(typ string) (*Field, error)
	ColumnName(f *Field) string
	IsNullable(f *Field) bool
	IsUnique(f *Field) bool
	RelationshipOf(f *Field) *Relation
	CascadeModeOf(typ string) CascadeMode
	IsLazy(typ string) bool
	// New allocates a zero-valued instance of typ.
	New(typ string) (Entity, error)
	// TypeNames returns the registered types in registration order.
	TypeNames() []string
	// Indexes returns the secondary indexes of typ.
	Indexes(typ string) ([]*Index, error)
}

// Registry holds entity type declarations and implements Metadata.
// Types are added with Register and checked as a whole with Validate.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
	order []string
}

var _ Metadata = (*Registry)(nil)

// NewRegistry registers and validates the given types.
func NewRegistry(defs ...TypeDescriber) (*Registry, error) {
	r := &Registry{types: make(map[string]*Type)}
	if err := r.Register(defs...); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(defs ...TypeDescriber) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds types to the registry and fills in local defaults (table
// and column names). Cross-type defaults are resolved by Validate.
func (r *Registry) Register(defs ...TypeDescriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = make(map[string]*Type)
	}
	for _, d := range defs {
		t := d.Descriptor()
		if t == nil || t.Name == "" {
			return configErr("", "", "type without a name")
		}
		if _, ok := r.types[t.Name]; ok {
			return configErr(t.Name, "", "type registered twice")
		}
		if t.Table == "" {
			t.Table = inflect.Pluralize(inflect.Underscore(t.Name))
		}
		for _, f := range t.Fields {
			if f.Rel != nil {
				f.Rel.Type = t.Name
				continue
			}
			if f.Column == "" {
				f.Column = inflect.Underscore(f.Name)
			}
		}
		r.types[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return nil
}

// Validate checks every registered type and resolves relationship defaults:
// foreign-key column names, one-to-one owners and join-table names.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		if err := r.checkType(r.types[name]); err != nil {
			return err
		}
	}
	// Key-owning sides first, so the inverse sides can copy their columns.
	for _, pass := range [][]RelationKind{{ManyToOne}, {OneToOne}, {OneToMany, ManyToMany}} {
		for _, name := range r.order {
			t := r.types[name]
			for _, f := range t.Relations() {
				if !containsKind(pass, f.Rel.Kind) {
					continue
				}
				if err := r.resolve(t, f); err != nil {
					return err
				}
			}
		}
	}
	if err := r.checkColumns(); err != nil {
		return err
	}
	return r.checkIndexes()
}

func (r *Registry) checkType(t *Type) error {
	if len(t.Fields) == 0 {
		return configErr(t.Name, "", "no persistent fields")
	}
	var pks int
	names := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name == "" {
			return configErr(t.Name, "", "field without a name")
		}
		if names[f.Name] {
			return configErr(t.Name, f.Name, "field declared twice")
		}
		names[f.Name] = true
		if f.PK {
			pks++
		}
		switch {
		case f.Rel != nil:
			if f.PK {
				return configErr(t.Name, f.Name, "relationship cannot be the primary key")
			}
			if f.Rel.Kind < ManyToMany || f.Rel.Kind > OneToOne {
				return configErr(t.Name, f.Name, "unknown relationship kind %d", f.Rel.Kind)
			}
			if _, ok := r.types[f.Rel.Target]; !ok {
				return configErr(t.Name, f.Name, "unknown target type %q", f.Rel.Target)
			}
		case f.GoType == "":
			return configErr(t.Name, f.Name, "missing Go type")
		case f.AutoIncrement && !f.PK:
			return configErr(t.Name, f.Name, "auto-increment on a non primary-key field")
		case f.AutoIncrement && !field.IsIntegral(f.GoType):
			return configErr(t.Name, f.Name, "auto-increment on non-integral type %s", f.GoType)
		}
	}
	switch {
	case pks == 0:
		return configErr(t.Name, "", "missing primary key")
	case pks > 1:
		return configErr(t.Name, "", "ambiguous primary key: %d fields marked", pks)
	}
	return nil
}

func (r *Registry) resolve(t *Type, f *Field) error {
	rel := f.Rel
	target := r.types[rel.Target]
	peer, err := r.counterpart(t, f)
	if err != nil {
		return err
	}
	switch rel.Kind {
	case ManyToOne:
		if peer != nil && peer.Rel.Kind != OneToMany {
			return configErr(t.Name, f.Name, "inverse %s.%s must be one-to-many", target.Name, peer.Name)
		}
		if rel.Column == "" {
			rel.Column = inflect.Underscore(f.Name) + "_" + target.PrimaryKey().Column
		}
	case OneToMany:
		switch {
		case peer != nil && peer.Rel.Kind != ManyToOne:
			return configErr(t.Name, f.Name, "inverse %s.%s must be many-to-one", target.Name, peer.Name)
		case peer != nil && rel.Column == "":
			rel.Column = peer.Rel.Column
		case peer != nil && rel.Column != peer.Rel.Column:
			return configErr(t.Name, f.Name, "column %q disagrees with %s.%s column %q", rel.Column, target.Name, peer.Name, peer.Rel.Column)
		case rel.Column == "":
			rel.Column = inflect.Underscore(t.Name) + "_" + t.PrimaryKey().Column
		}
	case OneToOne:
		return r.resolveOneToOne(t, f, peer)
	case ManyToMany:
		return r.resolveManyToMany(t, f, peer)
	}
	return nil
}

func (r *Registry) resolveOneToOne(t *Type, f, peer *Field) error {
	rel := f.Rel
	if peer != nil && peer.Rel.Kind != OneToOne {
		return configErr(t.Name, f.Name, "inverse %s.%s must be one-to-one", rel.Target, peer.Name)
	}
	if peer != nil && peer != f {
		switch {
		case rel.Owner == "" && peer.Rel.Owner == "":
			return configErr(t.Name, f.Name, "one-to-one pair with %s.%s has no owner", rel.Target, peer.Name)
		case rel.Owner == "":
			rel.Owner = peer.Rel.Owner
		case peer.Rel.Owner == "":
			peer.Rel.Owner = rel.Owner
		case rel.Owner != peer.Rel.Owner:
			return configErr(t.Name, f.Name, "one-to-one pair with %s.%s has two owners", rel.Target, peer.Name)
		}
	}
	if rel.Owner == "" {
		rel.Owner = t.Name
	}
	if rel.Owner != t.Name && rel.Owner != rel.Target {
		return configErr(t.Name, f.Name, "owner %q is not a participant", rel.Owner)
	}
	if peer != nil && peer != f && peer.Rel.Column != "" {
		if rel.Column == "" {
			rel.Column = peer.Rel.Column
		} else if rel.Column != peer.Rel.Column {
			return configErr(t.Name, f.Name, "column %q disagrees with %s.%s column %q", rel.Column, rel.Target, peer.Name, peer.Rel.Column)
		}
	}
	if rel.Column == "" {
		if rel.OwnsKey() {
			rel.Column = inflect.Underscore(f.Name) + "_" + r.types[rel.Target].PrimaryKey().Column
		} else {
			rel.Column = inflect.Underscore(t.Name) + "_" + t.PrimaryKey().Column
		}
	}
	if peer != nil && peer != f && peer.Rel.Column == "" {
		peer.Rel.Column = rel.Column
	}
	return nil
}

func (r *Registry) resolveManyToMany(t *Type, f, peer *Field) error {
	rel := f.Rel
	if peer != nil && peer.Rel.Kind != ManyToMany {
		return configErr(t.Name, f.Name, "inverse %s.%s must be many-to-many", rel.Target, peer.Name)
	}
	if peer != nil && peer != f {
		if rel.Inverse == peer.Rel.Inverse {
			return configErr(t.Name, f.Name, "exactly one side of the many-to-many pair with %s.%s must be inverse", rel.Target, peer.Name)
		}
		switch {
		case rel.JoinTable == "":
			rel.JoinTable = peer.Rel.JoinTable
		case peer.Rel.JoinTable == "":
			peer.Rel.JoinTable = rel.JoinTable
		case rel.JoinTable != peer.Rel.JoinTable:
			return configErr(t.Name, f.Name, "join table %q disagrees with %s.%s join table %q", rel.JoinTable, rel.Target, peer.Name, peer.Rel.JoinTable)
		}
	}
	if rel.JoinTable == "" {
		first, second := t, r.types[rel.Target]
		if rel.Inverse {
			first, second = second, first
		}
		rel.JoinTable = first.Table + "_" + second.Table
		if peer != nil && peer != f {
			peer.Rel.JoinTable = rel.JoinTable
		}
	}
	return nil
}

// counterpart returns the relationship field on the target describing the
// same edge as f, or nil when the edge is declared on one side only.
func (r *Registry) counterpart(t *Type, f *Field) (*Field, error) {
	target := r.types[f.Rel.Target]
	if f.Rel.Ref != "" {
		peer := target.Field(f.Rel.Ref)
		if peer == nil || peer.Rel == nil || peer.Rel.Target != t.Name {
			return nil, configErr(t.Name, f.Name, "reference %s.%s is not a relationship to %s", target.Name, f.Rel.Ref, t.Name)
		}
		return peer, nil
	}
	for _, p := range target.Relations() {
		if p.Rel.Target == t.Name && p.Rel.Ref == f.Name {
			return p, nil
		}
	}
	return nil, nil
}

// checkColumns rejects tables where a foreign key collides with a scalar column.
func (r *Registry) checkColumns() error {
	for _, name := range r.order {
		t := r.types[name]
		cols := make(map[string]string)
		for _, f := range t.Scalars() {
			if prev, ok := cols[f.Column]; ok {
				return configErr(t.Name, f.Name, "column %q already used by %s", f.Column, prev)
			}
			cols[f.Column] = f.Name
		}
		for _, f := range t.Relations() {
			if !f.Rel.OwnsKey() {
				continue
			}
			if prev, ok := cols[f.Rel.Column]; ok {
				return configErr(t.Name, f.Name, "foreign key %q already used by %s", f.Rel.Column, prev)
			}
			cols[f.Rel.Column] = f.Name
		}
	}
	return nil
}

// checkIndexes resolves index names and rejects indexes over unknown or
// relationship fields. Index names share one namespace per database.
func (r *Registry) checkIndexes() error {
	names := make(map[string]string)
	for _, name := range r.order {
		t := r.types[name]
		for _, idx := range t.Indexes {
			if len(idx.Fields) == 0 {
				return configErr(t.Name, "", "index without fields")
			}
			cols := make([]string, len(idx.Fields))
			for i, fn := range idx.Fields {
				f := t.Field(fn)
				switch {
				case f == nil:
					return configErr(t.Name, fn, "index over an unknown field")
				case f.Rel != nil:
					return configErr(t.Name, fn, "index over a relationship")
				}
				cols[i] = f.Column
			}
			if idx.Name == "" {
				suffix := "_idx"
				if idx.Unique {
					suffix = "_key"
				}
				idx.Name = t.Table + "_" + strings.Join(cols, "_") + suffix
			}
			if prev, ok := names[idx.Name]; ok {
				return configErr(t.Name, "", "index %q already declared by %s", idx.Name, prev)
			}
			names[idx.Name] = t.Name
		}
	}
	return nil
}

func containsKind(ks []RelationKind, k RelationKind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

// Type returns the declaration of typ.
func (r *Registry) Type(typ string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[typ]
	if !ok {
		return nil, configErr(typ, "", "type is not persistent")
	}
	return t, nil
}

// IsPersistent implements Metadata.
func (r *Registry) IsPersistent(typ string) bool {
	_, err := r.Type(typ)
	return err == nil
}

// TableName implements Metadata.
func (r *Registry) TableName(typ string) (string, error) {
	t, err := r.Type(typ)
	if err != nil {
		return "", err
	}
	return t.Table, nil
}

// PersistentFields implements Metadata.
func (r *Registry) PersistentFields(typ string) ([]*Field, error) {
	t, err := r.Type(typ)
	if err != nil {
		return nil, err
	}
	return t.Fields, nil
}

// PrimaryKeyField implements Metadata.
func (r *Registry) PrimaryKeyField(typ string) (*Field, error) {
	t, err := r.Type(typ)
	if err != nil {
		return nil, err
	}
	if pk := t.PrimaryKey(); pk != nil {
		return pk, nil
	}
	return nil, configErr(typ, "", "missing primary key")
}

// ColumnName implements Metadata. For relationships it returns the
// foreign-key column, which is empty for many-to-many.
func (r *Registry) ColumnName(f *Field) string {
	if f.Rel != nil {
		return f.Rel.Column
	}
	return f.Column
}

// IsNullable implements Metadata. Foreign keys are always nullable.
func (r *Registry) IsNullable(f *Field) bool {
	return f.Rel != nil || (!f.PK && (f.Nullable || field.IsNullable(f.GoType)))
}

// IsUnique implements Metadata.
func (r *Registry) IsUnique(f *Field) bool { return f.PK || f.Unique }

// RelationshipOf implements Metadata.
func (r *Registry) RelationshipOf(f *Field) *Relation { return f.Rel }

// CascadeModeOf implements Metadata.
func (r *Registry) CascadeModeOf(typ string) CascadeMode {
	if t, err := r.Type(typ); err == nil {
		return t.Cascade
	}
	return CascadeNone
}

// IsLazy implements Metadata.
func (r *Registry) IsLazy(typ string) bool {
	t, err := r.Type(typ)
	return err == nil && t.Lazy
}

// New implements Metadata.
func (r *Registry) New(typ string) (Entity, error) {
	t, err := r.Type(typ)
	if err != nil {
		return nil, err
	}
	if t.New == nil {
		return nil, configErr(typ, "", "no constructor registered")
	}
	e := t.New()
	if e == nil {
		return nil, configErr(typ, "", "constructor returned nil")
	}
	if name := e.EntityName(); name != typ {
		return nil, configErr(typ, "", "constructor returned a %q entity", name)
	}
	return e, nil
}

// Indexes implements Metadata.
func (r *Registry) Indexes(typ string) ([]*Index, error) {
	t, err := r.Type(typ)
	if err != nil {
		return nil, err
	}
	return t.Indexes, nil
}

// TypeNames implements Metadata.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Bind sets the constructor of an already registered type. It is used with
// declarations loaded from a schema file.
func (r *Registry) Bind(typ string, fn func() Entity) error {
	t, err := r.Type(typ)
	if err != nil {
		return err
	}
	r.mu.Lock()
	t.New = fn
	r.mu.Unlock()
	return nil
}
