package schema

import (
	"context"
	"fmt"
)

// Entity is implemented by every persistent domain type. Implementations are
// pointer types acting as an explicit accessor table: Get and Set address
// fields by their schema name, so no reflection is involved.
//
// For relationship fields, Get returns the field's handle, which implements
// ToOne or ToMany. Set is only called for scalar fields.
type Entity interface {
	EntityName() string
	Get(field string) any
	Set(field string, value any) error
}

// ToOne is the view the persistence engine has of a single-valued
// relationship field (many-to-one or one-to-one).
type ToOne interface {
	// PeekEntity returns the related entity without resolving a deferred
	// value. The boolean is false while the handle is unresolved or was
	// never assigned.
	PeekEntity() (Entity, bool)
	// SetEntity resolves the handle to e. A nil e clears the relation.
	SetEntity(e Entity) error
	// DeferEntity makes the handle unresolved; fn runs on first access.
	DeferEntity(fn func(context.Context) (Entity, error))
}

// ToMany is the view the persistence engine has of a collection-valued
// relationship field (one-to-many or many-to-many).
type ToMany interface {
	// PeekEntities is the collection form of ToOne.PeekEntity.
	PeekEntities() ([]Entity, bool)
	SetEntities(es []Entity) error
	DeferEntities(fn func(context.Context) ([]Entity, error))
}

// Identity is the identity of a persisted entity: its table and the
// canonical rendering of its primary-key value.
type Identity struct {
	Table string
	Key   string
}

// NewIdentity returns the identity of the row with primary key pk in table.
func NewIdentity(table string, pk any) Identity {
	return Identity{Table: table, Key: canonicalKey(pk)}
}

// String implements fmt.Stringer.
func (id Identity) String() string { return id.Table + "#" + id.Key }

func canonicalKey(pk any) string {
	switch v := pk.(type) {
	case nil:
		return ""
	case []byte:
		return fmt.Sprintf("%x", v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// CascadeMode controls how relationships are written with their owner.
type CascadeMode uint8

const (
	// CascadeNone ignores relationships on write.
	CascadeNone CascadeMode = iota
	// CascadeKeys writes foreign keys and join rows only. Related entities
	// must already exist with non-default primary keys.
	CascadeKeys
	// CascadeAll saves or updates related entities recursively.
	CascadeAll
)

// String implements fmt.Stringer.
func (m CascadeMode) String() string {
	switch m {
	case CascadeNone:
		return "none"
	case CascadeKeys:
		return "keys"
	case CascadeAll:
		return "all"
	}
	return fmt.Sprintf("CascadeMode(%d)", m)
}

// ParseCascadeMode parses the names returned by CascadeMode.String.
func ParseCascadeMode(s string) (CascadeMode, error) {
	switch s {
	case "", "none", "NONE":
		return CascadeNone, nil
	case "keys", "KEYS":
		return CascadeKeys, nil
	case "all", "ALL":
		return CascadeAll, nil
	}
	return CascadeNone, fmt.Errorf("schema: unknown cascade mode %q", s)
}

// RelationKind is the cardinality of a relationship.
type RelationKind uint8

// Relationship kinds, in the order the persistence engine processes them.
const (
	ManyToMany RelationKind = iota + 1
	ManyToOne
	OneToMany
	OneToOne
)

// String implements fmt.Stringer.
func (k RelationKind) String() string {
	switch k {
	case ManyToMany:
		return "M2M"
	case ManyToOne:
		return "M2O"
	case OneToMany:
		return "O2M"
	case OneToOne:
		return "O2O"
	}
	return fmt.Sprintf("RelationKind(%d)", k)
}

// Single reports if the relationship holds a single entity.
func (k RelationKind) Single() bool { return k == ManyToOne || k == OneToOne }

// ParseRelationKind parses the long and short relationship names.
func ParseRelationKind(s string) (RelationKind, error) {
	switch s {
	case "M2M", "many_to_many", "ManyToMany":
		return ManyToMany, nil
	case "M2O", "many_to_one", "ManyToOne":
		return ManyToOne, nil
	case "O2M", "one_to_many", "OneToMany":
		return OneToMany, nil
	case "O2O", "one_to_one", "OneToOne":
		return OneToOne, nil
	}
	return 0, fmt.Errorf("schema: unknown relation kind %q", s)
}
