package cascade

import (
	"github.com/syssam/cascade/adapter"
	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
)

// ModelMap is the flattened form of one entity: its column values and its
// relationships grouped by kind. It is built fresh on every Map call.
type ModelMap struct {
	Type  string
	Table string
	// PK is the primary-key field and Key its current value.
	PK  *schema.Field
	Key any
	// Columns holds the storage values of the scalar fields in declaration
	// order. Auto-increment primary keys and foreign keys are never part of
	// it.
	Columns []dialect.Value

	ManyToMany []RelationValue
	ManyToOne  []RelationValue
	OneToMany  []RelationValue
	OneToOne   []RelationValue
}

// AutoKey reports if the primary key is assigned by the database.
func (m *ModelMap) AutoKey() bool { return m.PK.AutoIncrement }

// Identity returns the identity of the mapped entity.
func (m *ModelMap) Identity() schema.Identity { return schema.NewIdentity(m.Table, m.Key) }

// RelationValue is one relationship of a mapped entity. One is set for
// single-valued relationships and Many for collections.
type RelationValue struct {
	Field    *schema.Field
	Relation *schema.Relation
	One      schema.ToOne
	Many     schema.ToMany
}

// Mapper converts entities into model maps.
type Mapper struct {
	meta     schema.Metadata
	adapters *adapter.Registry
}

// NewMapper returns a Mapper reading metadata from meta and converting values
// with adapters.
func NewMapper(meta schema.Metadata, adapters *adapter.Registry) *Mapper {
	return &Mapper{meta: meta, adapters: adapters}
}

// Map returns the model map of e. It fails with a ModelConfigurationError if
// the type of e is not persistent and with an InvalidMappingError if a field
// type has no adapter.
func (m *Mapper) Map(e schema.Entity) (*ModelMap, error) {
	typ := e.EntityName()
	table, err := m.meta.TableName(typ)
	if err != nil {
		return nil, err
	}
	fields, err := m.meta.PersistentFields(typ)
	if err != nil {
		return nil, err
	}
	pk, err := m.meta.PrimaryKeyField(typ)
	if err != nil {
		return nil, err
	}
	mm := &ModelMap{Type: typ, Table: table, PK: pk, Key: e.Get(pk.Name)}
	for _, f := range fields {
		if rel := m.meta.RelationshipOf(f); rel != nil {
			rv, err := relationValue(typ, f, rel, e.Get(f.Name))
			if err != nil {
				return nil, err
			}
			switch rel.Kind {
			case schema.ManyToMany:
				mm.ManyToMany = append(mm.ManyToMany, rv)
			case schema.ManyToOne:
				mm.ManyToOne = append(mm.ManyToOne, rv)
			case schema.OneToMany:
				mm.OneToMany = append(mm.OneToMany, rv)
			case schema.OneToOne:
				mm.OneToOne = append(mm.OneToOne, rv)
			}
			continue
		}
		if f.PK && f.AutoIncrement {
			continue
		}
		v, _, err := m.adapters.ToStorage(f.GoType, e.Get(f.Name))
		if err != nil {
			return nil, fieldErr(typ, f, err)
		}
		mm.Columns = append(mm.Columns, dialect.Value{Column: m.meta.ColumnName(f), V: v})
	}
	return mm, nil
}

// Identity returns the identity of e.
func (m *Mapper) Identity(e schema.Entity) (schema.Identity, error) {
	typ := e.EntityName()
	table, err := m.meta.TableName(typ)
	if err != nil {
		return schema.Identity{}, err
	}
	pk, err := m.meta.PrimaryKeyField(typ)
	if err != nil {
		return schema.Identity{}, err
	}
	return schema.NewIdentity(table, e.Get(pk.Name)), nil
}

// KeyValue returns the storage value of the mapped primary key.
func (m *Mapper) KeyValue(mm *ModelMap) (any, error) {
	v, _, err := m.adapters.ToStorage(mm.PK.GoType, mm.Key)
	if err != nil {
		return nil, fieldErr(mm.Type, mm.PK, err)
	}
	return v, nil
}

func relationValue(typ string, f *schema.Field, rel *schema.Relation, h any) (RelationValue, error) {
	rv := RelationValue{Field: f, Relation: rel}
	var ok bool
	if rel.Kind.Single() {
		rv.One, ok = h.(schema.ToOne)
	} else {
		rv.Many, ok = h.(schema.ToMany)
	}
	if !ok {
		return rv, &ModelConfigurationError{Type: typ, Field: f.Name, Msg: "accessor does not return a relationship handle"}
	}
	return rv, nil
}

func fieldErr(typ string, f *schema.Field, err error) error {
	if me, ok := err.(*InvalidMappingError); ok {
		me.Type, me.Field = typ, f.Name
		return me
	}
	return &InvalidMappingError{Type: typ, GoType: f.GoType, Field: f.Name, Err: err}
}
