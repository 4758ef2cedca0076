package sqlgen

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/cascade/adapter"
	"github.com/syssam/cascade/criterion"
	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
	"github.com/syssam/cascade/schema/field"
)

// Builder generates SQL text for the types of a metadata provider. It performs
// no I/O and is safe for concurrent use as long as the adapter registry is.
type Builder struct {
	meta     schema.Metadata
	adapters *adapter.Registry
	dialect  string
}

// New returns a Builder for the given dialect. A nil adapter registry uses
// the built-in adapters.
func New(name string, meta schema.Metadata, adapters *adapter.Registry) *Builder {
	if adapters == nil {
		adapters = adapter.New()
	}
	return &Builder{meta: meta, adapters: adapters, dialect: name}
}

// Dialect returns the dialect name of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// Metadata returns the metadata provider of the builder.
func (b *Builder) Metadata() schema.Metadata { return b.meta }

// Adapters returns the type adapter registry of the builder.
func (b *Builder) Adapters() *adapter.Registry { return b.adapters }

// Literal renders a storage value of class s as a SQL literal.
func (b *Builder) Literal(v any, s field.Storage) string {
	if v == nil {
		return "NULL"
	}
	switch s {
	case field.Text:
		if str, ok := v.(string); ok {
			return b.quote(str)
		}
		return b.quote(fmt.Sprint(v))
	case field.Blob:
		bs, ok := v.([]byte)
		if !ok {
			return b.quote(fmt.Sprint(v))
		}
		if b.dialect == dialect.Postgres {
			return `'\x` + hex.EncodeToString(bs) + "'"
		}
		return "X'" + hex.EncodeToString(bs) + "'"
	}
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case string:
		return b.quote(x)
	case []byte:
		return b.quote(string(x))
	}
	return fmt.Sprint(v)
}

func (b *Builder) quote(s string) string {
	if b.dialect == dialect.MySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ValueLiteral converts v, a Go value of goType, through its adapter and
// renders it as a SQL literal.
func (b *Builder) ValueLiteral(goType string, v any) (string, error) {
	sv, s, err := b.adapters.ToStorage(goType, v)
	if err != nil {
		return "", err
	}
	return b.Literal(sv, s), nil
}

// KeyValue converts key, a primary-key value of typ, into its storage value.
func (b *Builder) KeyValue(typ string, key any) (any, error) {
	pk, err := b.meta.PrimaryKeyField(typ)
	if err != nil {
		return nil, err
	}
	sv, _, err := b.adapters.ToStorage(pk.GoType, key)
	if err != nil {
		return nil, mappingErr(typ, pk, err)
	}
	return sv, nil
}

// KeyLiteral renders key, a primary-key value of typ, as a SQL literal.
func (b *Builder) KeyLiteral(typ string, key any) (string, error) {
	pk, err := b.meta.PrimaryKeyField(typ)
	if err != nil {
		return "", err
	}
	lit, err := b.ValueLiteral(pk.GoType, key)
	if err != nil {
		return "", mappingErr(typ, pk, err)
	}
	return lit, nil
}

// KeyPredicate returns the "<pk> = <key>" predicate selecting one row of typ.
func (b *Builder) KeyPredicate(typ string, key any) (string, error) {
	pk, err := b.meta.PrimaryKeyField(typ)
	if err != nil {
		return "", err
	}
	lit, err := b.KeyLiteral(typ, key)
	if err != nil {
		return "", err
	}
	return b.meta.ColumnName(pk) + " = " + lit, nil
}

// keyList renders keys of typ as a comma separated list of literals.
func (b *Builder) keyList(typ string, keys []any) (string, error) {
	lits := make([]string, len(keys))
	for i, k := range keys {
		lit, err := b.KeyLiteral(typ, k)
		if err != nil {
			return "", err
		}
		lits[i] = lit
	}
	return strings.Join(lits, ", "), nil
}

// fold renders a case-insensitive comparison.
func (b *Builder) fold(col, op, lit string) string {
	if b.dialect == dialect.SQLite {
		return col + " " + op + " " + lit + " COLLATE NOCASE"
	}
	return "LOWER(" + col + ") " + op + " LOWER(" + lit + ")"
}

// Resolver returns the criterion resolver of typ. Relationship fields
// resolve to their foreign-key column when typ's table holds it; their
// values may be given as related entities or as key values.
func (b *Builder) Resolver(typ string) (criterion.Resolver, error) {
	fields, err := b.meta.PersistentFields(typ)
	if err != nil {
		return nil, err
	}
	return &resolver{b: b, typ: typ, fields: fields}, nil
}

type resolver struct {
	b      *Builder
	typ    string
	fields []*schema.Field
}

func (r *resolver) field(name string) (*schema.Field, error) {
	for _, f := range r.fields {
		if f.Name != name {
			continue
		}
		if rel := r.b.meta.RelationshipOf(f); rel != nil && !rel.OwnsKey() {
			break
		}
		return f, nil
	}
	return nil, &criterion.UnknownFieldError{Type: r.typ, Field: name}
}

func (r *resolver) Column(name string) (string, error) {
	f, err := r.field(name)
	if err != nil {
		return "", err
	}
	return r.b.meta.ColumnName(f), nil
}

func (r *resolver) Literal(name string, v any) (string, error) {
	f, err := r.field(name)
	if err != nil {
		return "", err
	}
	rel := r.b.meta.RelationshipOf(f)
	if rel == nil {
		lit, err := r.b.ValueLiteral(f.GoType, v)
		if err != nil {
			return "", mappingErr(r.typ, f, err)
		}
		return lit, nil
	}
	if e, ok := v.(schema.Entity); ok {
		if v, err = r.b.EntityKey(e); err != nil {
			return "", err
		}
	}
	return r.b.KeyLiteral(rel.Target, v)
}

func (r *resolver) Fold(col, op, lit string) string { return r.b.fold(col, op, lit) }

// EntityKey returns the primary-key value of e.
func (b *Builder) EntityKey(e schema.Entity) (any, error) {
	pk, err := b.meta.PrimaryKeyField(e.EntityName())
	if err != nil {
		return nil, err
	}
	return e.Get(pk.Name), nil
}

// relation returns the relationship field name of typ.
func (b *Builder) relation(typ, name string) (*schema.Field, *schema.Relation, error) {
	fields, err := b.meta.PersistentFields(typ)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range fields {
		if f.Name != name {
			continue
		}
		rel := b.meta.RelationshipOf(f)
		if rel == nil {
			return nil, nil, &schema.ConfigError{Type: typ, Field: name, Msg: "not a relationship"}
		}
		return f, rel, nil
	}
	return nil, nil, &schema.ConfigError{Type: typ, Field: name, Msg: "unknown field"}
}

func mappingErr(typ string, f *schema.Field, err error) error {
	if me, ok := err.(*adapter.MappingError); ok {
		me.Type, me.Field = typ, f.Name
		return me
	}
	return &adapter.MappingError{Type: typ, GoType: f.GoType, Field: f.Name, Err: err}
}
