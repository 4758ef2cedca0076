package sqlgen

import (
	"strings"

	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
	"github.com/syssam/cascade/schema/field"
)

// column is one column definition of a table.
type column struct {
	name     string
	storage  field.Storage
	pk       bool
	auto     bool
	nullable bool
	unique   bool
	indexed  bool
}

// CreateTableDDL returns the CREATE TABLE statement of typ. The table holds
// the scalar columns of typ followed by every foreign key stored in it: the
// many-to-one keys and owned one-to-one keys of typ, then the keys of
// one-to-many and one-to-one relationships of other types pointing at typ.
func (b *Builder) CreateTableDDL(typ string) (string, error) {
	table, err := b.meta.TableName(typ)
	if err != nil {
		return "", err
	}
	cols, err := b.columns(typ)
	if err != nil {
		return "", err
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = b.columnDef(c)
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS, so its indexes are declared
	// inline.
	if b.dialect == dialect.MySQL {
		idx, err := b.meta.Indexes(typ)
		if err != nil {
			return "", err
		}
		for _, i := range idx {
			cols, err := b.indexColumns(typ, i)
			if err != nil {
				return "", err
			}
			def := "INDEX "
			if i.Unique {
				def = "UNIQUE INDEX "
			}
			defs = append(defs, def+i.Name+" ("+strings.Join(cols, ", ")+")")
		}
	}
	return "CREATE TABLE IF NOT EXISTS " + table + " (" + strings.Join(defs, ", ") + ")", nil
}

// CreateIndexDDL returns the CREATE INDEX statements of typ. It returns no
// statements for MySQL, where CreateTableDDL declares the indexes.
func (b *Builder) CreateIndexDDL(typ string) ([]string, error) {
	if b.dialect == dialect.MySQL {
		return nil, nil
	}
	table, err := b.meta.TableName(typ)
	if err != nil {
		return nil, err
	}
	idx, err := b.meta.Indexes(typ)
	if err != nil {
		return nil, err
	}
	stmts := make([]string, 0, len(idx))
	for _, i := range idx {
		cols, err := b.indexColumns(typ, i)
		if err != nil {
			return nil, err
		}
		head := "CREATE INDEX IF NOT EXISTS "
		if i.Unique {
			head = "CREATE UNIQUE INDEX IF NOT EXISTS "
		}
		stmts = append(stmts, head+i.Name+" ON "+table+" ("+strings.Join(cols, ", ")+")")
	}
	return stmts, nil
}

func (b *Builder) indexColumns(typ string, idx *schema.Index) ([]string, error) {
	fields, err := b.meta.PersistentFields(typ)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(idx.Fields))
	for _, name := range idx.Fields {
		for _, f := range fields {
			if f.Name == name {
				cols = append(cols, b.meta.ColumnName(f))
			}
		}
	}
	return cols, nil
}

// DropTableDDL returns the DROP TABLE statement of typ.
func (b *Builder) DropTableDDL(typ string) (string, error) {
	table, err := b.meta.TableName(typ)
	if err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + table, nil
}

// CreateJoinTableDDL returns the CREATE TABLE statement of the join table of
// the many-to-many relationship name of typ.
func (b *Builder) CreateJoinTableDDL(typ, name string) (string, error) {
	jt, err := b.JoinTable(typ, name)
	if err != nil {
		return "", err
	}
	first, second := jt.columns()
	firstStorage, err := b.keyStorage(jt.first)
	if err != nil {
		return "", err
	}
	secondStorage, err := b.keyStorage(jt.second)
	if err != nil {
		return "", err
	}
	return "CREATE TABLE IF NOT EXISTS " + jt.Name + " (" +
		first + " " + b.columnType(firstStorage, true) + " NOT NULL, " +
		second + " " + b.columnType(secondStorage, true) + " NOT NULL, " +
		"PRIMARY KEY (" + first + ", " + second + "))", nil
}

// DropJoinTableDDL returns the DROP TABLE statement of the join table of the
// many-to-many relationship name of typ.
func (b *Builder) DropJoinTableDDL(typ, name string) (string, error) {
	jt, err := b.JoinTable(typ, name)
	if err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + jt.Name, nil
}

// SchemaDDL returns the statements creating every entity table, join table
// and index of the metadata provider, and the statements dropping the tables
// in reverse order. Dropping a table drops its indexes.
func (b *Builder) SchemaDDL() (create, drop []string, err error) {
	var joins []string
	seen := make(map[string]bool)
	for _, typ := range b.meta.TypeNames() {
		stmt, err := b.CreateTableDDL(typ)
		if err != nil {
			return nil, nil, err
		}
		create = append(create, stmt)
		if stmt, err = b.DropTableDDL(typ); err != nil {
			return nil, nil, err
		}
		drop = append(drop, stmt)
		fields, err := b.meta.PersistentFields(typ)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range fields {
			rel := b.meta.RelationshipOf(f)
			if rel == nil || rel.Kind != schema.ManyToMany || seen[rel.JoinTable] {
				continue
			}
			seen[rel.JoinTable] = true
			stmt, err := b.CreateJoinTableDDL(typ, f.Name)
			if err != nil {
				return nil, nil, err
			}
			joins = append(joins, stmt)
			if stmt, err = b.DropJoinTableDDL(typ, f.Name); err != nil {
				return nil, nil, err
			}
			drop = append(drop, stmt)
		}
	}
	create = append(create, joins...)
	for _, typ := range b.meta.TypeNames() {
		stmts, err := b.CreateIndexDDL(typ)
		if err != nil {
			return nil, nil, err
		}
		create = append(create, stmts...)
	}
	for i, j := 0, len(drop)-1; i < j; i, j = i+1, j-1 {
		drop[i], drop[j] = drop[j], drop[i]
	}
	return create, drop, nil
}

func (b *Builder) columns(typ string) ([]column, error) {
	fields, err := b.meta.PersistentFields(typ)
	if err != nil {
		return nil, err
	}
	var (
		cols []column
		seen = make(map[string]bool)
	)
	add := func(c column) {
		if !seen[c.name] {
			seen[c.name] = true
			cols = append(cols, c)
		}
	}
	indexed := make(map[string]bool)
	idx, err := b.meta.Indexes(typ)
	if err != nil {
		return nil, err
	}
	for _, i := range idx {
		for _, name := range i.Fields {
			indexed[name] = true
		}
	}
	for _, f := range fields {
		if b.meta.RelationshipOf(f) != nil {
			continue
		}
		s, err := b.adapters.Storage(f.GoType)
		if err != nil {
			return nil, mappingErr(typ, f, err)
		}
		add(column{
			name:     b.meta.ColumnName(f),
			storage:  s,
			pk:       f.PK,
			auto:     f.AutoIncrement,
			nullable: b.meta.IsNullable(f),
			unique:   b.meta.IsUnique(f),
			indexed:  indexed[f.Name],
		})
	}
	for _, f := range fields {
		rel := b.meta.RelationshipOf(f)
		if rel == nil || !rel.OwnsKey() {
			continue
		}
		s, err := b.keyStorage(rel.Target)
		if err != nil {
			return nil, err
		}
		add(column{name: rel.Column, storage: s, nullable: true})
	}
	// Keys declared on the other side of the edge.
	for _, other := range b.meta.TypeNames() {
		fields, err := b.meta.PersistentFields(other)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			rel := b.meta.RelationshipOf(f)
			if rel == nil || rel.Target != typ || rel.OwnsKey() {
				continue
			}
			if rel.Kind != schema.OneToMany && !(rel.Kind == schema.OneToOne && rel.Owner == typ) {
				continue
			}
			s, err := b.keyStorage(other)
			if err != nil {
				return nil, err
			}
			add(column{name: rel.Column, storage: s, nullable: true})
		}
	}
	return cols, nil
}

// keyStorage returns the storage class of the primary key of typ.
func (b *Builder) keyStorage(typ string) (field.Storage, error) {
	pk, err := b.meta.PrimaryKeyField(typ)
	if err != nil {
		return field.StorageInvalid, err
	}
	s, err := b.adapters.Storage(pk.GoType)
	if err != nil {
		return field.StorageInvalid, mappingErr(typ, pk, err)
	}
	return s, nil
}

func (b *Builder) columnDef(c column) string {
	if c.pk && c.auto && c.storage == field.Integer {
		switch b.dialect {
		case dialect.Postgres:
			return c.name + " BIGSERIAL PRIMARY KEY"
		case dialect.MySQL:
			return c.name + " BIGINT AUTO_INCREMENT PRIMARY KEY"
		default:
			return c.name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		}
	}
	def := c.name + " " + b.columnType(c.storage, c.pk || c.unique || c.indexed)
	switch {
	case c.pk:
		def += " PRIMARY KEY"
	case !c.nullable && c.unique:
		def += " NOT NULL UNIQUE"
	case !c.nullable:
		def += " NOT NULL"
	case c.unique:
		def += " UNIQUE"
	}
	return def
}

// columnType returns the type name of a storage class. MySQL cannot index
// unbounded text, so key columns get a bounded type there.
func (b *Builder) columnType(s field.Storage, key bool) string {
	switch b.dialect {
	case dialect.Postgres:
		switch s {
		case field.Integer:
			return "BIGINT"
		case field.Real:
			return "DOUBLE PRECISION"
		case field.Blob:
			return "BYTEA"
		}
		return "TEXT"
	case dialect.MySQL:
		switch s {
		case field.Integer:
			return "BIGINT"
		case field.Real:
			return "DOUBLE"
		case field.Blob:
			if key {
				return "VARBINARY(255)"
			}
			return "LONGBLOB"
		}
		if key {
			return "VARCHAR(255)"
		}
		return "TEXT"
	}
	return s.String()
}
