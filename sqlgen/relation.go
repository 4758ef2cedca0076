package sqlgen

import (
	"github.com/syssam/cascade/schema"
)

// JoinTable describes the join table of a many-to-many relationship as seen
// from one participant.
type JoinTable struct {
	Name string
	// Self is the column referencing the declaring type, Other the column
	// referencing the target type.
	Self  string
	Other string
	// Relation is the relationship the table belongs to.
	Relation *schema.Relation

	first, second string
	inverse       bool
}

func (jt *JoinTable) columns() (first, second string) {
	if jt.inverse {
		return jt.Other, jt.Self
	}
	return jt.Self, jt.Other
}

// JoinTable returns the join table of the many-to-many relationship name of
// typ. The first participant's key is stored in <table>_<pk>_1 and the
// second one's in <table>_<pk>_2.
func (b *Builder) JoinTable(typ, name string) (*JoinTable, error) {
	_, rel, err := b.relation(typ, name)
	if err != nil {
		return nil, err
	}
	if rel.Kind != schema.ManyToMany {
		return nil, &schema.ConfigError{Type: typ, Field: name, Msg: "not a many-to-many relationship"}
	}
	jt := &JoinTable{Name: rel.JoinTable, Relation: rel, first: typ, second: rel.Target, inverse: rel.Inverse}
	if rel.Inverse {
		jt.first, jt.second = rel.Target, typ
	}
	first, err := b.keyColumn(jt.first)
	if err != nil {
		return nil, err
	}
	second, err := b.keyColumn(jt.second)
	if err != nil {
		return nil, err
	}
	first += "_1"
	second += "_2"
	if rel.Inverse {
		jt.Self, jt.Other = second, first
	} else {
		jt.Self, jt.Other = first, second
	}
	return jt, nil
}

// keyColumn returns <table>_<pk column> of typ.
func (b *Builder) keyColumn(typ string) (string, error) {
	table, err := b.meta.TableName(typ)
	if err != nil {
		return "", err
	}
	pk, err := b.meta.PrimaryKeyField(typ)
	if err != nil {
		return "", err
	}
	return table + "_" + b.meta.ColumnName(pk), nil
}

// ManyToManyJoinQuery returns the statement selecting the entities related
// to the row of typ with primary key key through the many-to-many
// relationship name. The target table is the result set.
func (b *Builder) ManyToManyJoinQuery(typ, name string, key any) (string, error) {
	jt, err := b.JoinTable(typ, name)
	if err != nil {
		return "", err
	}
	rel := jt.Relation
	table, err := b.meta.TableName(typ)
	if err != nil {
		return "", err
	}
	target, err := b.meta.TableName(rel.Target)
	if err != nil {
		return "", err
	}
	pk, err := b.meta.PrimaryKeyField(typ)
	if err != nil {
		return "", err
	}
	tpk, err := b.meta.PrimaryKeyField(rel.Target)
	if err != nil {
		return "", err
	}
	lit, err := b.KeyLiteral(typ, key)
	if err != nil {
		return "", err
	}
	tcol, ocol := b.meta.ColumnName(tpk), b.meta.ColumnName(pk)
	return "SELECT t.* FROM " + target + " AS t" +
		" INNER JOIN " + jt.Name + " AS j ON j." + jt.Other + " = t." + tcol +
		" INNER JOIN " + table + " AS o ON o." + ocol + " = j." + jt.Self +
		" WHERE o." + ocol + " = " + lit +
		" ORDER BY t." + tcol + " ASC", nil
}

// JoinRowExistsQuery returns the statement counting the join rows linking
// key of typ and ref of the target of the relationship name.
func (b *Builder) JoinRowExistsQuery(typ, name string, key, ref any) (string, error) {
	jt, err := b.JoinTable(typ, name)
	if err != nil {
		return "", err
	}
	klit, err := b.KeyLiteral(typ, key)
	if err != nil {
		return "", err
	}
	rlit, err := b.KeyLiteral(jt.Relation.Target, ref)
	if err != nil {
		return "", err
	}
	return "SELECT COUNT(*) FROM " + jt.Name + " WHERE " + jt.Self + " = " + klit + " AND " + jt.Other + " = " + rlit, nil
}

// DeleteJoinRowsQuery returns the statement deleting every join row of the
// relationship name that references key of typ.
func (b *Builder) DeleteJoinRowsQuery(typ, name string, key any) (string, error) {
	jt, err := b.JoinTable(typ, name)
	if err != nil {
		return "", err
	}
	lit, err := b.KeyLiteral(typ, key)
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + jt.Name + " WHERE " + jt.Self + " = " + lit, nil
}

// DeleteStaleJoinRowsQuery returns the statement deleting the join rows of
// key of typ whose other side is not in keep. An empty keep list yields the
// DeleteJoinRowsQuery statement, since "NOT IN ()" is not valid SQL.
func (b *Builder) DeleteStaleJoinRowsQuery(typ, name string, key any, keep []any) (string, error) {
	if len(keep) == 0 {
		return b.DeleteJoinRowsQuery(typ, name, key)
	}
	jt, err := b.JoinTable(typ, name)
	if err != nil {
		return "", err
	}
	query, err := b.DeleteJoinRowsQuery(typ, name, key)
	if err != nil {
		return "", err
	}
	list, err := b.keyList(jt.Relation.Target, keep)
	if err != nil {
		return "", err
	}
	return query + " AND " + jt.Other + " NOT IN (" + list + ")", nil
}

// UpdateSingleColumnQuery returns the statement setting column of the row of
// typ with primary key key to value, a rendered literal.
func (b *Builder) UpdateSingleColumnQuery(typ string, key any, column, value string) (string, error) {
	table, err := b.meta.TableName(typ)
	if err != nil {
		return "", err
	}
	pred, err := b.KeyPredicate(typ, key)
	if err != nil {
		return "", err
	}
	return "UPDATE " + table + " SET " + column + " = " + value + " WHERE " + pred, nil
}

// UpdateForeignKeyQuery returns the statement linking key of typ to ref of
// the target of the relationship name. The foreign key is written in the
// table that holds it: typ's own table for many-to-one and owned one-to-one
// relationships, the target table otherwise.
func (b *Builder) UpdateForeignKeyQuery(typ, name string, key, ref any) (string, error) {
	_, rel, err := b.relation(typ, name)
	if err != nil {
		return "", err
	}
	if rel.Kind == schema.ManyToMany {
		return "", &schema.ConfigError{Type: typ, Field: name, Msg: "many-to-many relationship has no foreign key"}
	}
	holder, holderKey, refType, refKey := typ, key, rel.Target, ref
	if !rel.OwnsKey() {
		holder, holderKey, refType, refKey = rel.Target, ref, typ, key
	}
	lit := "NULL"
	if refKey != nil {
		if lit, err = b.KeyLiteral(refType, refKey); err != nil {
			return "", err
		}
	}
	return b.UpdateSingleColumnQuery(holder, holderKey, rel.Column, lit)
}

// UpdateOneToOneForeignKeyQuery returns the statement linking key of typ to
// ref through the one-to-one relationship name, clearing the foreign key of
// any other owner row that referenced the same entity:
//
//	UPDATE <owner> SET <fk> = CASE WHEN <pk> = <owner key> THEN <ref> ELSE NULL END
//	WHERE <pk> = <owner key> OR <fk> = <ref>
func (b *Builder) UpdateOneToOneForeignKeyQuery(typ, name string, key, ref any) (string, error) {
	_, rel, err := b.relation(typ, name)
	if err != nil {
		return "", err
	}
	if rel.Kind != schema.OneToOne {
		return "", &schema.ConfigError{Type: typ, Field: name, Msg: "not a one-to-one relationship"}
	}
	owner, ownerKey, refType, refKey := typ, key, rel.Target, ref
	if !rel.OwnsKey() {
		owner, ownerKey, refType, refKey = rel.Target, ref, typ, key
	}
	table, err := b.meta.TableName(owner)
	if err != nil {
		return "", err
	}
	pred, err := b.KeyPredicate(owner, ownerKey)
	if err != nil {
		return "", err
	}
	lit, err := b.KeyLiteral(refType, refKey)
	if err != nil {
		return "", err
	}
	return "UPDATE " + table + " SET " + rel.Column + " = CASE WHEN " + pred + " THEN " + lit + " ELSE NULL END" +
		" WHERE " + pred + " OR " + rel.Column + " = " + lit, nil
}

// ClearForeignKeyQuery returns the statement unlinking key of typ from
// every entity related through the relationship name.
func (b *Builder) ClearForeignKeyQuery(typ, name string, key any) (string, error) {
	_, rel, err := b.relation(typ, name)
	if err != nil {
		return "", err
	}
	if rel.Kind == schema.ManyToMany {
		return b.DeleteJoinRowsQuery(typ, name, key)
	}
	if rel.OwnsKey() {
		return b.UpdateSingleColumnQuery(typ, key, rel.Column, "NULL")
	}
	table, err := b.meta.TableName(rel.Target)
	if err != nil {
		return "", err
	}
	lit, err := b.KeyLiteral(typ, key)
	if err != nil {
		return "", err
	}
	return "UPDATE " + table + " SET " + rel.Column + " = NULL WHERE " + rel.Column + " = " + lit, nil
}

// DetachStaleChildrenQuery returns the statement clearing the foreign key of
// the children of key of typ, through the one-to-many relationship name,
// that are not in keep. An empty keep list detaches every child.
func (b *Builder) DetachStaleChildrenQuery(typ, name string, key any, keep []any) (string, error) {
	_, rel, err := b.relation(typ, name)
	if err != nil {
		return "", err
	}
	if rel.Kind != schema.OneToMany {
		return "", &schema.ConfigError{Type: typ, Field: name, Msg: "not a one-to-many relationship"}
	}
	query, err := b.ClearForeignKeyQuery(typ, name, key)
	if err != nil || len(keep) == 0 {
		return query, err
	}
	pk, err := b.meta.PrimaryKeyField(rel.Target)
	if err != nil {
		return "", err
	}
	list, err := b.keyList(rel.Target, keep)
	if err != nil {
		return "", err
	}
	return query + " AND " + b.meta.ColumnName(pk) + " NOT IN (" + list + ")", nil
}
