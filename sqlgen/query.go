package sqlgen

import (
	"strconv"
	"strings"

	"github.com/syssam/cascade/criterion"
	"github.com/syssam/cascade/dialect"
)

// unboundedLimit is emitted when an offset is given without a limit.
const unboundedLimit = "-1"

// Query describes a SELECT over the table of one entity type.
type Query struct {
	Type  string
	Where []criterion.Criterion
	Order []criterion.Order
	// Limit and Offset are ignored when not positive.
	Limit  int
	Offset int
}

// SelectQuery returns the SELECT statement of q:
//
//	SELECT * FROM <table> WHERE <p1> AND <p2> ORDER BY <col> ASC LIMIT <n> OFFSET <m>
func (b *Builder) SelectQuery(q Query) (string, error) {
	var sb strings.Builder
	if err := b.selectFrom(&sb, "SELECT * FROM ", q); err != nil {
		return "", err
	}
	order, err := b.orderBy(q)
	if err != nil {
		return "", err
	}
	sb.WriteString(order)
	switch {
	case q.Limit > 0:
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(q.Limit))
	case q.Offset > 0:
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.unbounded())
	}
	if q.Offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(q.Offset))
	}
	return sb.String(), nil
}

// CountQuery returns the COUNT statement of q. Ordering and paging are
// left out of the statement, but orderings must still name known fields.
func (b *Builder) CountQuery(q Query) (string, error) {
	var sb strings.Builder
	if err := b.selectFrom(&sb, "SELECT COUNT(*) FROM ", q); err != nil {
		return "", err
	}
	if _, err := b.orderBy(q); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// orderBy returns the ORDER BY clause of q, with a leading space, or an
// empty string when q has no ordering.
func (b *Builder) orderBy(q Query) (string, error) {
	if len(q.Order) == 0 {
		return "", nil
	}
	r, err := b.Resolver(q.Type)
	if err != nil {
		return "", err
	}
	terms := make([]string, len(q.Order))
	for i, o := range q.Order {
		col, err := r.Column(o.Field)
		if err != nil {
			return "", err
		}
		terms[i] = b.orderTerm(col, o)
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

func (b *Builder) selectFrom(sb *strings.Builder, head string, q Query) error {
	table, err := b.meta.TableName(q.Type)
	if err != nil {
		return err
	}
	sb.WriteString(head)
	sb.WriteString(table)
	if len(q.Where) == 0 {
		return nil
	}
	r, err := b.Resolver(q.Type)
	if err != nil {
		return err
	}
	where, err := criterion.Join(r, q.Where)
	if err != nil {
		return err
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(where)
	return nil
}

func (b *Builder) orderTerm(col string, o criterion.Order) string {
	if !o.Fold {
		return col + " " + o.Direction()
	}
	if b.dialect == dialect.SQLite {
		return col + " COLLATE NOCASE " + o.Direction()
	}
	return "LOWER(" + col + ") " + o.Direction()
}

// unbounded returns the LIMIT value standing for "no limit". MySQL rejects
// negative limits and takes the largest unsigned value instead.
func (b *Builder) unbounded() string {
	if b.dialect == dialect.MySQL {
		return "18446744073709551615"
	}
	if b.dialect == dialect.Postgres {
		return "ALL"
	}
	return unboundedLimit
}

// SelectByKeyQuery returns the statement selecting the row of typ with the
// given primary key.
func (b *Builder) SelectByKeyQuery(typ string, key any) (string, error) {
	table, err := b.meta.TableName(typ)
	if err != nil {
		return "", err
	}
	pred, err := b.KeyPredicate(typ, key)
	if err != nil {
		return "", err
	}
	return "SELECT * FROM " + table + " WHERE " + pred + " LIMIT 1", nil
}

// SelectByColumnQuery returns the statement selecting the rows of typ whose
// column references the row of refType with primary key ref, ordered by
// the primary key of typ. A positive limit bounds the result.
func (b *Builder) SelectByColumnQuery(typ, column, refType string, ref any, limit int) (string, error) {
	table, err := b.meta.TableName(typ)
	if err != nil {
		return "", err
	}
	pk, err := b.meta.PrimaryKeyField(typ)
	if err != nil {
		return "", err
	}
	lit, err := b.KeyLiteral(refType, ref)
	if err != nil {
		return "", err
	}
	query := "SELECT * FROM " + table + " WHERE " + column + " = " + lit + " ORDER BY " + b.meta.ColumnName(pk) + " ASC"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	return query, nil
}
