// Package criterion builds predicate trees and orderings for entity queries.
//
// Predicates reference fields by their schema name. They are rendered to
// SQL depth-first through a Resolver, which maps field names to columns and
// values to literals:
//
//	criterion.And(
//		criterion.Eq("status", "open"),
//		criterion.Or(criterion.Gt("total", 100), criterion.IsNull("coupon")),
//	)
package criterion

import (
	"errors"
	"fmt"
	"strings"
)

// Resolver maps fields to columns and renders literal values.
type Resolver interface {
	// Column returns the column of field.
	Column(field string) (string, error)
	// Literal renders v, a value of field, as a SQL literal.
	Literal(field string, v any) (string, error)
	// Fold renders the case-insensitive comparison "col op lit".
	Fold(col, op, lit string) string
}

// UnknownFieldError is returned when a predicate or ordering references a
// field that the queried type does not declare.
type UnknownFieldError struct {
	Type  string
	Field string
}

// Error implements the error interface.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("cascade: invalid criteria: %s has no field %q", e.Type, e.Field)
}

// IsUnknownField returns a boolean indicating whether the error is an
// unknown field error.
func IsUnknownField(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownFieldError
	return errors.As(err, &e)
}

// Criterion is an immutable predicate tree node.
type Criterion interface {
	SQL(Resolver) (string, error)
}

// Comparison operators.
const (
	OpEQ   = "="
	OpNEQ  = "<>"
	OpGT   = ">"
	OpGTE  = ">="
	OpLT   = "<"
	OpLTE  = "<="
	OpLike = "LIKE"
)

type comparison struct {
	field string
	op    string
	value any
	fold  bool
}

func (c comparison) SQL(r Resolver) (string, error) {
	col, err := r.Column(c.field)
	if err != nil {
		return "", err
	}
	lit, err := r.Literal(c.field, c.value)
	if err != nil {
		return "", err
	}
	if c.fold {
		return r.Fold(col, c.op, lit), nil
	}
	return col + " " + c.op + " " + lit, nil
}

// Eq matches rows where field equals v.
func Eq(field string, v any) Criterion { return comparison{field: field, op: OpEQ, value: v} }

// Ne matches rows where field differs from v.
func Ne(field string, v any) Criterion { return comparison{field: field, op: OpNEQ, value: v} }

// Gt matches rows where field is greater than v.
func Gt(field string, v any) Criterion { return comparison{field: field, op: OpGT, value: v} }

// Ge matches rows where field is greater than or equal to v.
func Ge(field string, v any) Criterion { return comparison{field: field, op: OpGTE, value: v} }

// Lt matches rows where field is less than v.
func Lt(field string, v any) Criterion { return comparison{field: field, op: OpLT, value: v} }

// Le matches rows where field is less than or equal to v.
func Le(field string, v any) Criterion { return comparison{field: field, op: OpLTE, value: v} }

// Like matches rows where field matches the LIKE pattern.
func Like(field, pattern string) Criterion {
	return comparison{field: field, op: OpLike, value: pattern}
}

// Compare matches rows where "field op v" holds. If fold is set, text is
// compared case-insensitively.
func Compare(field, op string, v any, fold bool) Criterion {
	return comparison{field: field, op: op, value: v, fold: fold}
}

// EqFold matches rows where field equals v, ignoring case.
func EqFold(field, v string) Criterion {
	return comparison{field: field, op: OpEQ, value: v, fold: true}
}

// LikeFold is the case-insensitive form of Like.
func LikeFold(field, pattern string) Criterion {
	return comparison{field: field, op: OpLike, value: pattern, fold: true}
}

type between struct {
	field  string
	lo, hi any
}

func (b between) SQL(r Resolver) (string, error) {
	col, err := r.Column(b.field)
	if err != nil {
		return "", err
	}
	lo, err := r.Literal(b.field, b.lo)
	if err != nil {
		return "", err
	}
	hi, err := r.Literal(b.field, b.hi)
	if err != nil {
		return "", err
	}
	return col + " BETWEEN " + lo + " AND " + hi, nil
}

// Between matches rows where field lies in [lo, hi].
func Between(field string, lo, hi any) Criterion { return between{field: field, lo: lo, hi: hi} }

type membership struct {
	field  string
	values []any
	not    bool
}

func (m membership) SQL(r Resolver) (string, error) {
	col, err := r.Column(m.field)
	if err != nil {
		return "", err
	}
	// An empty list is rejected by most databases.
	if len(m.values) == 0 {
		if m.not {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}
	lits := make([]string, len(m.values))
	for i, v := range m.values {
		if lits[i], err = r.Literal(m.field, v); err != nil {
			return "", err
		}
	}
	op := " IN ("
	if m.not {
		op = " NOT IN ("
	}
	return col + op + strings.Join(lits, ", ") + ")", nil
}

// In matches rows where field is one of vs.
func In(field string, vs ...any) Criterion { return membership{field: field, values: vs} }

// NotIn matches rows where field is none of vs.
func NotIn(field string, vs ...any) Criterion {
	return membership{field: field, values: vs, not: true}
}

type null struct {
	field string
	not   bool
}

func (n null) SQL(r Resolver) (string, error) {
	col, err := r.Column(n.field)
	if err != nil {
		return "", err
	}
	if n.not {
		return col + " IS NOT NULL", nil
	}
	return col + " IS NULL", nil
}

// IsNull matches rows where field is NULL.
func IsNull(field string) Criterion { return null{field: field} }

// NotNull matches rows where field is not NULL.
func NotNull(field string) Criterion { return null{field: field, not: true} }

type logical struct {
	op       string
	children []Criterion
}

func (l logical) SQL(r Resolver) (string, error) {
	parts := make([]string, 0, len(l.children))
	for _, c := range l.children {
		s, err := c.SQL(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	switch len(parts) {
	case 0:
		if l.op == "OR" {
			return "1 = 0", nil
		}
		return "1 = 1", nil
	case 1:
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+l.op+" ") + ")", nil
}

// And matches rows satisfying all of cs.
func And(cs ...Criterion) Criterion { return logical{op: "AND", children: cs} }

// Or matches rows satisfying any of cs.
func Or(cs ...Criterion) Criterion { return logical{op: "OR", children: cs} }

type not struct {
	child Criterion
}

func (n not) SQL(r Resolver) (string, error) {
	s, err := n.child.SQL(r)
	if err != nil {
		return "", err
	}
	return "NOT (" + s + ")", nil
}

// Not negates c.
func Not(c Criterion) Criterion { return not{child: c} }

// Join renders cs joined by AND without enclosing parentheses, the form used
// for the top-level WHERE clause.
func Join(r Resolver, cs []Criterion) (string, error) {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		s, err := c.SQL(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), nil
}
