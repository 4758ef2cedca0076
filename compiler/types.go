package compiler

import (
	"fmt"
	"go/ast"
	"go/parser"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/cascade/schema/field"
)

// knownImports resolves the package qualifiers of the built-in field types.
var knownImports = map[string]string{
	"sql":  "database/sql",
	"time": "time",
	"uuid": "github.com/google/uuid",
	"json": "encoding/json",
}

// nullFields maps the database/sql null wrappers to their value field.
var nullFields = map[string]string{
	"sql.NullBool":    "Bool",
	"sql.NullByte":    "Byte",
	"sql.NullInt16":   "Int16",
	"sql.NullInt32":   "Int32",
	"sql.NullInt64":   "Int64",
	"sql.NullFloat64": "Float64",
	"sql.NullString":  "String",
	"sql.NullTime":    "Time",
	"uuid.NullUUID":   "UUID",
}

// goType is a parsed field type.
type goType struct {
	// code is the field's type in the generated struct.
	code jen.Code
	// elem is the type of the values passed to Set, with nullable wrappers
	// removed.
	elem jen.Code
	// kind selects how Set stores a value.
	kind setKind
	// valid is the value field of a sql.Null* wrapper.
	valid string
}

type setKind uint8

const (
	setPlain setKind = iota
	setPointer
	setNull
)

// parseType parses a Go type name as written in a schema document.
func (c *Config) parseType(s string) (*goType, error) {
	expr, err := parser.ParseExpr(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", s, err)
	}
	code, err := c.typeCode(expr)
	if err != nil {
		return nil, err
	}
	t := &goType{code: code, elem: code}
	switch x := expr.(type) {
	case *ast.StarExpr:
		if t.elem, err = c.typeCode(x.X); err != nil {
			return nil, err
		}
		t.kind = setPointer
	case *ast.IndexExpr:
		if sel, ok := x.X.(*ast.SelectorExpr); ok && qualified(sel) == "sql.Null" {
			if t.elem, err = c.typeCode(x.Index); err != nil {
				return nil, err
			}
			t.kind, t.valid = setNull, "V"
		}
	case *ast.SelectorExpr:
		if v, ok := nullFields[qualified(x)]; ok {
			elem, err := parser.ParseExpr(field.Unwrap(qualified(x)))
			if err != nil {
				return nil, err
			}
			if t.elem, err = c.typeCode(elem); err != nil {
				return nil, err
			}
			t.kind, t.valid = setNull, v
		}
	}
	return t, nil
}

// typeCode converts a type expression into jennifer code.
func (c *Config) typeCode(expr ast.Expr) (jen.Code, error) {
	switch x := expr.(type) {
	case *ast.Ident:
		return jen.Id(x.Name), nil
	case *ast.StarExpr:
		elem, err := c.typeCode(x.X)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case *ast.ArrayType:
		elem, err := c.typeCode(x.Elt)
		if err != nil {
			return nil, err
		}
		if x.Len != nil {
			return nil, fmt.Errorf("unsupported array type")
		}
		return jen.Index().Add(elem), nil
	case *ast.MapType:
		key, err := c.typeCode(x.Key)
		if err != nil {
			return nil, err
		}
		val, err := c.typeCode(x.Value)
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(val), nil
	case *ast.SelectorExpr:
		pkg, ok := x.X.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("unsupported qualified type")
		}
		path, ok := c.Imports[pkg.Name]
		if !ok {
			path, ok = knownImports[pkg.Name]
		}
		if !ok {
			return nil, fmt.Errorf("unknown package %q: register it with WithImport", pkg.Name)
		}
		return jen.Qual(path, x.Sel.Name), nil
	case *ast.IndexExpr:
		base, err := c.typeCode(x.X)
		if err != nil {
			return nil, err
		}
		arg, err := c.typeCode(x.Index)
		if err != nil {
			return nil, err
		}
		return jen.Add(base).Types(arg), nil
	}
	return nil, fmt.Errorf("unsupported type expression %T", expr)
}

func qualified(sel *ast.SelectorExpr) string {
	if pkg, ok := sel.X.(*ast.Ident); ok {
		return pkg.Name + "." + sel.Sel.Name
	}
	return ""
}
