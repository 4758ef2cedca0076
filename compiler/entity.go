package compiler

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/cascade/schema"
)

const (
	schemaPkg = "github.com/syssam/cascade/schema"
	edgePkg   = "github.com/syssam/cascade/schema/edge"
	indexPkg  = "github.com/syssam/cascade/schema/index"
	lazyPkg   = "github.com/syssam/cascade/lazy"
)

// member is a field of a generated struct.
type member struct {
	spec *schema.FieldSpec
	name string
	typ  *goType
	kind schema.RelationKind
}

// members resolves the struct fields of a type.
func (g *Generator) members(ts *schema.TypeSpec) ([]*member, error) {
	seen := make(map[string]string, len(ts.Fields))
	ms := make([]*member, 0, len(ts.Fields))
	for _, fs := range ts.Fields {
		m := &member{spec: fs, name: pascal(fs.Name)}
		switch {
		case m.name == "":
			return nil, &SchemaError{Type: ts.Name, Field: fs.Name, Message: "field name has no identifier form"}
		case reserved[m.name]:
			return nil, &SchemaError{Type: ts.Name, Field: fs.Name, Message: "field " + m.name + " clashes with an accessor method"}
		case seen[m.name] != "":
			return nil, &SchemaError{Type: ts.Name, Field: fs.Name, Message: "same Go name as field " + seen[m.name]}
		}
		seen[m.name] = fs.Name
		if fs.Relation != "" {
			kind, err := schema.ParseRelationKind(fs.Relation)
			if err != nil {
				return nil, &SchemaError{Type: ts.Name, Field: fs.Name, Cause: err}
			}
			m.kind = kind
		} else {
			t, err := g.cfg.parseType(fs.Type)
			if err != nil {
				return nil, &SchemaError{Type: ts.Name, Field: fs.Name, Cause: err}
			}
			m.typ = t
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// entityFile renders the struct and accessor table of one type.
func (g *Generator) entityFile(ts *schema.TypeSpec) (*jen.File, error) {
	ms, err := g.members(ts)
	if err != nil {
		return nil, err
	}
	table, err := g.reg.TableName(ts.Name)
	if err != nil {
		return nil, err
	}
	f := g.newFile()
	r := receiver(ts.Name)

	f.Commentf("%s is the entity stored in table %s.", ts.Name, table)
	f.Type().Id(ts.Name).StructFunc(func(grp *jen.Group) {
		for _, m := range ms {
			switch {
			case m.typ != nil:
				grp.Id(m.name).Add(m.typ.code)
			case m.kind.Single():
				grp.Id(m.name).Qual(lazyPkg, "One").Types(jen.Id(m.spec.Target))
			default:
				grp.Id(m.name).Qual(lazyPkg, "Many").Types(jen.Id(m.spec.Target))
			}
		}
	})

	f.Comment("EntityName implements schema.Entity.")
	f.Func().Params(jen.Op("*").Id(ts.Name)).Id("EntityName").Params().String().Block(
		jen.Return(jen.Lit(ts.Name)),
	)

	f.Comment("Get returns the value of a field. Relationships are returned as")
	f.Comment("their lazy handle.")
	f.Func().Params(jen.Id(r).Op("*").Id(ts.Name)).Id("Get").Params(jen.Id("field").String()).Id("any").Block(
		jen.Switch(jen.Id("field")).BlockFunc(func(grp *jen.Group) {
			for _, m := range ms {
				if m.typ != nil {
					grp.Case(jen.Lit(m.spec.Name)).Block(jen.Return(jen.Id(r).Dot(m.name)))
				} else {
					grp.Case(jen.Lit(m.spec.Name)).Block(jen.Return(jen.Op("&").Id(r).Dot(m.name)))
				}
			}
		}),
		jen.Return(jen.Nil()),
	)

	f.Comment("Set assigns a scalar field. A nil value resets the field.")
	f.Func().Params(jen.Id(r).Op("*").Id(ts.Name)).Id("Set").Params(
		jen.Id("field").String(),
		jen.Id("value").Id("any"),
	).Error().Block(
		jen.Switch(jen.Id("field")).BlockFunc(func(grp *jen.Group) {
			for _, m := range ms {
				if m.typ == nil {
					continue
				}
				grp.Case(jen.Lit(m.spec.Name)).Block(setter(ts.Name, r, m)...)
			}
			grp.Default().Block(jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit(ts.Name+" has no field %q"), jen.Id("field"),
			)))
		}),
		jen.Return(jen.Nil()),
	)
	return f, nil
}

// setter returns the body of one Set case.
func setter(typ, r string, m *member) []jen.Code {
	mismatch := jen.Return(jen.Qual("fmt", "Errorf").Call(
		jen.Lit(typ+"."+m.spec.Name+": unexpected value type %T"), jen.Id("value"),
	))
	assert := jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("value").Assert(m.typ.elem)
	dst := jen.Id(r).Dot(m.name)
	switch m.typ.kind {
	case setPointer:
		return []jen.Code{
			jen.If(jen.Id("value").Op("==").Nil()).Block(
				jen.Add(dst).Op("=").Nil(),
				jen.Return(jen.Nil()),
			),
			assert,
			jen.If(jen.Op("!").Id("ok")).Block(mismatch),
			jen.Add(dst).Op("=").Op("&").Id("v"),
		}
	case setNull:
		return []jen.Code{
			assert,
			jen.If(jen.Op("!").Id("ok").Op("&&").Id("value").Op("!=").Nil()).Block(mismatch),
			jen.Add(dst).Op("=").Add(m.typ.code).Values(jen.Dict{
				jen.Id(m.typ.valid): jen.Id("v"),
				jen.Id("Valid"):     jen.Id("value").Op("!=").Nil(),
			}),
		}
	}
	return []jen.Code{
		assert,
		jen.If(jen.Op("!").Id("ok").Op("&&").Id("value").Op("!=").Nil()).Block(mismatch),
		jen.Add(dst).Op("=").Id("v"),
	}
}
