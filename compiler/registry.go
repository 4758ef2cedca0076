package compiler

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/cascade/schema"
)

var cascadeConsts = map[schema.CascadeMode]string{
	schema.CascadeKeys: "CascadeKeys",
	schema.CascadeAll:  "CascadeAll",
}

var edgeFuncs = map[schema.RelationKind]string{
	schema.ManyToMany: "ManyToMany",
	schema.ManyToOne:  "ManyToOne",
	schema.OneToMany:  "OneToMany",
	schema.OneToOne:   "OneToOne",
}

// registryFile renders schema.go, which declares every type with the
// schema builders and binds its constructor.
func (g *Generator) registryFile() (*jen.File, error) {
	defs := make([]jen.Code, 0, len(g.doc.Types))
	for _, ts := range g.doc.Types {
		def, err := g.declaration(ts)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	f := g.newFile()
	f.Comment("Registry returns a validated registry of the entity types declared")
	f.Comment("in this package.")
	f.Func().Id("Registry").Params().Params(jen.Op("*").Qual(schemaPkg, "Registry"), jen.Error()).Block(
		jen.Return(jen.Qual(schemaPkg, "NewRegistry").Custom(multiline("(", ")"), defs...)),
	)
	return f, nil
}

func (g *Generator) declaration(ts *schema.TypeSpec) (jen.Code, error) {
	mode, err := schema.ParseCascadeMode(ts.Cascade)
	if err != nil {
		return nil, &SchemaError{Type: ts.Name, Cause: err}
	}
	def := jen.Qual(schemaPkg, "Define").Call(jen.Lit(ts.Name))
	if ts.Table != "" {
		def.Dot("Table").Call(jen.Lit(ts.Table))
	}
	if c, ok := cascadeConsts[mode]; ok {
		def.Dot("Cascade").Call(jen.Qual(schemaPkg, c))
	}
	if ts.Lazy {
		def.Dot("Lazy").Call()
	}
	fields := make([]jen.Code, 0, len(ts.Fields))
	for _, fs := range ts.Fields {
		fd, err := fieldDeclaration(ts, fs)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fd)
	}
	def.Dot("Fields").Custom(multiline("(", ")"), fields...)
	if len(ts.Indexes) > 0 {
		indexes := make([]jen.Code, 0, len(ts.Indexes))
		for _, is := range ts.Indexes {
			cols := make([]jen.Code, len(is.Fields))
			for i, name := range is.Fields {
				cols[i] = jen.Lit(name)
			}
			id := jen.Qual(indexPkg, "Fields").Call(cols...)
			if is.Unique {
				id.Dot("Unique").Call()
			}
			if is.Name != "" {
				id.Dot("StorageKey").Call(jen.Lit(is.Name))
			}
			indexes = append(indexes, id)
		}
		def.Dot("Indexes").Custom(multiline("(", ")"), indexes...)
	}
	def.Dot("New").Call(jen.Func().Params().Qual(schemaPkg, "Entity").Block(
		jen.Return(jen.Op("&").Id(ts.Name).Values()),
	))
	return def, nil
}

func fieldDeclaration(ts *schema.TypeSpec, fs *schema.FieldSpec) (jen.Code, error) {
	if fs.Relation == "" {
		fd := jen.Qual(schemaPkg, "Of").Call(jen.Lit(fs.Name), jen.Lit(fs.Type))
		if fs.Column != "" {
			fd.Dot("Column").Call(jen.Lit(fs.Column))
		}
		if fs.PK {
			fd.Dot("PrimaryKey").Call()
		}
		if fs.AutoIncrement {
			fd.Dot("AutoIncrement").Call()
		}
		if fs.Nullable {
			fd.Dot("Nillable").Call()
		}
		if fs.Unique {
			fd.Dot("Unique").Call()
		}
		return fd, nil
	}
	kind, err := schema.ParseRelationKind(fs.Relation)
	if err != nil {
		return nil, &SchemaError{Type: ts.Name, Field: fs.Name, Cause: err}
	}
	fd := jen.Qual(edgePkg, edgeFuncs[kind]).Call(jen.Lit(fs.Name), jen.Lit(fs.Target))
	if fs.Column != "" {
		fd.Dot("Column").Call(jen.Lit(fs.Column))
	}
	if fs.Owner != "" {
		fd.Dot("Owner").Call(jen.Lit(fs.Owner))
	}
	if fs.JoinTable != "" {
		fd.Dot("Through").Call(jen.Lit(fs.JoinTable))
	}
	if fs.Inverse {
		fd.Dot("Inverse").Call()
	}
	if fs.Ref != "" {
		fd.Dot("Ref").Call(jen.Lit(fs.Ref))
	}
	return fd, nil
}

func multiline(open, close string) jen.Options {
	return jen.Options{Open: open, Close: close, Separator: ",", Multi: true}
}
