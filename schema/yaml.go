package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a set of entity declarations. It is read by
// LoadYAML and by the accessor generator.
//
//	package: shop
//	types:
//	  - name: Order
//	    cascade: all
//	    fields:
//	      - {name: id, type: int64, pk: true, auto_increment: true}
//	      - {name: total, type: float64}
//	      - {name: items, relation: one_to_many, target: LineItem, column: order_id}
type Document struct {
	Package string      `yaml:"package,omitempty"`
	Types   []*TypeSpec `yaml:"types"`
}

// TypeSpec is the YAML form of a Type.
type TypeSpec struct {
	Name    string       `yaml:"name"`
	Table   string       `yaml:"table,omitempty"`
	Cascade string       `yaml:"cascade,omitempty"`
	Lazy    bool         `yaml:"lazy,omitempty"`
	Fields  []*FieldSpec `yaml:"fields"`
	Indexes []*IndexSpec `yaml:"indexes,omitempty"`
}

// IndexSpec is the YAML form of an Index.
type IndexSpec struct {
	Name   string   `yaml:"name,omitempty"`
	Fields []string `yaml:"fields"`
	Unique bool     `yaml:"unique,omitempty"`
}

// FieldSpec is the YAML form of a Field. Relationship fields set Relation
// and Target and leave Type empty.
type FieldSpec struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type,omitempty"`
	Column        string `yaml:"column,omitempty"`
	PK            bool   `yaml:"pk,omitempty"`
	AutoIncrement bool   `yaml:"auto_increment,omitempty"`
	Nullable      bool   `yaml:"nullable,omitempty"`
	Unique        bool   `yaml:"unique,omitempty"`
	Relation      string `yaml:"relation,omitempty"`
	Target        string `yaml:"target,omitempty"`
	Owner         string `yaml:"owner,omitempty"`
	JoinTable     string `yaml:"join_table,omitempty"`
	Inverse       bool   `yaml:"inverse,omitempty"`
	Ref           string `yaml:"ref,omitempty"`
}

// ReadDocument decodes a schema document.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, fmt.Errorf("schema: decode document: %w", err)
	}
	return &doc, nil
}

// ReadDocumentFile decodes the schema document stored at path.
func ReadDocumentFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read document: %w", err)
	}
	return ReadDocument(bytes.NewReader(data))
}

// Declarations converts the document into type declarations. Constructors are not
// part of the document; attach them with Registry.Bind.
func (d *Document) Declarations() ([]*Type, error) {
	types := make([]*Type, 0, len(d.Types))
	for _, ts := range d.Types {
		t, err := ts.Type()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// Type converts the spec into a Type.
func (ts *TypeSpec) Type() (*Type, error) {
	mode, err := ParseCascadeMode(ts.Cascade)
	if err != nil {
		return nil, configErr(ts.Name, "", "%v", err)
	}
	t := &Type{Name: ts.Name, Table: ts.Table, Cascade: mode, Lazy: ts.Lazy}
	for _, fs := range ts.Fields {
		f := &Field{
			Name:          fs.Name,
			Column:        fs.Column,
			GoType:        fs.Type,
			PK:            fs.PK,
			AutoIncrement: fs.AutoIncrement,
			Nullable:      fs.Nullable,
			Unique:        fs.Unique,
		}
		if fs.Relation != "" {
			kind, err := ParseRelationKind(fs.Relation)
			if err != nil {
				return nil, configErr(ts.Name, fs.Name, "%v", err)
			}
			if fs.Type != "" {
				return nil, configErr(ts.Name, fs.Name, "relationship with a Go type %q", fs.Type)
			}
			f.Column = ""
			f.Rel = &Relation{
				Kind:      kind,
				Target:    fs.Target,
				Column:    fs.Column,
				Owner:     fs.Owner,
				JoinTable: fs.JoinTable,
				Inverse:   fs.Inverse,
				Ref:       fs.Ref,
			}
		}
		t.Fields = append(t.Fields, f)
	}
	for _, is := range ts.Indexes {
		t.Indexes = append(t.Indexes, &Index{Name: is.Name, Fields: is.Fields, Unique: is.Unique})
	}
	return t, nil
}

// LoadYAML reads a schema document and returns a validated registry.
// ctors maps type names to constructors; types without one can still be used
// for DDL generation.
func LoadYAML(r io.Reader, ctors map[string]func() Entity) (*Registry, error) {
	doc, err := ReadDocument(r)
	if err != nil {
		return nil, err
	}
	return doc.Registry(ctors)
}

// Registry builds a validated registry from the document.
func (d *Document) Registry(ctors map[string]func() Entity) (*Registry, error) {
	types, err := d.Declarations()
	if err != nil {
		return nil, err
	}
	defs := make([]TypeDescriber, len(types))
	for i, t := range types {
		t.New = ctors[t.Name]
		defs[i] = t
	}
	return NewRegistry(defs...)
}
