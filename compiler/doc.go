// Package compiler generates accessor tables for the entity types declared
// in a YAML schema document.
//
// For every type it writes a Go struct with one field per schema field,
// the EntityName, Get and Set methods required by schema.Entity, and
// lazy.One or lazy.Many handles for relationships. A shared schema.go
// declares the types with the schema builders and binds their constructors:
//
//	doc, _ := schema.ReadDocumentFile("schema.yaml")
//	err := compiler.Generate(ctx, doc,
//	    compiler.WithTarget("internal/shop"),
//	    compiler.WithPackage("shop"),
//	)
//
// The generated package exposes Registry() (*schema.Registry, error).
package compiler
