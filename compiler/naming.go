package compiler

import (
	"go/token"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialisms are written in upper case in Go identifiers.
var initialisms = map[string]bool{
	"id":   true,
	"ip":   true,
	"url":  true,
	"uri":  true,
	"sku":  true,
	"uuid": true,
	"api":  true,
	"http": true,
	"sql":  true,
	"json": true,
	"html": true,
	"xml":  true,
}

// pascal converts a field name such as "order_id" or "createdAt" into an
// exported Go identifier ("OrderID", "CreatedAt").
func pascal(name string) string {
	// A Caser is stateful, so each call gets its own.
	title := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.Split(inflect.Underscore(name), "_") {
		if part == "" {
			continue
		}
		if initialisms[part] {
			b.WriteString(strings.ToUpper(part))
			continue
		}
		b.WriteString(title.String(part))
	}
	return b.String()
}

// fileName returns the generated file name of an entity type.
func fileName(typ string) string {
	return inflect.Underscore(typ) + ".go"
}

// receiver returns the method receiver name of an entity type. It never
// collides with the locals of the generated Set method.
func receiver(typ string) string {
	r := strings.ToLower(typ[:1])
	if r == "v" || !token.IsIdentifier(r) {
		return "e"
	}
	return r
}

// reserved holds the method names of the generated accessor table.
var reserved = map[string]bool{
	"EntityName": true,
	"Get":        true,
	"Set":        true,
}
