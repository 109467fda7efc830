package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an operation document without validating it against a schema.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchema parses a single SDL document without merging it with any other source.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema merges one or more SDL sources into a single validated *Schema.
// This is the boundary where schema parsing and introspection are delegated
// to gqlparser; nothing downstream re-parses SDL.
func LoadSchema(sources ...*ast.Source) (*Schema, error) {
	return gqlparser.LoadSchema(sources...)
}

// LoadSchemaFromString is a convenience wrapper for a single in-memory SDL document.
func LoadSchemaFromString(name, sdl string) (*Schema, error) {
	return LoadSchema(&ast.Source{Name: name, Input: sdl})
}

// LoadQuery parses an operation document and validates it against schema,
// mirroring the ValidationError taxonomy entry: any validation failure is
// returned as a gqlerror.List for the caller to report as a 400.
func LoadQuery(schema *Schema, query string) (*QueryDocument, gqlerror.List) {
	return gqlparser.LoadQuery(schema, query)
}
