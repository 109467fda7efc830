// Package costmodel implements the Type Weight Table (C1) and the Schema
// Cost Builder (C2): compiling a GraphQL schema plus a weight configuration
// into a per-type, per-field cost model consulted at analysis time.
package costmodel

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Option configures Build beyond the weight Config.
type Option func(*options)

type options struct {
	strict bool
}

// WithStrictMode rejects list fields that carry neither a @listCost
// directive nor a recognized slicing argument (first/last/limit), instead of
// falling back to multiplier 1 at analysis time.
func WithStrictMode(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

var slicingArgNames = []string{"first", "last", "limit"}

// Build compiles schema into a TypeWeightTable under the given configuration.
func Build(schema *ast.Schema, cfg Config, opts ...Option) (*TypeWeightTable, error) {
	r, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	table := newTable()

	names := make([]string, 0, len(schema.Types))
	for name := range schema.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	var unionNames []string

	for _, name := range names {
		if strings.HasPrefix(name, "__") {
			continue
		}
		def := schema.Types[name]
		switch def.Kind {
		case ast.Object, ast.Interface:
			tw, err := buildComposite(def, schema, r, o)
			if err != nil {
				return nil, err
			}
			table.put(tw)
		case ast.Enum:
			table.put(&TypeWeight{Name: def.Name, BaseWeight: r.Scalar, Fields: map[string]*FieldWeight{}})
		case ast.Union:
			unionNames = append(unionNames, name)
		case ast.Scalar, ast.InputObject:
			// not represented as table entries; legal named-type kinds.
		default:
			return nil, &BuildError{Kind: ErrUnsupportedType, TypeName: def.Name, Message: "unsupported named type kind"}
		}
	}

	for _, name := range unionNames {
		def := schema.Types[name]
		fields, err := reduceUnion(def, schema, table)
		if err != nil {
			return nil, err
		}
		table.put(&TypeWeight{Name: def.Name, BaseWeight: r.Object, Fields: fields})
	}

	return table, nil
}

func baseWeightForType(def *ast.Definition, schema *ast.Schema, r resolved) int {
	if schema.Query != nil && def.Name == schema.Query.Name {
		return r.Query
	}
	if schema.Mutation != nil && def.Name == schema.Mutation.Name {
		return r.Mutation
	}
	if strings.HasSuffix(def.Name, "Connection") {
		return r.Connection
	}
	return r.Object
}

func buildComposite(def *ast.Definition, schema *ast.Schema, r resolved, o options) (*TypeWeight, error) {
	tw := &TypeWeight{
		Name:       def.Name,
		BaseWeight: baseWeightForType(def, schema, r),
		Fields:     map[string]*FieldWeight{},
	}
	for _, field := range def.Fields {
		if strings.HasPrefix(field.Name, "__") {
			continue
		}
		fw, err := buildField(def, field, schema, r, o)
		if err != nil {
			return nil, err
		}
		tw.Fields[field.Name] = fw
	}
	return tw, nil
}

func buildField(owner *ast.Definition, field *ast.FieldDefinition, schema *ast.Schema, r resolved, o options) (*FieldWeight, error) {
	t := field.Type
	if t.Elem == nil {
		// single-valued field: scalar-like or single-object-like.
		elemDef := schema.Types[t.Name()]
		if elemDef == nil {
			return nil, &BuildError{Kind: ErrUnsupportedType, TypeName: owner.Name, FieldName: field.Name, Message: "unknown output type " + t.Name()}
		}
		if elemDef.Kind == ast.Scalar {
			return &FieldWeight{Kind: FieldScalar, Weight: r.Scalar}, nil
		}
		return &FieldWeight{Kind: FieldSingle, ResolvesTo: strings.ToLower(elemDef.Name)}, nil
	}

	// list-valued field.
	elem := t.Elem
	elemDef := schema.Types[elem.Name()]
	if elemDef == nil {
		return nil, &BuildError{Kind: ErrUnsupportedType, TypeName: owner.Name, FieldName: field.Name, Message: "unknown list element type " + elem.Name()}
	}

	freeScalar := (elemDef.Kind == ast.Scalar || elemDef.Kind == ast.Enum) && r.Scalar == 0
	if freeScalar {
		return &FieldWeight{Kind: FieldListConstant, Weight: 0}, nil
	}

	if dir := field.Directives.ForName("listCost"); dir != nil {
		if arg := dir.Arguments.ForName("cost"); arg != nil && arg.Value != nil {
			n, err := strconv.Atoi(arg.Value.Raw)
			if err == nil && n >= 0 {
				resolvesTo := ""
				if elemDef.Kind != ast.Scalar {
					resolvesTo = strings.ToLower(elemDef.Name)
				}
				return &FieldWeight{Kind: FieldListConstant, Weight: n, ResolvesTo: resolvesTo}, nil
			}
		}
	}

	if slicingArg := findSlicingArg(field.Arguments); slicingArg != nil {
		resolvesTo, elementBaseWeight := elementCost(elemDef, schema, r)
		m := &Multiplier{ArgName: slicingArg.Name, ElementBaseWeight: elementBaseWeight}
		if slicingArg.DefaultValue != nil && slicingArg.DefaultValue.Kind == ast.IntValue {
			if d, err := strconv.Atoi(slicingArg.DefaultValue.Raw); err == nil {
				m.HasDefault = true
				m.Default = d
			}
		}
		return &FieldWeight{Kind: FieldListMultiplier, ResolvesTo: resolvesTo, Multiplier: m}, nil
	}

	if o.strict {
		return nil, &BuildError{Kind: ErrUnboundedList, TypeName: owner.Name, FieldName: field.Name, Message: "list field has no @listCost and no slicing argument"}
	}

	// non-strict fallback: no recognized slicing argument, so the multiplier
	// itself defaults to a constant 1. The per-element base weight still
	// follows the usual rule regardless: a composite element contributes its
	// own baseWeight per instance, so this is not pure pass-through once the
	// element type carries any weight.
	resolvesTo, elementBaseWeight := elementCost(elemDef, schema, r)
	return &FieldWeight{
		Kind:       FieldListMultiplier,
		ResolvesTo: resolvesTo,
		Multiplier: &Multiplier{ArgName: "", HasDefault: true, Default: 1, ElementBaseWeight: elementBaseWeight},
	}, nil
}

// elementCost resolves a list field's element resolvesTo name and
// per-element base weight: empty/scalar weight for scalars and enums, the
// element type's own baseWeight for composite element types.
func elementCost(elemDef *ast.Definition, schema *ast.Schema, r resolved) (resolvesTo string, elementBaseWeight int) {
	if elemDef.Kind == ast.Scalar || elemDef.Kind == ast.Enum {
		return "", r.Scalar
	}
	return strings.ToLower(elemDef.Name), baseWeightForType(elemDef, schema, r)
}

func findSlicingArg(args ast.ArgumentDefinitionList) *ast.ArgumentDefinition {
	for _, name := range slicingArgNames {
		if a := args.ForName(name); a != nil {
			return a
		}
	}
	return nil
}
