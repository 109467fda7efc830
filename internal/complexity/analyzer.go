// Package complexity implements the Operation Complexity Analyzer (C3):
// walking a parsed, schema-validated GraphQL operation against a
// costmodel.TypeWeightTable to produce a single complexity score and a
// maximum selection depth.
package complexity

import (
	"github.com/costgate/costgate/internal/costmodel"
	"github.com/costgate/costgate/internal/language"
)

// Result is the outcome of analyzing one operation.
type Result struct {
	Complexity int
	MaxDepth   int
}

// Analyze computes the cost and max depth of the named operation in doc
// against table. operationName may be empty if doc has exactly one
// operation. variables holds the operation's runtime variable bindings,
// used to resolve @skip/@include and slicing-argument values.
func Analyze(doc *language.QueryDocument, operationName string, variables map[string]any, schema *language.Schema, table *costmodel.TypeWeightTable) (Result, error) {
	op, err := findOperation(doc, operationName)
	if err != nil {
		return Result{}, err
	}

	rootType, err := rootTypeName(schema, op.Operation)
	if err != nil {
		return Result{}, err
	}

	rootEntry, ok := table.Lookup(rootType)
	if !ok {
		return Result{}, &AnalysisError{Kind: ErrUnknownField, Subject: rootType, Message: "root type has no entry in the type weight table"}
	}

	a := &analyzer{
		doc:       doc,
		variables: variables,
		table:     table,
		fragments: map[string]fragResult{},
	}

	selCost, maxDepth, err := a.walkSet(op.SelectionSet, rootType, 1)
	if err != nil {
		return Result{}, err
	}
	cost := rootEntry.BaseWeight + selCost

	// Open question: unspread fragment definitions are type-checked but not
	// added to the operation's total.
	for _, frag := range doc.Fragments {
		if _, ok := a.fragments[frag.Name]; ok {
			continue
		}
		if _, _, err := a.resolveFragment(frag); err != nil {
			return Result{}, err
		}
	}

	return Result{Complexity: cost, MaxDepth: maxDepth}, nil
}

func findOperation(doc *language.QueryDocument, name string) (*language.OperationDefinition, error) {
	if name != "" {
		op := doc.Operations.ForName(name)
		if op == nil {
			return nil, &AnalysisError{Kind: ErrOperationNotFound, Subject: name, Message: "no operation with this name"}
		}
		return op, nil
	}
	if len(doc.Operations) == 1 {
		return doc.Operations[0], nil
	}
	return nil, &AnalysisError{Kind: ErrOperationNotFound, Message: "operation name required when document has more than one operation"}
}

func rootTypeName(schema *language.Schema, op language.Operation) (string, error) {
	var def *language.Definition
	switch op {
	case language.Query:
		def = schema.Query
	case language.Mutation:
		def = schema.Mutation
	case language.Subscription:
		def = schema.Subscription
	}
	if def == nil {
		return "", &AnalysisError{Kind: ErrUnsupportedSelection, Message: "schema has no root type for this operation"}
	}
	return def.Name, nil
}

type fragResult struct {
	cost        int
	cachedDepth int // computedMaxDepth - 1
}

type analyzer struct {
	doc       *language.QueryDocument
	variables map[string]any
	table     *costmodel.TypeWeightTable
	fragments map[string]fragResult
}

// walkSet accumulates the cost and max depth of a selection set evaluated
// against typeName, where depth is the depth of this selection set itself
// (the operation's root selection set is depth 1).
func (a *analyzer) walkSet(set language.SelectionSet, typeName string, depth int) (int, int, error) {
	cost := 0
	maxDepth := depth
	var typedFragmentCosts []int
	var typedFragmentDepths []int

	for _, sel := range set {
		switch node := sel.(type) {
		case *language.Field:
			if shouldSkip(node.Directives, a.variables) {
				continue
			}
			fc, fd, err := a.walkField(node, typeName, depth)
			if err != nil {
				return 0, 0, err
			}
			cost += fc
			if fd > maxDepth {
				maxDepth = fd
			}

		case *language.FragmentSpread:
			if shouldSkip(node.Directives, a.variables) {
				continue
			}
			def := a.doc.Fragments.ForName(node.Name)
			if def == nil {
				return 0, 0, &AnalysisError{Kind: ErrUnknownFragment, Subject: node.Name, Message: "fragment spread references an undefined fragment"}
			}
			fc, cachedDepth, err := a.resolveFragment(def)
			if err != nil {
				return 0, 0, err
			}
			cost += fc
			siteDepth := depth + cachedDepth
			if siteDepth > maxDepth {
				maxDepth = siteDepth
			}

		case *language.InlineFragment:
			if shouldSkip(node.Directives, a.variables) {
				continue
			}
			innerType := typeName
			if node.TypeCondition != "" {
				innerType = node.TypeCondition
			}
			fc, fd, err := a.walkSet(node.SelectionSet, innerType, depth)
			if err != nil {
				return 0, 0, err
			}
			if node.TypeCondition != "" && node.TypeCondition != typeName {
				// typed inline fragment: only one member executes at
				// runtime, so sibling typed fragments are maxed, not summed.
				typedFragmentCosts = append(typedFragmentCosts, fc)
				typedFragmentDepths = append(typedFragmentDepths, fd)
				continue
			}
			// untyped (or same-type) inline fragment: purely a directive
			// grouping, additive into the parent selection.
			cost += fc
			if fd > maxDepth {
				maxDepth = fd
			}

		default:
			return 0, 0, &AnalysisError{Kind: ErrUnsupportedSelection, Message: "unrecognized selection node"}
		}
	}

	if len(typedFragmentCosts) > 0 {
		maxCost, maxFragDepth := typedFragmentCosts[0], typedFragmentDepths[0]
		for i := 1; i < len(typedFragmentCosts); i++ {
			if typedFragmentCosts[i] > maxCost {
				maxCost = typedFragmentCosts[i]
			}
			if typedFragmentDepths[i] > maxFragDepth {
				maxFragDepth = typedFragmentDepths[i]
			}
		}
		cost += maxCost
		if maxFragDepth > maxDepth {
			maxDepth = maxFragDepth
		}
	}

	return cost, maxDepth, nil
}

func (a *analyzer) resolveFragment(def *language.FragmentDefinition) (cost int, cachedDepth int, err error) {
	if cached, ok := a.fragments[def.Name]; ok {
		return cached.cost, cached.cachedDepth, nil
	}
	fc, computedMaxDepth, err := a.walkSet(def.SelectionSet, def.TypeCondition, 1)
	if err != nil {
		return 0, 0, err
	}
	result := fragResult{cost: fc, cachedDepth: computedMaxDepth - 1}
	a.fragments[def.Name] = result
	return result.cost, result.cachedDepth, nil
}

// walkField computes the cost and max depth contributed by one field
// selection evaluated against typeName at the given depth.
func (a *analyzer) walkField(field *language.Field, typeName string, depth int) (int, int, error) {
	if field.Name == "__typename" {
		return 0, depth, nil
	}

	fw, ok := a.table.Field(typeName, field.Name)
	if !ok {
		return 0, 0, &AnalysisError{Kind: ErrUnknownField, Subject: typeName + "." + field.Name, Message: "field has no entry in the type weight table"}
	}

	switch fw.Kind {
	case costmodel.FieldScalar:
		return fw.Weight, depth, nil

	case costmodel.FieldSingle:
		target, ok := a.table.Lookup(fw.ResolvesTo)
		if !ok {
			return 0, 0, &AnalysisError{Kind: ErrUnknownField, Subject: typeName + "." + field.Name, Message: "field resolves to a type with no entry in the type weight table"}
		}
		if len(field.SelectionSet) == 0 {
			return target.BaseWeight, depth, nil
		}
		innerCost, innerDepth, err := a.walkSet(field.SelectionSet, fw.ResolvesTo, depth+1)
		if err != nil {
			return 0, 0, err
		}
		return target.BaseWeight + innerCost, innerDepth, nil

	case costmodel.FieldListConstant:
		innerCost := 0
		innerDepth := depth
		if fw.ResolvesTo != "" && len(field.SelectionSet) > 0 {
			ic, id, err := a.walkSet(field.SelectionSet, fw.ResolvesTo, depth+1)
			if err != nil {
				return 0, 0, err
			}
			innerCost, innerDepth = ic, id
		}
		return fw.Weight + innerCost, innerDepth, nil

	case costmodel.FieldListMultiplier:
		innerCost := 0
		innerDepth := depth
		if fw.ResolvesTo != "" && len(field.SelectionSet) > 0 {
			ic, id, err := a.walkSet(field.SelectionSet, fw.ResolvesTo, depth+1)
			if err != nil {
				return 0, 0, err
			}
			innerCost, innerDepth = ic, id
		}
		n := 1
		if fw.Multiplier.ArgName != "" {
			if v, ok := resolveIntArg(field.Arguments, fw.Multiplier.ArgName, a.variables); ok {
				n = v
			} else if fw.Multiplier.HasDefault {
				n = fw.Multiplier.Default
			}
		} else if fw.Multiplier.HasDefault {
			n = fw.Multiplier.Default
		}
		return fw.Multiplier.Evaluate(n, innerCost), innerDepth, nil

	default:
		return 0, 0, &AnalysisError{Kind: ErrUnsupportedSelection, Subject: typeName + "." + field.Name, Message: "unrecognized field descriptor kind"}
	}
}
