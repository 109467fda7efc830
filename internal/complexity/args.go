package complexity

import (
	"strconv"

	"github.com/costgate/costgate/internal/language"
)

// resolveBoolArg resolves a boolean argument value, following variable
// references into the supplied variables map. Returns ok=false if the
// argument is absent.
func resolveBoolArg(args language.ArgumentList, name string, variables map[string]any) (bool, bool) {
	arg := args.ForName(name)
	if arg == nil || arg.Value == nil {
		return false, false
	}
	return resolveBoolValue(arg.Value, variables)
}

func resolveBoolValue(v *language.Value, variables map[string]any) (bool, bool) {
	switch v.Kind {
	case language.BooleanValue:
		return v.Raw == "true", true
	case language.Variable:
		raw, ok := variables[v.Raw]
		if !ok {
			return false, false
		}
		b, ok := raw.(bool)
		return b, ok
	default:
		return false, false
	}
}

// resolveIntArg resolves an integer argument value (literal or variable),
// used to evaluate a list field's slicing-argument multiplier.
func resolveIntArg(args language.ArgumentList, name string, variables map[string]any) (int, bool) {
	arg := args.ForName(name)
	if arg == nil || arg.Value == nil {
		return 0, false
	}
	return resolveIntValue(arg.Value, variables)
}

func resolveIntValue(v *language.Value, variables map[string]any) (int, bool) {
	switch v.Kind {
	case language.IntValue:
		n, err := strconv.Atoi(v.Raw)
		if err != nil {
			return 0, false
		}
		return n, true
	case language.Variable:
		raw, ok := variables[v.Raw]
		if !ok {
			return 0, false
		}
		switch n := raw.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			return int(n), true
		default:
			return 0, false
		}
	default:
		return 0, false
	}
}

// shouldSkip applies the @skip/@include directive semantics: a selection is
// excluded if @skip evaluates true, or if @include evaluates false.
func shouldSkip(directives language.DirectiveList, variables map[string]any) bool {
	if dir := directives.ForName("skip"); dir != nil {
		if v, ok := resolveBoolArg(dir.Arguments, "if", variables); ok && v {
			return true
		}
	}
	if dir := directives.ForName("include"); dir != nil {
		if v, ok := resolveBoolArg(dir.Arguments, "if", variables); ok && !v {
			return true
		}
	}
	return false
}
