package costmodel

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// reduceUnion computes a union's field-intersection reduction: a field
// belongs to the union's entry only if every member type declares a field
// of that name with a structurally equal output type. The copied
// descriptor is taken verbatim from the lexicographically first member.
func reduceUnion(def *ast.Definition, schema *ast.Schema, table *TypeWeightTable) (map[string]*FieldWeight, error) {
	members := append([]string(nil), def.Types...)
	sort.Strings(members)
	fields := map[string]*FieldWeight{}
	if len(members) == 0 {
		return fields, nil
	}

	first := schema.Types[members[0]]
	if first == nil {
		return fields, nil
	}

	for _, fd := range first.Fields {
		if strings.HasPrefix(fd.Name, "__") {
			continue
		}
		shared := true
		for _, mname := range members[1:] {
			mdef := schema.Types[mname]
			if mdef == nil {
				shared = false
				break
			}
			other := mdef.Fields.ForName(fd.Name)
			if other == nil || !typesEqual(fd.Type, other.Type) {
				shared = false
				break
			}
		}
		if !shared {
			continue
		}
		firstEntry, ok := table.Lookup(members[0])
		if !ok {
			continue
		}
		fw, ok := firstEntry.Fields[fd.Name]
		if !ok {
			continue
		}
		fields[fd.Name] = fw
	}
	return fields, nil
}

func typesEqual(a, b *ast.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.NonNull != b.NonNull {
		return false
	}
	if (a.Elem == nil) != (b.Elem == nil) {
		return false
	}
	if a.Elem != nil {
		return typesEqual(a.Elem, b.Elem)
	}
	return a.NamedType == b.NamedType
}
