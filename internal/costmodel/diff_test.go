package costmodel_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/costgate/costgate/internal/costmodel"
)

// TestBuild_FullTypeShape diffs an entire built type's field set against an
// expected literal in one shot; testify's Equal reports only "not equal"
// for a nested map of pointers, so a structural table like this is clearer
// as a cmp.Diff.
func TestBuild_FullTypeShape(t *testing.T) {
	schema := mustLoadSchema(t, `
		type Query {
			viewer: User
		}
		type User {
			id: ID!
			name: String!
			posts(first: Int = 5): [Post!]!
			recent: [Post!]! @listCost(cost: 3)
		}
		type Post {
			id: ID!
		}
		directive @listCost(cost: Int!) on FIELD_DEFINITION
	`)
	table, err := costmodel.Build(schema, costmodel.Config{})
	require.NoError(t, err)

	tw, ok := table.Lookup("User")
	require.True(t, ok)

	want := &costmodel.TypeWeight{
		Name:       "User",
		BaseWeight: 1,
		Fields: map[string]*costmodel.FieldWeight{
			"id":   {Kind: costmodel.FieldScalar, Weight: 0},
			"name": {Kind: costmodel.FieldScalar, Weight: 0},
			"posts": {
				Kind:       costmodel.FieldListMultiplier,
				ResolvesTo: "post",
				Multiplier: &costmodel.Multiplier{ArgName: "first", HasDefault: true, Default: 5, ElementBaseWeight: 1},
			},
			"recent": {Kind: costmodel.FieldListConstant, Weight: 3, ResolvesTo: "post"},
		},
	}

	if diff := cmp.Diff(want, tw); diff != "" {
		t.Errorf("User type shape mismatch (-want +got):\n%s", diff)
	}
}
