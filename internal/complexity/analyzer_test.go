package complexity_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/costgate/costgate/internal/complexity"
	"github.com/costgate/costgate/internal/costmodel"
)

func parseUnvalidated(t *testing.T, query string) (*ast.QueryDocument, error) {
	t.Helper()
	return parser.ParseQuery(&ast.Source{Input: query})
}

const testSDL = `
	directive @listCost(cost: Int!) on FIELD_DEFINITION

	type Query {
		viewer: User
		posts(first: Int = 10): [Post!]!
		recent: [Post!]! @listCost(cost: 5)
	}
	type User {
		id: ID!
		name: String!
		posts(first: Int = 5): [Post!]!
	}
	type Post {
		id: ID!
		title: String!
		author: User!
	}
`

func mustAnalyze(t *testing.T, query, opName string, variables map[string]any) complexity.Result {
	t.Helper()
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "test.graphql", Input: testSDL})
	require.NoError(t, err)

	table, err := costmodel.Build(schema, costmodel.Config{})
	require.NoError(t, err)

	doc, gerr := gqlparser.LoadQuery(schema, query)
	require.Empty(t, gerr)

	result, err := complexity.Analyze(doc, opName, variables, schema, table)
	require.NoError(t, err)
	return result
}

// Complexity totals below all start from Query's own baseWeight (1, the
// default), per the worked scenarios: the root operation type's baseWeight
// is charged once, and every object/interface/union field adds its
// resolved type's baseWeight on top of its selection's own cost.

func TestAnalyze_ScalarFieldsAreFree(t *testing.T) {
	result := mustAnalyze(t, `{ viewer { id name } }`, "", nil)
	// Query.baseWeight(1) + User.baseWeight(1) + scalar fields(0).
	require.Equal(t, 2, result.Complexity)
	require.Equal(t, 2, result.MaxDepth)
}

func TestAnalyze_SlicingArgumentUsesOperationValue(t *testing.T) {
	result := mustAnalyze(t, `{ posts(first: 20) { id } }`, "", nil)
	// Query.baseWeight(1) + 20*(Post.baseWeight(1) + 0).
	require.Equal(t, 21, result.Complexity)
}

func TestAnalyze_SlicingArgumentFallsBackToSchemaDefault(t *testing.T) {
	result := mustAnalyze(t, `{ posts { id } }`, "", nil)
	// Query.baseWeight(1) + 10*(Post.baseWeight(1) + 0).
	require.Equal(t, 11, result.Complexity)
}

func TestAnalyze_SlicingArgumentFromVariable(t *testing.T) {
	result := mustAnalyze(t, `query($n: Int) { posts(first: $n) { id } }`, "", map[string]any{"n": 3})
	// Query.baseWeight(1) + 3*(Post.baseWeight(1) + 0).
	require.Equal(t, 4, result.Complexity)
}

func TestAnalyze_ListCostDirectiveIsAdditive(t *testing.T) {
	result := mustAnalyze(t, `{ recent { id } }`, "", nil)
	// Query.baseWeight(1) + @listCost(5).
	require.Equal(t, 6, result.Complexity)
}

func TestAnalyze_NestedListMultipliesAndAddsDepth(t *testing.T) {
	result := mustAnalyze(t, `{ viewer { posts(first: 4) { id } } }`, "", nil)
	// Query.baseWeight(1) + User.baseWeight(1) + 4*(Post.baseWeight(1) + 0).
	require.Equal(t, 6, result.Complexity)
	require.Equal(t, 3, result.MaxDepth)
}

func TestAnalyze_SkipDirectiveExcludesField(t *testing.T) {
	result := mustAnalyze(t, `{ posts(first: 5) { id title @skip(if: true) } }`, "", nil)
	// Query.baseWeight(1) + 5*(Post.baseWeight(1) + 0).
	require.Equal(t, 6, result.Complexity)
}

func TestAnalyze_IncludeDirectiveFalseExcludesField(t *testing.T) {
	result := mustAnalyze(t, `query($cond: Boolean) { posts(first: 5) { id title @include(if: $cond) } }`, "", map[string]any{"cond": false})
	// Query.baseWeight(1) + 5*(Post.baseWeight(1) + 0).
	require.Equal(t, 6, result.Complexity)
}

func TestAnalyze_FragmentSpreadIsCachedAndOffset(t *testing.T) {
	query := `
		{ posts(first: 2) { ...PostFields } }
		fragment PostFields on Post { id title }
	`
	result := mustAnalyze(t, query, "", nil)
	// Query.baseWeight(1) + 2*(Post.baseWeight(1) + 0); the fragment's own
	// fields are scalar and free.
	require.Equal(t, 3, result.Complexity)
	require.Equal(t, 2, result.MaxDepth)
}

func TestAnalyze_UnknownFieldErrors(t *testing.T) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "test.graphql", Input: testSDL})
	require.NoError(t, err)
	table, err := costmodel.Build(schema, costmodel.Config{})
	require.NoError(t, err)

	// bogus selects a field that does not exist on Post; gqlparser's own
	// validator would normally reject this, so build the document without
	// validation to exercise the analyzer's own defense.
	doc, perr := parseUnvalidated(t, `{ posts(first: 1) { bogus } }`)
	require.NoError(t, perr)

	_, err = complexity.Analyze(doc, "", nil, schema, table)
	require.Error(t, err)
}
