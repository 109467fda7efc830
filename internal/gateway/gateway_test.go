package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/costgate/costgate/internal/cache"
	"github.com/costgate/costgate/internal/costmodel"
	"github.com/costgate/costgate/internal/gateway"
	"github.com/costgate/costgate/internal/ratelimit"
)

const testSDL = `
	type Query {
		posts(first: Int = 10): [Post!]!
	}
	type Post {
		id: ID!
		title: String!
	}
`

func newTestHandler(t *testing.T, opts ...gateway.Option) *gateway.Handler {
	t.Helper()
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "t.graphql", Input: testSDL})
	require.NoError(t, err)
	table, err := costmodel.Build(schema, costmodel.Config{})
	require.NoError(t, err)
	algo := ratelimit.NewTokenBucket(cache.NewMemory(), 10, 1, 0)
	return gateway.New(schema, table, algo, opts...)
}

func TestGateway_AllowsWithinBudget(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ posts(first: 3) { id } }"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "allow", w.Header().Get(gateway.DecisionHeader))
}

func TestGateway_RejectsOverBudget(t *testing.T) {
	h := newTestHandler(t)
	body := `{"query":"{ posts(first: 20) { id } }"}`

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "deny", w.Header().Get(gateway.DecisionHeader))
}

func TestGateway_DarkModeNeverBlocks(t *testing.T) {
	h := newTestHandler(t, gateway.WithDark(true))
	body := `{"query":"{ posts(first: 50) { id } }"}`

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "deny", w.Header().Get(gateway.DecisionHeader))
}

func TestGateway_InvalidQueryIsBadRequest(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ nonExistentField }"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGateway_AdminResetClearsState(t *testing.T) {
	h := newTestHandler(t)

	// Query.baseWeight(1) + 9*(Post.baseWeight(1) + 0) == 10 == capacity:
	// exactly drains the bucket without exceeding it outright.
	drain := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ posts(first: 9) { id } }"}`))
	wDrain := httptest.NewRecorder()
	h.ServeHTTP(wDrain, drain)
	require.Equal(t, http.StatusOK, wDrain.Code)

	reset := httptest.NewRequest(http.MethodPost, "/admin/reset", strings.NewReader(`{"callerKey":"`+drain.RemoteAddr+`"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, reset)
	require.Equal(t, http.StatusNoContent, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ posts(first: 9) { id } }"}`))
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)
}
