// Package gateway implements the Gateway Entry Point (C6): an HTTP handler
// that parses and validates an incoming GraphQL operation, scores it with
// the Operation Complexity Analyzer, evaluates it against a C4 algorithm
// serialized per caller, and either forwards it upstream or rejects it.
package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/costgate/costgate/internal/complexity"
	"github.com/costgate/costgate/internal/costmodel"
	"github.com/costgate/costgate/internal/eventbus"
	"github.com/costgate/costgate/internal/events"
	"github.com/costgate/costgate/internal/language"
	"github.com/costgate/costgate/internal/limiter"
	"github.com/costgate/costgate/internal/ratelimit"
	"github.com/costgate/costgate/internal/reqid"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// DecisionHeader carries the dark-mode (or live) rate-limit decision on
// every response that reached a decision, so operators can observe it
// without parsing the body. Responses rejected earlier (invalid request,
// validation or analysis failure, depth limit, backend failure) omit it.
const DecisionHeader = "X-RateLimit-Decision"

// Handler is the gateway's http.Handler.
type Handler struct {
	opts Options
}

// New constructs a Handler. schema and table must already reflect the same
// SDL; algorithm drives C4, and New creates the per-caller serializer (C5)
// itself.
func New(schema *language.Schema, table *costmodel.TypeWeightTable, algorithm ratelimit.Algorithm, opts ...Option) *Handler {
	o := defaultOptions()
	o.Schema = schema
	o.Table = table
	o.Algorithm = algorithm
	o.Serializer = limiter.New()
	for _, opt := range opts {
		opt(&o)
	}
	return &Handler{opts: o}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, _ := reqid.NewContext(r.Context())
	r = r.WithContext(ctx)

	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: rw.status, Duration: time.Since(start)})
	}()

	h.opts.setCORS(rw)
	if r.Method == http.MethodOptions {
		rw.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == h.opts.AdminResetPath {
		h.handleAdminReset(rw, r)
		return
	}

	h.handleOperation(rw, r)
}

type operationRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type adminResetRequest struct {
	CallerKey string `json:"callerKey"`
}

func (h *Handler) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	var req adminResetRequest
	if err := jsonCodec.NewDecoder(r.Body).Decode(&req); err != nil || req.CallerKey == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "callerKey is required")
		return
	}
	if err := h.opts.Algorithm.Reset(r.Context(), req.CallerKey); err != nil {
		writeError(w, http.StatusServiceUnavailable, "BackendUnavailable", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseOperationRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName})

	doc, gerr := language.LoadQuery(h.opts.Schema, req.Query)
	if len(gerr) > 0 {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query: req.Query, OperationName: req.OperationName, Errors: []error{gerr},
		})
		writeError(w, http.StatusBadRequest, "ValidationError", gerr.Error())
		return
	}

	result, err := complexity.Analyze(doc, req.OperationName, req.Variables, h.opts.Schema, h.opts.Table)
	if err != nil {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query: req.Query, OperationName: req.OperationName, Errors: []error{err},
		})
		writeError(w, http.StatusBadRequest, "AnalysisError", err.Error())
		return
	}

	if h.opts.DepthLimit > 0 && result.MaxDepth > h.opts.DepthLimit {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query: req.Query, OperationName: req.OperationName,
			Complexity: result.Complexity, MaxDepth: result.MaxDepth,
		})
		writeError(w, http.StatusBadRequest, "DepthExceeded", "operation exceeds the configured depth limit")
		return
	}

	callerKey := h.opts.CallerKey(r)
	decisionAny, err := h.opts.Serializer.Run(ctx, callerKey, func(ctx context.Context) (any, error) {
		return h.opts.Algorithm.ProcessRequest(ctx, callerKey, result.Complexity, time.Now())
	})
	if err != nil {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query: req.Query, OperationName: req.OperationName,
			Complexity: result.Complexity, MaxDepth: result.MaxDepth, Errors: []error{err},
		})
		writeError(w, http.StatusServiceUnavailable, "BackendUnavailable", "rate limit backend unavailable")
		return
	}
	decision := decisionAny.(ratelimit.Decision)

	eventbus.Publish(ctx, events.RateLimitDecision{
		CallerKey: callerKey, Algorithm: h.opts.AlgorithmName, Cost: result.Complexity,
		Allowed: decision.Allowed, Dark: h.opts.Dark, Remaining: decision.Remaining, RetryAfter: decision.RetryAfter,
	})
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query: req.Query, OperationName: req.OperationName,
		Complexity: result.Complexity, MaxDepth: result.MaxDepth,
	})

	w.Header().Set(DecisionHeader, decisionLabel(decision))

	if !decision.Allowed && !h.opts.Dark {
		if decision.RetryAfter > 0 {
			seconds := int(decision.RetryAfter / time.Second)
			if decision.RetryAfter%time.Second != 0 {
				seconds++
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		writeError(w, http.StatusTooManyRequests, "RateLimited", "operation cost exceeds the caller's remaining budget")
		return
	}

	h.forward(w, r)
}

func decisionLabel(d ratelimit.Decision) string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	if h.opts.Upstream != nil {
		h.opts.Upstream.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = jsonCodec.NewEncoder(w).Encode(map[string]any{"data": nil})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonCodec.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"code": code, "message": message}},
	})
}

