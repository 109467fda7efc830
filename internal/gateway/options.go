package gateway

import (
	"net/http"

	"github.com/costgate/costgate/internal/costmodel"
	"github.com/costgate/costgate/internal/language"
	"github.com/costgate/costgate/internal/limiter"
	"github.com/costgate/costgate/internal/ratelimit"
)

// Options configures a Handler. Use the With* functions rather than
// constructing this directly.
type Options struct {
	Schema         *language.Schema
	Table          *costmodel.TypeWeightTable
	Algorithm      ratelimit.Algorithm
	AlgorithmName  string
	Serializer     *limiter.Serializer
	Upstream       http.Handler
	CallerKey      func(*http.Request) string
	DepthLimit     int
	Dark           bool
	AllowedOrigins []string
	AdminResetPath string
}

// Option mutates Options at construction time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		CallerKey:      defaultCallerKey,
		AdminResetPath: "/admin/reset",
	}
}

func defaultCallerKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.RemoteAddr
}

// WithUpstream forwards allowed requests to the wrapped handler instead of
// responding with a stub acknowledgement.
func WithUpstream(h http.Handler) Option {
	return func(o *Options) { o.Upstream = h }
}

// WithCallerKey overrides how a caller's rate-limit key is derived from the
// incoming request. Defaults to the X-API-Key header, falling back to
// RemoteAddr.
func WithCallerKey(fn func(*http.Request) string) Option {
	return func(o *Options) { o.CallerKey = fn }
}

// WithDepthLimit rejects operations whose max selection depth exceeds n.
// Zero (the default) means unbounded.
func WithDepthLimit(n int) Option {
	return func(o *Options) { o.DepthLimit = n }
}

// WithDark puts the gateway in dark mode: every decision is recorded and
// surfaced via DecisionHeader and the eventbus, but nothing is ever blocked.
func WithDark(dark bool) Option {
	return func(o *Options) { o.Dark = dark }
}

// WithAlgorithmName records the configured algorithm's name for event/trace
// attribution; it has no effect on behavior.
func WithAlgorithmName(name string) Option {
	return func(o *Options) { o.AlgorithmName = name }
}

// WithAllowedOrigins enables permissive CORS for the given origins. An
// empty list (the default) disables CORS handling entirely.
func WithAllowedOrigins(origins []string) Option {
	return func(o *Options) { o.AllowedOrigins = origins }
}

// WithAdminResetPath overrides the administrative reset endpoint's path.
func WithAdminResetPath(path string) Option {
	return func(o *Options) { o.AdminResetPath = path }
}

func (o *Options) setCORS(w http.ResponseWriter) {
	if len(o.AllowedOrigins) == 0 {
		return
	}
	origin := "*"
	if len(o.AllowedOrigins) == 1 {
		origin = o.AllowedOrigins[0]
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
}
