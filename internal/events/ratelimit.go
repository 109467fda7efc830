package events

import "time"

// RateLimitDecision is emitted after C4 evaluates one request, whether or
// not dark mode overrode it to always forward.
type RateLimitDecision struct {
	CallerKey  string
	Algorithm  string
	Cost       int
	Allowed    bool
	Dark       bool
	Remaining  int
	RetryAfter time.Duration
}
