package ratelimit

import (
	"context"
	"time"

	"github.com/costgate/costgate/internal/cache"
)

// SlidingWindowLog keeps a per-caller log of (timestamp, cost) entries and
// sums the cost of entries still inside the trailing window. Exact, at the
// price of storing one entry per request within the window.
type SlidingWindowLog struct {
	backend  cache.Backend
	capacity int
	window   time.Duration
}

func NewSlidingWindowLog(backend cache.Backend, capacity int, window time.Duration) *SlidingWindowLog {
	return &SlidingWindowLog{backend: backend, capacity: capacity, window: window}
}

type logEntry struct {
	AtMillis int64 `json:"atMillis"`
	Cost     int   `json:"cost"`
}

type slidingWindowLogState struct {
	Entries []logEntry `json:"entries"`
}

func (sw *SlidingWindowLog) ProcessRequest(ctx context.Context, key string, cost int, now time.Time) (Decision, error) {
	state, _, err := loadState[slidingWindowLogState](ctx, sw.backend, "slidingwindowlog", key)
	if err != nil {
		return Decision{}, err
	}

	cutoff := now.Add(-sw.window)
	live := state.Entries[:0]
	sum := 0
	for _, e := range state.Entries {
		if time.UnixMilli(e.AtMillis).After(cutoff) {
			live = append(live, e)
			sum += e.Cost
		}
	}
	state.Entries = live

	if cost > sw.capacity {
		return Decision{Allowed: false, Remaining: clampRemaining(sw.capacity - sum), RetryAfter: Infinite}, nil
	}

	if sum+cost <= sw.capacity {
		state.Entries = append(state.Entries, logEntry{AtMillis: now.UnixMilli(), Cost: cost})
		if err := saveState(ctx, sw.backend, "slidingwindowlog", key, state, sw.window); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Remaining: sw.capacity - sum - cost}, nil
	}

	retryAfter := sw.window
	if len(state.Entries) > 0 {
		oldest := time.UnixMilli(state.Entries[0].AtMillis)
		retryAfter = oldest.Add(sw.window).Sub(now)
	}
	if err := saveState(ctx, sw.backend, "slidingwindowlog", key, state, sw.window); err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: false, Remaining: clampRemaining(sw.capacity - sum), RetryAfter: retryAfter}, nil
}

func (sw *SlidingWindowLog) Reset(ctx context.Context, key string) error {
	return resetState(ctx, sw.backend, "slidingwindowlog", key)
}
