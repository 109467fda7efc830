package ratelimit

import (
	"context"
	"time"

	"github.com/costgate/costgate/internal/cache"
)

// FixedWindow counts request cost within a fixed-size window that resets
// on a clock boundary (now truncated to window size).
type FixedWindow struct {
	backend  cache.Backend
	capacity int
	window   time.Duration
}

func NewFixedWindow(backend cache.Backend, capacity int, window time.Duration) *FixedWindow {
	return &FixedWindow{backend: backend, capacity: capacity, window: window}
}

type fixedWindowState struct {
	Count            int   `json:"count"`
	WindowStartMillis int64 `json:"windowStartMillis"`
}

func (fw *FixedWindow) ProcessRequest(ctx context.Context, key string, cost int, now time.Time) (Decision, error) {
	currentWindowStart := now.Truncate(fw.window)

	state, ok, err := loadState[fixedWindowState](ctx, fw.backend, "fixedwindow", key)
	if err != nil {
		return Decision{}, err
	}
	if !ok || time.UnixMilli(state.WindowStartMillis).Before(currentWindowStart) {
		state = fixedWindowState{Count: 0, WindowStartMillis: currentWindowStart.UnixMilli()}
	}

	if cost > fw.capacity {
		return Decision{Allowed: false, Remaining: clampRemaining(fw.capacity - state.Count), RetryAfter: Infinite}, nil
	}

	windowEnd := currentWindowStart.Add(fw.window)
	if state.Count+cost <= fw.capacity {
		state.Count += cost
		if err := saveState(ctx, fw.backend, "fixedwindow", key, state, fw.window); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Remaining: fw.capacity - state.Count}, nil
	}

	if err := saveState(ctx, fw.backend, "fixedwindow", key, state, fw.window); err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:    false,
		Remaining:  clampRemaining(fw.capacity - state.Count),
		RetryAfter: windowEnd.Sub(now),
	}, nil
}

func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	return resetState(ctx, fw.backend, "fixedwindow", key)
}
