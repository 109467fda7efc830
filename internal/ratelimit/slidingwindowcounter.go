package ratelimit

import (
	"context"
	"time"

	"github.com/costgate/costgate/internal/cache"
)

// SlidingWindowCounter approximates a sliding window with two fixed-window
// counters, weighting the previous window's count by how much of it still
// overlaps the trailing window. Constant-size state, approximate result.
type SlidingWindowCounter struct {
	backend  cache.Backend
	capacity int
	window   time.Duration
}

func NewSlidingWindowCounter(backend cache.Backend, capacity int, window time.Duration) *SlidingWindowCounter {
	return &SlidingWindowCounter{backend: backend, capacity: capacity, window: window}
}

type slidingWindowCounterState struct {
	PrevCount        int   `json:"prevCount"`
	PrevWindowMillis int64 `json:"prevWindowStartMillis"`
	CurrCount        int   `json:"currCount"`
	CurrWindowMillis int64 `json:"currWindowStartMillis"`
}

func (sc *SlidingWindowCounter) ProcessRequest(ctx context.Context, key string, cost int, now time.Time) (Decision, error) {
	currentWindowStart := now.Truncate(sc.window)

	state, ok, err := loadState[slidingWindowCounterState](ctx, sc.backend, "slidingwindowcounter", key)
	if err != nil {
		return Decision{}, err
	}

	currStart := time.UnixMilli(state.CurrWindowMillis)
	switch {
	case !ok:
		state = slidingWindowCounterState{CurrWindowMillis: currentWindowStart.UnixMilli()}
	case currStart.Equal(currentWindowStart):
		// still in the same window, nothing to roll.
	case currStart.Add(sc.window).Equal(currentWindowStart):
		// advanced exactly one window: current becomes previous.
		state = slidingWindowCounterState{
			PrevCount:        state.CurrCount,
			PrevWindowMillis: state.CurrWindowMillis,
			CurrCount:        0,
			CurrWindowMillis: currentWindowStart.UnixMilli(),
		}
	default:
		// gap of more than one window: no overlap with any prior activity.
		state = slidingWindowCounterState{CurrWindowMillis: currentWindowStart.UnixMilli()}
	}

	elapsedInCurrent := now.Sub(currentWindowStart)
	overlap := 1 - float64(elapsedInCurrent)/float64(sc.window)
	if overlap < 0 {
		overlap = 0
	}
	weighted := float64(state.PrevCount)*overlap + float64(state.CurrCount)

	if cost > sc.capacity {
		return Decision{Allowed: false, Remaining: clampRemaining(sc.capacity - int(weighted)), RetryAfter: Infinite}, nil
	}

	if weighted+float64(cost) <= float64(sc.capacity) {
		state.CurrCount += cost
		if err := saveState(ctx, sc.backend, "slidingwindowcounter", key, state, 2*sc.window); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Remaining: clampRemaining(sc.capacity - int(weighted) - cost)}, nil
	}

	if err := saveState(ctx, sc.backend, "slidingwindowcounter", key, state, 2*sc.window); err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:    false,
		Remaining:  clampRemaining(sc.capacity - int(weighted)),
		RetryAfter: currentWindowStart.Add(sc.window).Sub(now),
	}, nil
}

func (sc *SlidingWindowCounter) Reset(ctx context.Context, key string) error {
	return resetState(ctx, sc.backend, "slidingwindowcounter", key)
}
