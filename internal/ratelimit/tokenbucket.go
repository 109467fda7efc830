package ratelimit

import (
	"context"
	"time"

	"github.com/costgate/costgate/internal/cache"
)

// TokenBucket refills at a constant rate up to a capacity ceiling and spends
// tokens equal to each request's cost.
type TokenBucket struct {
	backend    cache.Backend
	capacity   int
	refillRate float64 // tokens per second
	ttl        time.Duration
}

func NewTokenBucket(backend cache.Backend, capacity int, refillPerSecond float64, ttl time.Duration) *TokenBucket {
	return &TokenBucket{backend: backend, capacity: capacity, refillRate: refillPerSecond, ttl: ttl}
}

type tokenBucketState struct {
	Tokens        float64 `json:"tokens"`
	LastRefillUTC int64   `json:"lastRefillMillis"`
}

func (tb *TokenBucket) ProcessRequest(ctx context.Context, key string, cost int, now time.Time) (Decision, error) {
	state, ok, err := loadState[tokenBucketState](ctx, tb.backend, "tokenbucket", key)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		state = tokenBucketState{Tokens: float64(tb.capacity), LastRefillUTC: now.UnixMilli()}
	} else {
		elapsed := now.Sub(time.UnixMilli(state.LastRefillUTC)).Seconds()
		if elapsed > 0 {
			state.Tokens += elapsed * tb.refillRate
			if state.Tokens > float64(tb.capacity) {
				state.Tokens = float64(tb.capacity)
			}
			state.LastRefillUTC = now.UnixMilli()
		}
	}

	if cost > tb.capacity {
		return Decision{Allowed: false, Remaining: clampRemaining(int(state.Tokens)), RetryAfter: Infinite}, nil
	}

	if state.Tokens >= float64(cost) {
		state.Tokens -= float64(cost)
		if err := saveState(ctx, tb.backend, "tokenbucket", key, state, tb.ttl); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Remaining: int(state.Tokens)}, nil
	}

	deficit := float64(cost) - state.Tokens
	retryAfter := time.Duration(deficit/tb.refillRate*float64(time.Second)) + time.Millisecond
	if err := saveState(ctx, tb.backend, "tokenbucket", key, state, tb.ttl); err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: false, Remaining: clampRemaining(int(state.Tokens)), RetryAfter: retryAfter}, nil
}

func (tb *TokenBucket) Reset(ctx context.Context, key string) error {
	return resetState(ctx, tb.backend, "tokenbucket", key)
}
