package ratelimit

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/costgate/costgate/internal/cache"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

func stateKey(prefix, key string) string {
	return prefix + ":" + key
}

// loadState fetches and decodes key's state from backend. ok is false when
// no state has been stored yet (the caller should start from zero-value
// state); a non-nil error means the backend or the stored blob is not
// trustworthy, and the caller must fail closed rather than guess.
func loadState[T any](ctx context.Context, backend cache.Backend, prefix, key string) (state T, ok bool, err error) {
	raw, found, err := backend.Get(ctx, stateKey(prefix, key))
	if err != nil {
		return state, false, fmt.Errorf("ratelimit: load state for %s: %w", key, err)
	}
	if !found {
		return state, false, nil
	}
	if err := jsonCodec.UnmarshalFromString(raw, &state); err != nil {
		return state, false, fmt.Errorf("ratelimit: decode state for %s: %w", key, err)
	}
	return state, true, nil
}

func saveState(ctx context.Context, backend cache.Backend, prefix, key string, state any, ttl time.Duration) error {
	raw, err := jsonCodec.MarshalToString(state)
	if err != nil {
		return fmt.Errorf("ratelimit: encode state for %s: %w", key, err)
	}
	if err := backend.SetWithExpiry(ctx, stateKey(prefix, key), raw, ttl); err != nil {
		return fmt.Errorf("ratelimit: save state for %s: %w", key, err)
	}
	return nil
}

// resetState makes the key's next load observe no prior state, by writing a
// value that expires immediately. The cache.Backend contract has no delete
// operation, only get/setWithExpiry/flushAll, so an already-expired write is
// the only way to clear a single key without flushing the whole backend.
func resetState(ctx context.Context, backend cache.Backend, prefix, key string) error {
	return backend.SetWithExpiry(ctx, stateKey(prefix, key), "", time.Nanosecond)
}
