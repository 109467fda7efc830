// Package cache defines the distributed cache backend contract the
// rate-limit algorithms use to persist their per-caller state, plus an
// in-memory reference implementation for running the gateway standalone.
package cache

import (
	"context"
	"time"
)

// Backend is a key/value store with per-key expiry that rate-limit
// algorithm state is serialized into and out of as opaque strings.
type Backend interface {
	// Get returns the stored value for key. found is false if the key is
	// absent or has expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// SetWithExpiry stores value under key with the given time-to-live.
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
	// FlushAll discards every stored key. The rate-limit algorithms' Reset
	// clears a single key and does not call it.
	FlushAll(ctx context.Context) error
}
