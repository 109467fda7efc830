// Package limiter implements the Per-Caller Request Serializer (C5): it
// ensures that two requests from the same caller key never evaluate their
// rate-limit decision concurrently, which would let both read the same
// stale state and both be admitted when only one should be.
package limiter

import (
	"context"
	"sync"
)

// Work is the unit of serialized execution: read-modify-write against one
// caller's rate-limit state.
type Work func(ctx context.Context) (any, error)

// Serializer runs Work items one at a time per key, in FIFO submission
// order, while allowing different keys to proceed fully in parallel.
type Serializer struct {
	mu    sync.Mutex
	queue map[string]*callerQueue
}

type callerQueue struct {
	ch      chan struct{} // buffered 1; holding the token is holding the lock
	waiters int           // callers still queued or running against this key
}

func newCallerQueue() *callerQueue {
	cq := &callerQueue{ch: make(chan struct{}, 1)}
	cq.ch <- struct{}{}
	return cq
}

// New constructs an empty Serializer.
func New() *Serializer {
	return &Serializer{queue: make(map[string]*callerQueue)}
}

// Run executes fn exclusively with respect to every other Run call sharing
// key. Callers queue in FIFO order on the key's internal lock. If ctx is
// canceled before the lock is acquired, Run returns ctx.Err() without
// running fn, and the caller's queue slot is freed immediately rather than
// waiting its turn. The queue entry itself is reclaimed once the last
// waiter for a key finishes, so idle keys don't leak memory.
func (s *Serializer) Run(ctx context.Context, key string, fn Work) (any, error) {
	cq := s.acquire(key)
	defer s.release(key, cq)

	select {
	case <-cq.ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { cq.ch <- struct{}{} }()

	return fn(ctx)
}

func (s *Serializer) acquire(key string) *callerQueue {
	s.mu.Lock()
	defer s.mu.Unlock()

	cq, ok := s.queue[key]
	if !ok {
		cq = newCallerQueue()
		s.queue[key] = cq
	}
	cq.waiters++
	return cq
}

func (s *Serializer) release(key string, cq *callerQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cq.waiters--
	if cq.waiters == 0 {
		delete(s.queue, key)
	}
}
