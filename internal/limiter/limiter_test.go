package limiter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/costgate/costgate/internal/limiter"
)

func TestSerializer_SameKeyNeverOverlaps(t *testing.T) {
	s := limiter.New()
	var inFlight int32
	var maxObserved int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Run(context.Background(), "alice", func(ctx context.Context) (any, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					cur := atomic.LoadInt32(&maxObserved)
					if n <= cur || atomic.CompareAndSwapInt32(&maxObserved, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil, nil
			})
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxObserved)
}

func TestSerializer_DifferentKeysRunConcurrently(t *testing.T) {
	s := limiter.New()
	var wg sync.WaitGroup
	start := make(chan struct{})
	var concurrentlyRunning int32
	var maxObserved int32

	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			<-start
			_, _ = s.Run(context.Background(), key, func(ctx context.Context) (any, error) {
				n := atomic.AddInt32(&concurrentlyRunning, 1)
				for {
					cur := atomic.LoadInt32(&maxObserved)
					if n <= cur || atomic.CompareAndSwapInt32(&maxObserved, cur, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&concurrentlyRunning, -1)
				return nil, nil
			})
		}(key)
	}
	close(start)
	wg.Wait()

	require.Greater(t, maxObserved, int32(1))
}

func TestSerializer_PropagatesResultAndError(t *testing.T) {
	s := limiter.New()
	v, err := s.Run(context.Background(), "k", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestSerializer_CanceledWaiterFreesItsSlotWithoutRunningWork(t *testing.T) {
	s := limiter.New()
	holding := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Run(context.Background(), "bob", func(ctx context.Context) (any, error) {
			close(holding)
			<-release
			return nil, nil
		})
	}()
	<-holding

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	_, err := s.Run(ctx, "bob", func(ctx context.Context) (any, error) {
		atomic.AddInt32(&ran, 1)
		return nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(0), ran)

	close(release)
	wg.Wait()

	// the canceled waiter's slot must have been freed immediately, not left
	// occupying the queue until the holder finished.
	v, err := s.Run(context.Background(), "bob", func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}
