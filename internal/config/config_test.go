package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/costgate/costgate/internal/config"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(``))
	require.NoError(t, err)
	require.Equal(t, config.AlgorithmTokenBucket, cfg.RateLimiter.Algorithm)
	require.Equal(t, int64(86_400_000), cfg.Cache.KeyExpiryMillis)
	require.False(t, cfg.Dark)
	require.False(t, cfg.EnforceBoundedLists)
}

func TestParse_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := config.Parse([]byte(`
rateLimiter:
  algorithm: leakyBucket
`))
	require.Error(t, err)
}

func TestParse_RejectsNegativeDepthLimit(t *testing.T) {
	_, err := config.Parse([]byte(`
depthLimit: -1
`))
	require.Error(t, err)
}

func TestParse_FullDocument(t *testing.T) {
	cfg, err := config.Parse([]byte(`
rateLimiter:
  algorithm: slidingWindowLog
  capacity: 500
  window: 30s
typeWeights:
  mutation: 20
  scalar: 1
cache:
  keyExpiryMillis: 60000
dark: true
enforceBoundedLists: true
depthLimit: 8
`))
	require.NoError(t, err)
	require.Equal(t, config.AlgorithmSlidingWindowLog, cfg.RateLimiter.Algorithm)
	require.Equal(t, 500, cfg.RateLimiter.Capacity)
	require.True(t, cfg.Dark)
	require.True(t, cfg.EnforceBoundedLists)
	require.Equal(t, 8, cfg.DepthLimit)
	require.NotNil(t, cfg.TypeWeights.Mutation)
	require.Equal(t, 20, *cfg.TypeWeights.Mutation)

	window, err := cfg.RateLimiter.WindowDuration()
	require.NoError(t, err)
	require.Equal(t, 30_000_000_000, int(window))
}
