package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetafolio/thetafolio/internal/cache"
	"github.com/thetafolio/thetafolio/internal/modules/market_hours"
)

func TestCacheSweepJob_RemovesOnlyExpired(t *testing.T) {
	store, err := cache.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	// A price entry goes stale in minutes, an instrument entry lasts a week
	require.NoError(t, store.Put(cache.Key("latest_price", "AAPL"), 187.5))
	require.NoError(t, store.Put(cache.Key("instrument", "http://x/i/1/"), "AAPL"))

	hours := market_hours.NewService(market_hours.DefaultSession("America/New_York"))
	policy := cache.NewPolicy(cache.DefaultTTLConfig(), hours)
	job := NewCacheSweepJob(store, policy, zerolog.Nop())

	assert.Equal(t, "cache_sweep", job.Name())
	require.NoError(t, job.Run())

	// Fresh entries survive an immediate sweep
	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	// An hour from now the price entry is expired, the instrument is not
	future := time.Now().Add(time.Hour)
	removed := store.SweepExpired(future, func(key string) time.Duration {
		return policy.TTLForKey(future, key)
	})
	assert.Equal(t, 1, removed)

	keys, err = store.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, cache.Key("instrument", "http://x/i/1/"), keys[0])
}
