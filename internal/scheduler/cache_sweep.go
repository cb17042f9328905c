package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/internal/cache"
)

// CacheSweepJob removes cache files that have outlived their TTL so the
// cache directory does not grow without bound.
type CacheSweepJob struct {
	store  *cache.Store
	policy *cache.Policy
	log    zerolog.Logger
}

// NewCacheSweepJob creates the cache sweep job
func NewCacheSweepJob(store *cache.Store, policy *cache.Policy, log zerolog.Logger) *CacheSweepJob {
	return &CacheSweepJob{
		store:  store,
		policy: policy,
		log:    log.With().Str("job", "cache_sweep").Logger(),
	}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string {
	return "cache_sweep"
}

// Run sweeps the store under the per-key TTL policy
func (j *CacheSweepJob) Run() error {
	now := time.Now()
	removed := j.store.SweepExpired(now, func(key string) time.Duration {
		return j.policy.TTLForKey(now, key)
	})
	j.log.Info().Int("removed", removed).Msg("Cache sweep finished")
	return nil
}
