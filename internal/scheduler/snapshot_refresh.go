package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/internal/modules/portfolio"
)

// SnapshotProvider is the slice of the portfolio service this job uses
type SnapshotProvider interface {
	AccountNames() []string
	GetSnapshot(ctx context.Context, account string, force bool) (*portfolio.Snapshot, error)
}

// SnapshotRefreshJob rebuilds stale portfolio snapshots for every
// configured account so interactive requests mostly hit warm cache.
// It never forces a rebuild, fresh snapshots are left alone.
type SnapshotRefreshJob struct {
	portfolio SnapshotProvider
	log       zerolog.Logger
}

// NewSnapshotRefreshJob creates the snapshot refresh job
func NewSnapshotRefreshJob(portfolio SnapshotProvider, log zerolog.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		portfolio: portfolio,
		log:       log.With().Str("job", "snapshot_refresh").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotRefreshJob) Name() string {
	return "snapshot_refresh"
}

// Run refreshes every account, collecting failures instead of stopping
// at the first one.
func (j *SnapshotRefreshJob) Run() error {
	ctx := context.Background()

	var failed int
	for _, account := range j.portfolio.AccountNames() {
		if _, err := j.portfolio.GetSnapshot(ctx, account, false); err != nil {
			j.log.Warn().Err(err).Str("account", account).Msg("Snapshot refresh failed")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d account(s) failed to refresh", failed)
	}
	return nil
}
