package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/internal/database"
)

// DBMaintenanceJob runs nightly upkeep on the sqlite databases: an
// integrity check followed by a WAL checkpoint to keep the log from
// growing without bound.
type DBMaintenanceJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewDBMaintenanceJob creates the database maintenance job
func NewDBMaintenanceJob(databases map[string]*database.DB, log zerolog.Logger) *DBMaintenanceJob {
	return &DBMaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *DBMaintenanceJob) Name() string {
	return "db_maintenance"
}

// Run checks and checkpoints every registered database. A corrupt
// database fails the job, a failed checkpoint only warns.
func (j *DBMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for name, db := range j.databases {
		if err := db.IntegrityCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Integrity check failed")
			return fmt.Errorf("integrity check failed for %s: %w", name, err)
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
		}
	}

	j.log.Info().Int("databases", len(j.databases)).Msg("Database maintenance finished")
	return nil
}
