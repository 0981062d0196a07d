package snapshots

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const jobTimeout = 5 * time.Minute

// DailyRollupJob runs the daily rollup on a schedule.
type DailyRollupJob struct {
	service *RollupService
	log     zerolog.Logger
}

// NewDailyRollupJob creates a new daily rollup job
func NewDailyRollupJob(service *RollupService, log zerolog.Logger) *DailyRollupJob {
	return &DailyRollupJob{
		service: service,
		log:     log.With().Str("job", "daily_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *DailyRollupJob) Name() string { return "daily_snapshot" }

// Run executes the daily rollup
func (j *DailyRollupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, err := j.service.Run(ctx, ModeDaily)
	if err != nil {
		return err
	}
	j.log.Info().
		Int("inserted", summary.SnapshotsInserted).
		Int("skipped", summary.WalletsSkipped).
		Msg("Daily snapshot job completed")
	return nil
}

// IntradayRollupJob runs the intraday rollup on a schedule.
type IntradayRollupJob struct {
	service *RollupService
	log     zerolog.Logger
}

// NewIntradayRollupJob creates a new intraday rollup job
func NewIntradayRollupJob(service *RollupService, log zerolog.Logger) *IntradayRollupJob {
	return &IntradayRollupJob{
		service: service,
		log:     log.With().Str("job", "intraday_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *IntradayRollupJob) Name() string { return "intraday_snapshot" }

// Run executes the intraday rollup
func (j *IntradayRollupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, err := j.service.Run(ctx, ModeIntraday)
	if err != nil {
		return err
	}
	j.log.Info().
		Int("inserted", summary.SnapshotsInserted).
		Int("skipped", summary.WalletsSkipped).
		Msg("Intraday snapshot job completed")
	return nil
}
