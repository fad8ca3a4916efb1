package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Reloader swaps in a freshly loaded dataset
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloadDatasetJob re-runs the dataset loader. A failed reload leaves the
// current chart session in place.
type ReloadDatasetJob struct {
	reloader Reloader
	timeout  time.Duration
	log      zerolog.Logger
}

// NewReloadDatasetJob creates a new ReloadDatasetJob. A zero timeout means no limit.
func NewReloadDatasetJob(reloader Reloader, timeout time.Duration) *ReloadDatasetJob {
	return &ReloadDatasetJob{
		reloader: reloader,
		timeout:  timeout,
		log:      zerolog.Nop(),
	}
}

// SetLogger sets the logger for the job
func (j *ReloadDatasetJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *ReloadDatasetJob) Name() string {
	return "reload_dataset"
}

// Run executes the reload
func (j *ReloadDatasetJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	if err := j.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("dataset reload failed: %w", err)
	}

	j.log.Info().Msg("Dataset reloaded")
	return nil
}
