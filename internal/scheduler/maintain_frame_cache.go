package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/database"
)

// FramePruner deletes cached frames older than a cutoff
type FramePruner interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintainFrameCacheJob drops old frames and checkpoints the cache database WAL
type MaintainFrameCacheJob struct {
	frames FramePruner
	db     *database.DB
	maxAge time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewMaintainFrameCacheJob creates a new MaintainFrameCacheJob
func NewMaintainFrameCacheJob(frames FramePruner, db *database.DB, maxAge time.Duration) *MaintainFrameCacheJob {
	return &MaintainFrameCacheJob{
		frames: frames,
		db:     db,
		maxAge: maxAge,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
}

// SetLogger sets the logger for the job
func (j *MaintainFrameCacheJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *MaintainFrameCacheJob) Name() string {
	return "maintain_frame_cache"
}

// Run executes the maintenance pass
func (j *MaintainFrameCacheJob) Run() error {
	ctx := context.Background()

	if j.frames != nil && j.maxAge > 0 {
		deleted, err := j.frames.PurgeOlderThan(ctx, j.now().Add(-j.maxAge))
		if err != nil {
			return fmt.Errorf("failed to prune frames: %w", err)
		}
		j.log.Debug().Int64("deleted", deleted).Msg("Pruned old frames")
	}

	if j.db == nil {
		return nil
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, walPages, checkpointed int
	err := j.db.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &walPages, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to checkpoint WAL")
		return nil
	}

	j.log.Debug().
		Str("database", j.db.Name()).
		Int("busy", busy).
		Int("log_pages", walPages).
		Int("checkpointed", checkpointed).
		Msg("WAL checkpoint completed")
	return nil
}
