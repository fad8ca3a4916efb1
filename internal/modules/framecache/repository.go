// Package framecache stores rendered chart frames in SQLite.
package framecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/database"
	"github.com/aristath/ratechart/internal/modules/render"
	"github.com/aristath/ratechart/internal/utils"
)

// Key identifies one rendered frame. A frame is fully determined by the
// dataset version, the chart options and the output geometry.
type Key struct {
	Checksum string
	Variant  string // fingerprint of the chart options
	Width    int
	Height   int
	Format   render.Format
}

// Repository reads and writes frames in the cache database
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a frame repository over a migrated cache database
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "framecache").Logger(),
	}
}

// Get returns the frame stored under key and false when there is none
func (r *Repository) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT data FROM chart_frames
		WHERE checksum = ? AND variant = ? AND width = ? AND height = ? AND format = ?
	`, key.Checksum, key.Variant, key.Width, key.Height, string(key.Format)).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read frame: %w", err)
	}
	return data, true, nil
}

// Put stores data under key, replacing any previous frame
func (r *Repository) Put(ctx context.Context, key Key, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chart_frames (checksum, variant, width, height, format, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key.Checksum, key.Variant, key.Width, key.Height, string(key.Format), data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store frame: %w", err)
	}
	return nil
}

// PurgeExcept deletes every frame rendered from a dataset other than checksum
func (r *Repository) PurgeExcept(ctx context.Context, checksum string) (int64, error) {
	done := utils.MeasureDBQuery("purge_frames_except", r.log)
	res, err := r.db.ExecContext(ctx, `DELETE FROM chart_frames WHERE checksum != ?`, checksum)
	if err != nil {
		return 0, fmt.Errorf("failed to purge frames: %w", err)
	}

	n, _ := res.RowsAffected()
	done(n)
	if n > 0 {
		r.log.Debug().Int64("deleted", n).Str("checksum", checksum).Msg("Purged stale frames")
	}
	return n, nil
}

// PurgeOlderThan deletes frames created before cutoff
func (r *Repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	done := utils.MeasureDBQuery("purge_frames_older_than", r.log)
	res, err := r.db.ExecContext(ctx, `DELETE FROM chart_frames WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge frames: %w", err)
	}
	n, _ := res.RowsAffected()
	done(n)
	return n, nil
}

// Count returns the number of stored frames
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chart_frames`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return n, nil
}
