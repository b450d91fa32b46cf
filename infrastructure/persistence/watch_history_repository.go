package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vidwatch/domain/model"
	"vidwatch/infrastructure/logger"
)

// EnsureWatchHistorySchema creates the watch_history table if not exists.
// The DDL is valid for both sqlite and postgres.
func EnsureWatchHistorySchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ddl := `CREATE TABLE IF NOT EXISTS watch_history (
        video_id BIGINT PRIMARY KEY,
        watch_time_seconds INTEGER NOT NULL,
        completed BOOLEAN NOT NULL,
        reported_at TIMESTAMP NOT NULL
    )`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create watch_history table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_watch_history_reported_at ON watch_history(reported_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_watch_history_reported_at")
	}
	return nil
}

// WatchHistoryRepository journals the last progress the server acknowledged per video
type WatchHistoryRepository struct {
	db     *sql.DB
	driver string
}

func NewWatchHistoryRepository(db *sql.DB, driver string) *WatchHistoryRepository {
	return &WatchHistoryRepository{db: db, driver: driver}
}

// Record upserts progress. Completion is sticky and watch time never moves backwards.
func (r *WatchHistoryRepository) Record(ctx context.Context, progress model.WatchProgress) error {
	if r.db == nil {
		return nil
	}
	reportedAt := time.Now().UTC()
	if progress.LastReportedAt != nil {
		reportedAt = progress.LastReportedAt.UTC()
	}
	q := `INSERT INTO watch_history (video_id, watch_time_seconds, completed, reported_at)
          VALUES ($1, $2, $3, $4)
          ON CONFLICT (video_id) DO UPDATE SET
            watch_time_seconds = CASE WHEN excluded.watch_time_seconds > watch_history.watch_time_seconds
                THEN excluded.watch_time_seconds ELSE watch_history.watch_time_seconds END,
            completed = (watch_history.completed OR excluded.completed),
            reported_at = excluded.reported_at`
	if _, err := r.db.ExecContext(ctx, rebind(r.driver, q), progress.VideoID, progress.WatchTimeSeconds, progress.Completed, reportedAt); err != nil {
		return fmt.Errorf("record watch history for video %d: %w", progress.VideoID, err)
	}
	return nil
}

// Get returns the journaled progress of videoID, or (nil, nil) if none
func (r *WatchHistoryRepository) Get(ctx context.Context, videoID int64) (*model.WatchProgress, error) {
	if r.db == nil {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, rebind(r.driver, `SELECT video_id, watch_time_seconds, completed, reported_at FROM watch_history WHERE video_id=$1`), videoID)
	var (
		p          model.WatchProgress
		reportedAt time.Time
	)
	if err := row.Scan(&p.VideoID, &p.WatchTimeSeconds, &p.Completed, &reportedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.LastReportedAt = &reportedAt
	return &p, nil
}
