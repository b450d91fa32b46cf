package repository

import (
	"context"

	"vidwatch/domain/model"
)

// IWatchHistory is a local journal of the last confirmed progress per video
type IWatchHistory interface {
	// Record upserts the progress of progress.VideoID
	Record(ctx context.Context, progress model.WatchProgress) error
	// Get returns the journaled progress, or (nil, nil) when the video was never reported
	Get(ctx context.Context, videoID int64) (*model.WatchProgress, error)
}
