package model

import "time"

// PlaybackState is the lifecycle state of one viewing session
type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackLoading PlaybackState = "loading"
	PlaybackReady   PlaybackState = "ready"
	PlaybackPlaying PlaybackState = "playing"
	PlaybackPaused  PlaybackState = "paused"
	PlaybackEnded   PlaybackState = "ended"
	PlaybackError   PlaybackState = "error"
)

// CanTransition reports whether from -> to is a legal lifecycle move.
// Any state may move to PlaybackError.
func CanTransition(from, to PlaybackState) bool {
	if to == PlaybackError {
		return true
	}
	switch from {
	case PlaybackIdle:
		return to == PlaybackLoading
	case PlaybackLoading:
		return to == PlaybackReady
	case PlaybackReady:
		return to == PlaybackPlaying
	case PlaybackPlaying:
		return to == PlaybackPaused || to == PlaybackEnded
	case PlaybackPaused:
		return to == PlaybackPlaying || to == PlaybackEnded
	case PlaybackError:
		return to == PlaybackLoading
	}
	return false
}

// WatchProgress is the furthest confirmed playback position of a session
type WatchProgress struct {
	VideoID          int64      `json:"video_id"`
	WatchTimeSeconds int        `json:"watch_time_seconds"`
	Completed        bool       `json:"completed"`
	LastReportedAt   *time.Time `json:"last_reported_at,omitempty"`
}

// IsCompleted applies the completion rule: the remaining time is within threshold seconds.
// An unknown (zero) duration never completes by position alone.
func IsCompleted(durationSeconds, watchTimeSeconds, thresholdSeconds int) bool {
	if durationSeconds <= 0 {
		return false
	}
	return durationSeconds-watchTimeSeconds <= thresholdSeconds
}
