package repository

import (
	"context"
	"time"
)

// IPlayer is an adaptive media player bound to one credential URL
type IPlayer interface {
	Play() error
	Pause() error
	// Seek never calls the listener
	Seek(position time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	// Dispose releases the player. It is idempotent and must not block on listener callbacks.
	Dispose()
}

// PlayerListener receives player lifecycle events
type PlayerListener interface {
	OnPlaying()
	OnPaused()
	OnEnded()
	OnError(reason string)
}

// PlayerSource describes what a player should load
type PlayerSource struct {
	URL      string
	Duration time.Duration
}

// PlayerFactory builds a player for source that reports to listener
type PlayerFactory func(ctx context.Context, source PlayerSource, listener PlayerListener) (IPlayer, error)
