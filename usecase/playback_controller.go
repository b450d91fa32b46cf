package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vidwatch/domain/apperror"
	"vidwatch/domain/model"
	"vidwatch/domain/repository"
	"vidwatch/infrastructure/logger"
	"vidwatch/infrastructure/metrics"
)

// ControllerDeps are the collaborators shared by every session
type ControllerDeps struct {
	Credentials ICredentialClient
	NewPlayer   repository.PlayerFactory
	Progress    repository.IProgressAPI
	History     repository.IWatchHistory // optional
	Broadcast   Broadcaster              // optional
	Reporter    ReporterConfig
}

// PlaybackController drives the lifecycle of one video session:
// Idle -> Loading -> Ready -> Playing <-> Paused -> Ended, with Error reachable
// from anywhere. It owns the session's only player and progress reporter.
//
// Lock order is controller, then reporter, then player. Player commands are
// issued without the controller lock because players call back synchronously.
type PlaybackController struct {
	deps    ControllerDeps
	videoID int64

	mu         sync.Mutex
	state      model.PlaybackState
	errReason  string
	session    *model.VideoSession
	player     repository.IPlayer
	reporter   *ProgressReporter
	resumeFrom int
	disposed   bool
	loadSeq    uint64
	onMetadata MetadataHook
}

func NewPlaybackController(videoID int64, deps ControllerDeps) *PlaybackController {
	deps.Reporter = deps.Reporter.withDefaults()
	return &PlaybackController{deps: deps, videoID: videoID, state: model.PlaybackIdle}
}

func (c *PlaybackController) VideoID() int64 {
	return c.videoID
}

// OnMetadata registers fn to receive the metadata of every load of this
// session before its player is built
func (c *PlaybackController) OnMetadata(fn MetadataHook) {
	c.mu.Lock()
	c.onMetadata = fn
	c.mu.Unlock()
}

// metadataHook wraps the registered hook so it is skipped once load seq is stale
func (c *PlaybackController) metadataHook(seq uint64) MetadataHook {
	return func(meta model.VideoMetadata) {
		c.mu.Lock()
		fn := c.onMetadata
		stale := c.disposed || seq != c.loadSeq
		c.mu.Unlock()
		if fn != nil && !stale {
			fn(meta)
		}
	}
}

// Load acquires a credential and builds the player. On failure the controller
// moves to Error and the credential error is returned unchanged.
func (c *PlaybackController) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return apperror.ErrDisposed
	}
	if !model.CanTransition(c.state, model.PlaybackLoading) {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: load from %s", apperror.ErrInvalidTransition, state)
	}
	c.loadSeq++
	seq := c.loadSeq
	c.transitionLocked(model.PlaybackLoading, "")
	c.mu.Unlock()

	session, err := c.deps.Credentials.Acquire(ctx, c.videoID, c.metadataHook(seq))
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.disposed || seq != c.loadSeq {
			return apperror.ErrDisposed
		}
		c.transitionLocked(model.PlaybackError, apperror.Message(err))
		return err
	}

	c.mu.Lock()
	if c.disposed || seq != c.loadSeq {
		session.Invalidate()
		c.mu.Unlock()
		return apperror.ErrDisposed
	}
	c.session = session
	reporter := NewProgressReporter(c.deps.Progress, c.deps.History, c.videoID, session.Metadata.DurationSeconds, c.deps.Reporter)
	c.reporter = reporter
	source := repository.PlayerSource{
		URL:      session.CredentialURL,
		Duration: time.Duration(session.Metadata.DurationSeconds) * time.Second,
	}
	c.mu.Unlock()

	resume := c.resumePosition(ctx, session.Metadata.DurationSeconds)

	player, err := c.deps.NewPlayer(ctx, source, c)
	if err != nil {
		if !errors.Is(err, apperror.ErrPlaybackFault) {
			err = fmt.Errorf("%w: %v", apperror.ErrPlaybackFault, err)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.disposed || seq != c.loadSeq {
			return apperror.ErrDisposed
		}
		c.transitionLocked(model.PlaybackError, apperror.Message(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || seq != c.loadSeq {
		player.Dispose()
		return apperror.ErrDisposed
	}
	c.player = player
	reporter.SetPositionSource(player.Position)
	if c.state != model.PlaybackLoading {
		// the player failed before it was installed
		return fmt.Errorf("%w: %s", apperror.ErrPlaybackFault, c.errReason)
	}
	if resume > 0 {
		if err := player.Seek(time.Duration(resume) * time.Second); err != nil {
			logger.GetLogger().WithField("video_id", c.videoID).WithField("error", err).Warn("Resume seek failed")
		} else {
			c.resumeFrom = resume
		}
	}
	c.transitionLocked(model.PlaybackReady, "")
	return nil
}

// resumePosition returns the journaled position to resume from, or 0
func (c *PlaybackController) resumePosition(ctx context.Context, durationSeconds int) int {
	if c.deps.History == nil {
		return 0
	}
	last, err := c.deps.History.Get(ctx, c.videoID)
	if err != nil {
		logger.GetLogger().WithField("video_id", c.videoID).WithField("error", err).Warn("Watch history lookup failed")
		return 0
	}
	if last == nil || last.Completed || last.WatchTimeSeconds <= 0 {
		return 0
	}
	if model.IsCompleted(durationSeconds, last.WatchTimeSeconds, c.deps.Reporter.CompletionThreshold) {
		return 0
	}
	return last.WatchTimeSeconds
}

// Retry reloads a session that ended in Error with a fresh credential and progress
func (c *PlaybackController) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return apperror.ErrDisposed
	}
	if c.state != model.PlaybackError {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: retry from %s", apperror.ErrInvalidTransition, state)
	}
	player, reporter := c.player, c.reporter
	c.player, c.reporter = nil, nil
	if c.session != nil {
		c.session.Invalidate()
	}
	c.resumeFrom = 0
	c.mu.Unlock()

	if reporter != nil {
		reporter.Dispose()
	}
	if player != nil {
		player.Dispose()
	}
	return c.Load(ctx)
}

func (c *PlaybackController) Play() error {
	player, err := c.playerFor("play", model.PlaybackReady, model.PlaybackPaused)
	if err != nil || player == nil {
		return err
	}
	return player.Play()
}

func (c *PlaybackController) Pause() error {
	player, err := c.playerFor("pause", model.PlaybackPlaying)
	if err != nil || player == nil {
		return err
	}
	return player.Pause()
}

// Seek moves the playhead to seconds
func (c *PlaybackController) Seek(seconds int) error {
	player, err := c.playerFor("seek", model.PlaybackReady, model.PlaybackPlaying, model.PlaybackPaused)
	if err != nil {
		return err
	}
	if player == nil {
		return fmt.Errorf("%w: seek without player", apperror.ErrInvalidTransition)
	}
	return player.Seek(time.Duration(seconds) * time.Second)
}

// playerFor returns the player when the current state allows the command.
// A play while already playing (or pause while paused) is a no-op.
func (c *PlaybackController) playerFor(cmd string, allowed ...model.PlaybackState) (repository.IPlayer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, apperror.ErrDisposed
	}
	for _, s := range allowed {
		if c.state == s && c.player != nil {
			return c.player, nil
		}
	}
	if (cmd == "play" && c.state == model.PlaybackPlaying) || (cmd == "pause" && c.state == model.PlaybackPaused) {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s from %s", apperror.ErrInvalidTransition, cmd, c.state)
}

// Dispose tears the session down: the reporter is stopped before this returns,
// the player is released and the credential dropped. Idempotent.
func (c *PlaybackController) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	player, reporter := c.player, c.reporter
	c.player = nil
	if c.session != nil {
		c.session.Invalidate()
	}
	c.transitionLocked(model.PlaybackIdle, "")
	c.mu.Unlock()

	if reporter != nil {
		reporter.Dispose()
	}
	if player != nil {
		player.Dispose()
	}
}

// Disposed reports whether Dispose has been called
func (c *PlaybackController) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Wait blocks until progress reports already dispatched have finished
func (c *PlaybackController) Wait() {
	c.mu.Lock()
	reporter := c.reporter
	c.mu.Unlock()
	if reporter != nil {
		reporter.Wait()
	}
}

func (c *PlaybackController) State() model.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *PlaybackController) Snapshot() model.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *PlaybackController) snapshotLocked() model.SessionSnapshot {
	snap := model.SessionSnapshot{
		VideoID:           c.videoID,
		State:             c.state,
		ErrorReason:       c.errReason,
		Progress:          model.WatchProgress{VideoID: c.videoID},
		ResumeFromSeconds: c.resumeFrom,
	}
	if c.session != nil {
		snap.SessionID = c.session.SessionID
		snap.Metadata = c.session.Metadata
	}
	if c.reporter != nil {
		snap.Progress = c.reporter.Progress()
	}
	return snap
}

// OnPlaying implements repository.PlayerListener
func (c *PlaybackController) OnPlaying() {
	c.mu.Lock()
	if c.disposed || !model.CanTransition(c.state, model.PlaybackPlaying) {
		c.mu.Unlock()
		return
	}
	c.transitionLocked(model.PlaybackPlaying, "")
	reporter := c.reporter
	c.mu.Unlock()

	if reporter != nil {
		reporter.Start()
	}
}

func (c *PlaybackController) OnPaused() {
	c.mu.Lock()
	if c.disposed || !model.CanTransition(c.state, model.PlaybackPaused) {
		c.mu.Unlock()
		return
	}
	c.transitionLocked(model.PlaybackPaused, "")
	reporter := c.reporter
	c.mu.Unlock()

	if reporter != nil {
		reporter.Finalize(false)
	}
}

func (c *PlaybackController) OnEnded() {
	c.mu.Lock()
	if c.disposed || !model.CanTransition(c.state, model.PlaybackEnded) {
		c.mu.Unlock()
		return
	}
	c.transitionLocked(model.PlaybackEnded, "")
	reporter := c.reporter
	c.mu.Unlock()

	if reporter != nil {
		reporter.Finalize(true)
	}
}

// OnError moves to Error with reason; progress is stopped and reset
func (c *PlaybackController) OnError(reason string) {
	c.mu.Lock()
	if c.disposed || c.state == model.PlaybackIdle {
		c.mu.Unlock()
		return
	}
	if reason == "" {
		reason = apperror.ErrPlaybackFault.Error()
	}
	c.transitionLocked(model.PlaybackError, reason)
	reporter := c.reporter
	c.mu.Unlock()

	if reporter != nil {
		reporter.Stop()
		reporter.Reset()
	}
}

func (c *PlaybackController) transitionLocked(to model.PlaybackState, reason string) {
	from := c.state
	c.state = to
	c.errReason = reason
	metrics.RecordTransition(string(to))

	entry := logger.GetLogger().WithField("video_id", c.videoID).WithField("from", from).WithField("to", to)
	if reason != "" {
		entry.WithField("reason", reason).Warn("Playback entered error state")
	} else {
		entry.Debug("Playback transition")
	}

	snap := c.snapshotLocked()
	evt := model.ViewerEvent{Type: model.EventPlayback, VideoID: c.videoID, Session: &snap}
	if reason != "" {
		evt.Error = &reason
	}
	c.deps.Broadcast.emit(evt)
}
