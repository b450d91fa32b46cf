package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"vidwatch/domain/apperror"
	"vidwatch/domain/dto"
	"vidwatch/domain/model"
	"vidwatch/domain/repository"
	"vidwatch/infrastructure/logger"
	"vidwatch/infrastructure/metrics"
)

// ReporterConfig tunes progress reporting
type ReporterConfig struct {
	Interval            time.Duration
	CompletionThreshold int // seconds
	RequestTimeout      time.Duration
}

func (c ReporterConfig) withDefaults() ReporterConfig {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.CompletionThreshold <= 0 {
		c.CompletionThreshold = 5
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	return c
}

// ProgressReporter sends watch progress of one session. It owns at most one
// ticker goroutine; Stop and Dispose wait for it to exit, so no tick can fire
// afterwards. Reports already dispatched are allowed to finish, but their
// results are not applied once the reporter is disposed.
type ProgressReporter struct {
	api      repository.IProgressAPI
	history  repository.IWatchHistory
	cfg      ReporterConfig
	duration int

	mu       sync.Mutex
	position func() time.Duration
	progress model.WatchProgress
	cancel   context.CancelFunc
	done     chan struct{}
	disposed bool

	inflight sync.WaitGroup
}

// NewProgressReporter builds a reporter for videoID. history may be nil.
func NewProgressReporter(api repository.IProgressAPI, history repository.IWatchHistory, videoID int64, durationSeconds int, cfg ReporterConfig) *ProgressReporter {
	return &ProgressReporter{
		api:      api,
		history:  history,
		cfg:      cfg.withDefaults(),
		duration: durationSeconds,
		progress: model.WatchProgress{VideoID: videoID},
	}
}

// SetPositionSource binds the reporter to the player's playhead
func (r *ProgressReporter) SetPositionSource(position func() time.Duration) {
	r.mu.Lock()
	r.position = position
	r.mu.Unlock()
}

// Start begins interval reporting. It is a no-op when already running or disposed.
func (r *ProgressReporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed || r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go r.loop(ctx, done)
}

func (r *ProgressReporter) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(false)
		}
	}
}

// Stop cancels interval reporting and waits for the ticker goroutine to exit
func (r *ProgressReporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Finalize stops interval reporting and sends one final report immediately.
// ended reports the full duration as completed.
func (r *ProgressReporter) Finalize(ended bool) {
	r.Stop()
	r.report(ended)
}

// Reset zeroes the accumulated progress
func (r *ProgressReporter) Reset() {
	r.mu.Lock()
	r.progress = model.WatchProgress{VideoID: r.progress.VideoID}
	r.mu.Unlock()
}

// Dispose stops the reporter for good. Idempotent.
func (r *ProgressReporter) Dispose() {
	r.mu.Lock()
	r.disposed = true
	r.mu.Unlock()
	r.Stop()
}

// Wait blocks until dispatched reports have finished
func (r *ProgressReporter) Wait() {
	r.inflight.Wait()
}

func (r *ProgressReporter) Progress() model.WatchProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *ProgressReporter) report(ended bool) {
	r.mu.Lock()
	if r.disposed || r.position == nil {
		r.mu.Unlock()
		return
	}
	watch := int(math.Floor(r.position().Seconds()))
	if watch < r.progress.WatchTimeSeconds {
		watch = r.progress.WatchTimeSeconds
	}
	completed := r.progress.Completed || model.IsCompleted(r.duration, watch, r.cfg.CompletionThreshold)
	if ended {
		if r.duration > 0 {
			watch = r.duration
		}
		completed = true
	}
	r.progress.WatchTimeSeconds = watch
	r.progress.Completed = completed
	req := dto.WatchProgressRequest{VideoID: r.progress.VideoID, WatchTime: watch, Completed: completed}
	r.inflight.Add(1)
	r.mu.Unlock()

	go r.dispatch(req)
}

func (r *ProgressReporter) dispatch(req dto.WatchProgressRequest) {
	defer r.inflight.Done()
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	entry := logger.GetLogger().WithField("video_id", req.VideoID).WithField("watch_time", req.WatchTime)
	if err := r.api.ReportProgress(ctx, req); err != nil {
		metrics.RecordProgressReport(metrics.ResultFailure)
		if errors.Is(err, apperror.ErrUnauthenticated) {
			entry.Debug("Skipping progress report for anonymous viewer")
			return
		}
		entry.WithField("error", err).Warn("Progress report dropped")
		return
	}
	metrics.RecordProgressReport(metrics.ResultSuccess)

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	now := time.Now()
	r.progress.LastReportedAt = &now
	journal := model.WatchProgress{VideoID: req.VideoID, WatchTimeSeconds: req.WatchTime, Completed: req.Completed, LastReportedAt: &now}
	r.mu.Unlock()

	if r.history != nil {
		if err := r.history.Record(ctx, journal); err != nil {
			entry.WithField("error", err).Warn("Watch history write failed")
		}
	}
}
