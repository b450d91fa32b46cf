package usecase

import (
	"context"
	"sync"
	"time"

	"vidwatch/domain/apperror"
	"vidwatch/domain/model"
	"vidwatch/infrastructure/logger"
)

const sideLoadTimeout = 30 * time.Second

// ControllerFactory builds the controller of a newly selected video
type ControllerFactory func(videoID int64) *PlaybackController

// IViewerUsecase owns the single active-session slot
type IViewerUsecase interface {
	Open(ctx context.Context, videoID int64) (model.SessionSnapshot, error)
	Close()
	Active() (model.SessionSnapshot, bool)
	Play() error
	Pause() error
	Seek(seconds int) error
	Retry(ctx context.Context) error
	Shutdown()
}

type viewerUsecase struct {
	newController ControllerFactory
	engagement    IEngagementStore
	subscriptions ISubscriptionStore
	comments      ICommentThreadCache

	mu     sync.Mutex
	active *PlaybackController

	sideLoads sync.WaitGroup
}

func NewViewerUsecase(newController ControllerFactory, engagement IEngagementStore, subscriptions ISubscriptionStore, comments ICommentThreadCache) IViewerUsecase {
	return &viewerUsecase{
		newController: newController,
		engagement:    engagement,
		subscriptions: subscriptions,
		comments:      comments,
	}
}

// Open disposes the previous session before the new one is installed, then
// loads it. Comments load alongside the credential. Engagement and
// subscription state load as soon as metadata arrives, whether or not a
// player can be built. Only the credential outcome is returned.
func (v *viewerUsecase) Open(ctx context.Context, videoID int64) (model.SessionSnapshot, error) {
	v.mu.Lock()
	if v.active != nil {
		v.active.Dispose()
	}
	ctrl := v.newController(videoID)
	v.active = ctrl
	v.mu.Unlock()

	ctrl.OnMetadata(func(meta model.VideoMetadata) {
		v.goSideLoad(ctrl, "engagement", func(ctx context.Context) error {
			_, err := v.engagement.Load(ctx, videoID, meta.LikesCount, meta.DislikesCount)
			return err
		})
		v.goSideLoad(ctrl, "subscription", func(ctx context.Context) error {
			_, err := v.subscriptions.Load(ctx, videoID, meta.CreatorID)
			return err
		})
	})
	v.goSideLoad(ctrl, "comments", func(ctx context.Context) error {
		_, err := v.comments.Load(ctx, videoID)
		return err
	})

	if err := ctrl.Load(ctx); err != nil {
		logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Session failed to load")
		return ctrl.Snapshot(), err
	}
	return ctrl.Snapshot(), nil
}

// goSideLoad runs a best-effort load detached from the request. It is
// skipped when ctrl is no longer the active session.
func (v *viewerUsecase) goSideLoad(ctrl *PlaybackController, name string, load func(ctx context.Context) error) {
	v.mu.Lock()
	if v.active != ctrl {
		v.mu.Unlock()
		return
	}
	v.sideLoads.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.sideLoads.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideLoadTimeout)
		defer cancel()
		if err := load(ctx); err != nil {
			logger.GetLogger().WithField("video_id", ctrl.VideoID()).WithField("load", name).WithField("error", err).Warn("Side load failed")
			return
		}
		if !v.isActive(ctrl) {
			logger.GetLogger().WithField("video_id", ctrl.VideoID()).WithField("load", name).Debug("Side load finished after session changed")
		}
	}()
}

func (v *viewerUsecase) isActive(ctrl *PlaybackController) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active == ctrl
}

func (v *viewerUsecase) current() (*PlaybackController, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == nil {
		return nil, apperror.ErrNoActiveSession
	}
	return v.active, nil
}

func (v *viewerUsecase) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active != nil {
		v.active.Dispose()
		v.active = nil
	}
}

func (v *viewerUsecase) Active() (model.SessionSnapshot, bool) {
	ctrl, err := v.current()
	if err != nil {
		return model.SessionSnapshot{}, false
	}
	return ctrl.Snapshot(), true
}

func (v *viewerUsecase) Play() error {
	ctrl, err := v.current()
	if err != nil {
		return err
	}
	return ctrl.Play()
}

func (v *viewerUsecase) Pause() error {
	ctrl, err := v.current()
	if err != nil {
		return err
	}
	return ctrl.Pause()
}

func (v *viewerUsecase) Seek(seconds int) error {
	ctrl, err := v.current()
	if err != nil {
		return err
	}
	return ctrl.Seek(seconds)
}

func (v *viewerUsecase) Retry(ctx context.Context) error {
	ctrl, err := v.current()
	if err != nil {
		return err
	}
	return ctrl.Retry(ctx)
}

// Shutdown closes the active session and waits for side loads and
// dispatched progress reports to finish
func (v *viewerUsecase) Shutdown() {
	v.mu.Lock()
	ctrl := v.active
	v.mu.Unlock()
	v.Close()
	v.sideLoads.Wait()
	if ctrl != nil {
		ctrl.Wait()
	}
}
