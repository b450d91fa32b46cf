package usecase

import (
	"context"
	"sync"

	"vidwatch/domain/apperror"
	"vidwatch/domain/dto"
	"vidwatch/domain/model"
	"vidwatch/domain/repository"
	"vidwatch/infrastructure/logger"
	"vidwatch/infrastructure/metrics"
)

// IEngagementStore holds the viewer's like/dislike state per video
type IEngagementStore interface {
	Load(ctx context.Context, videoID int64, likes, dislikes int) (model.EngagementState, error)
	Get(videoID int64) (model.EngagementState, bool)
	ToggleLike(ctx context.Context, videoID int64) (model.EngagementState, error)
	ToggleDislike(ctx context.Context, videoID int64) (model.EngagementState, error)
}

type engagementStore struct {
	api       repository.IEngagementAPI
	cache     repository.IEngagementCache
	auth      repository.IAuthenticator
	broadcast Broadcaster
	slots     *keyedSlots

	mu     sync.RWMutex
	states map[int64]model.EngagementState
}

// NewEngagementStore builds the store. cache and broadcast may be nil.
func NewEngagementStore(api repository.IEngagementAPI, cache repository.IEngagementCache, auth repository.IAuthenticator, broadcast Broadcaster) IEngagementStore {
	return &engagementStore{
		api:       api,
		cache:     cache,
		auth:      auth,
		broadcast: broadcast,
		slots:     newKeyedSlots(),
		states:    make(map[int64]model.EngagementState),
	}
}

// Load seeds the counters from video metadata. The viewer's own status comes
// from the cache when present, otherwise the status already held is kept.
func (s *engagementStore) Load(ctx context.Context, videoID int64, likes, dislikes int) (model.EngagementState, error) {
	release, err := s.slots.acquire(ctx, videoID)
	if err != nil {
		state, _ := s.Get(videoID)
		return state, err
	}
	defer release()

	known, _ := s.Get(videoID)
	state := model.EngagementState{LikeStatus: known.LikeStatus, LikesCount: likes, DislikesCount: dislikes}
	if s.cache != nil {
		cached, err := s.cache.GetEngagement(ctx, videoID)
		if err != nil {
			logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Engagement cache read failed")
		} else if cached != nil && cached.LikeStatus != "" {
			state.LikeStatus = cached.LikeStatus
		}
	}

	s.set(videoID, state)
	s.emit(videoID, state, nil)
	return state, nil
}

func (s *engagementStore) Get(videoID int64) (model.EngagementState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[videoID]
	if !ok {
		return model.EngagementState{LikeStatus: model.LikeNone}, false
	}
	return state, true
}

func (s *engagementStore) ToggleLike(ctx context.Context, videoID int64) (model.EngagementState, error) {
	return s.toggle(ctx, videoID, model.LikeLiked)
}

func (s *engagementStore) ToggleDislike(ctx context.Context, videoID int64) (model.EngagementState, error) {
	return s.toggle(ctx, videoID, model.LikeDisliked)
}

// toggle applies the change optimistically, sends it, and restores the
// pre-action snapshot if the server rejects it. Mutations of one video run
// one at a time.
func (s *engagementStore) toggle(ctx context.Context, videoID int64, target model.LikeStatus) (model.EngagementState, error) {
	kind := target.LikeType()
	if s.auth != nil && !s.auth.Authenticated() {
		state, _ := s.Get(videoID)
		return state, apperror.ErrUnauthenticated
	}

	release, err := s.slots.acquire(ctx, videoID)
	if err != nil {
		state, _ := s.Get(videoID)
		return state, err
	}
	defer release()

	snapshot, _ := s.Get(videoID)
	optimistic := model.ApplyToggle(snapshot, target)
	s.set(videoID, optimistic)
	s.emit(videoID, optimistic, nil)

	resp, err := s.api.ToggleLike(ctx, dto.LikeRequest{Video: videoID, LikeType: kind})
	if err != nil {
		s.set(videoID, snapshot)
		s.emit(videoID, snapshot, err)
		metrics.RecordEngagement(kind, metrics.ResultRolledBack)
		logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Engagement toggle rolled back")
		return snapshot, err
	}

	final := reconcile(optimistic, resp)
	s.set(videoID, final)
	if final != optimistic {
		s.emit(videoID, final, nil)
	}
	metrics.RecordEngagement(kind, metrics.ResultSuccess)

	if s.cache != nil {
		if err := s.cache.SaveEngagement(ctx, videoID, final); err != nil {
			logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Engagement cache write failed")
		}
	}
	return final, nil
}

// reconcile adopts whatever authoritative values the server returned
func reconcile(state model.EngagementState, resp *dto.LikeResponse) model.EngagementState {
	if resp == nil {
		return state
	}
	if resp.LikesCount != nil {
		state.LikesCount = *resp.LikesCount
	}
	if resp.DislikesCount != nil {
		state.DislikesCount = *resp.DislikesCount
	}
	if resp.LikeType != nil {
		switch *resp.LikeType {
		case "like":
			state.LikeStatus = model.LikeLiked
		case "dislike":
			state.LikeStatus = model.LikeDisliked
		case "":
			state.LikeStatus = model.LikeNone
		}
	}
	return state
}

func (s *engagementStore) set(videoID int64, state model.EngagementState) {
	s.mu.Lock()
	s.states[videoID] = state
	s.mu.Unlock()
}

func (s *engagementStore) emit(videoID int64, state model.EngagementState, err error) {
	s.broadcast.emit(model.ViewerEvent{
		Type:       model.EventEngagement,
		VideoID:    videoID,
		Engagement: &state,
		Error:      errorText(err),
	})
}
