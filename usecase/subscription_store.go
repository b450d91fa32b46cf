package usecase

import (
	"context"
	"fmt"
	"sync"

	"vidwatch/domain/apperror"
	"vidwatch/domain/model"
	"vidwatch/domain/repository"
	"vidwatch/infrastructure/logger"
	"vidwatch/infrastructure/metrics"
)

// ISubscriptionStore tracks whether the viewer follows each video's creator
type ISubscriptionStore interface {
	Load(ctx context.Context, videoID, creatorID int64) (model.SubscriptionState, error)
	Get(videoID int64) (model.SubscriptionState, bool)
	Toggle(ctx context.Context, videoID, creatorID int64) (model.SubscriptionState, error)
	CanUnsubscribe(videoID int64) bool
}

type subscriptionStore struct {
	api       repository.ISubscriptionAPI
	cache     repository.IEngagementCache
	auth      repository.IAuthenticator
	broadcast Broadcaster
	slots     *keyedSlots

	mu     sync.RWMutex
	states map[int64]model.SubscriptionState
}

// NewSubscriptionStore builds the store. cache and broadcast may be nil.
func NewSubscriptionStore(api repository.ISubscriptionAPI, cache repository.IEngagementCache, auth repository.IAuthenticator, broadcast Broadcaster) ISubscriptionStore {
	return &subscriptionStore{
		api:       api,
		cache:     cache,
		auth:      auth,
		broadcast: broadcast,
		slots:     newKeyedSlots(),
		states:    make(map[int64]model.SubscriptionState),
	}
}

// Load resolves the subscription to creatorID from the server. Anonymous
// viewers are never subscribed. When the server is unreachable a cached
// state is used if one exists.
func (s *subscriptionStore) Load(ctx context.Context, videoID, creatorID int64) (model.SubscriptionState, error) {
	state := model.SubscriptionState{CreatorID: creatorID}
	if s.auth != nil && !s.auth.Authenticated() {
		s.set(videoID, state)
		return state, nil
	}

	release, err := s.slots.acquire(ctx, videoID)
	if err != nil {
		current, _ := s.Get(videoID)
		return current, err
	}
	defer release()

	subs, err := s.api.ListSubscriptions(ctx)
	if err != nil {
		if cached := s.cached(ctx, videoID); cached != nil && cached.CreatorID == creatorID {
			state = *cached
		}
		s.set(videoID, state)
		return state, fmt.Errorf("load subscriptions: %w", err)
	}

	for _, sub := range subs {
		if sub.Creator != nil && sub.Creator.ID == creatorID {
			state.Subscribed = true
			state.SubscriptionID = sub.ID
			break
		}
	}
	s.set(videoID, state)
	s.save(ctx, videoID, state)
	s.emit(videoID, state, nil)
	return state, nil
}

func (s *subscriptionStore) Get(videoID int64) (model.SubscriptionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[videoID]
	return state, ok
}

func (s *subscriptionStore) CanUnsubscribe(videoID int64) bool {
	state, _ := s.Get(videoID)
	return state.CanUnsubscribe()
}

// Toggle subscribes or unsubscribes. Neither direction is optimistic: local
// state changes only after the server acknowledges.
func (s *subscriptionStore) Toggle(ctx context.Context, videoID, creatorID int64) (model.SubscriptionState, error) {
	if s.auth != nil && !s.auth.Authenticated() {
		current, _ := s.Get(videoID)
		return current, apperror.ErrUnauthenticated
	}

	release, err := s.slots.acquire(ctx, videoID)
	if err != nil {
		current, _ := s.Get(videoID)
		return current, err
	}
	defer release()

	current, _ := s.Get(videoID)
	if current.CreatorID != creatorID {
		current = model.SubscriptionState{CreatorID: creatorID}
	}

	var next model.SubscriptionState
	kind := "subscribe"
	if current.Subscribed {
		kind = "unsubscribe"
		if !current.CanUnsubscribe() {
			return current, apperror.ErrUnsubscribeUnavailable
		}
		if err := s.api.Unsubscribe(ctx, *current.SubscriptionID); err != nil {
			return s.fail(videoID, current, kind, err)
		}
		next = model.SubscriptionState{CreatorID: creatorID}
	} else {
		resp, err := s.api.Subscribe(ctx, creatorID)
		if err != nil {
			return s.fail(videoID, current, kind, err)
		}
		next = model.SubscriptionState{CreatorID: creatorID, Subscribed: true}
		if resp != nil {
			next.SubscriptionID = resp.ID
		}
		if next.SubscriptionID == nil {
			logger.GetLogger().WithField("video_id", videoID).Warn("Subscription acknowledged without an id; unsubscribe unavailable")
		}
	}

	metrics.RecordEngagement(kind, metrics.ResultSuccess)
	s.set(videoID, next)
	s.save(ctx, videoID, next)
	s.emit(videoID, next, nil)
	return next, nil
}

func (s *subscriptionStore) fail(videoID int64, current model.SubscriptionState, kind string, err error) (model.SubscriptionState, error) {
	metrics.RecordEngagement(kind, metrics.ResultFailure)
	logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Subscription change failed")
	s.emit(videoID, current, err)
	return current, err
}

func (s *subscriptionStore) cached(ctx context.Context, videoID int64) *model.SubscriptionState {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.GetSubscription(ctx, videoID)
	if err != nil {
		logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Subscription cache read failed")
		return nil
	}
	return cached
}

func (s *subscriptionStore) save(ctx context.Context, videoID int64, state model.SubscriptionState) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveSubscription(ctx, videoID, state); err != nil {
		logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Subscription cache write failed")
	}
}

func (s *subscriptionStore) set(videoID int64, state model.SubscriptionState) {
	s.mu.Lock()
	s.states[videoID] = state
	s.mu.Unlock()
}

func (s *subscriptionStore) emit(videoID int64, state model.SubscriptionState, err error) {
	s.broadcast.emit(model.ViewerEvent{
		Type:         model.EventSubscription,
		VideoID:      videoID,
		Subscription: &state,
		Error:        errorText(err),
	})
}
