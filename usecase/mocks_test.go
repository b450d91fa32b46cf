package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
	"vidwatch/domain/dto"
	"vidwatch/domain/model"
	"vidwatch/domain/repository"
)

type MockVideoAPI struct {
	mock.Mock
}

func (m *MockVideoAPI) GetVideo(ctx context.Context, videoID int64) (*dto.VideoResponse, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VideoResponse), args.Error(1)
}

func (m *MockVideoAPI) GetStreamToken(ctx context.Context, videoID int64) (*dto.StreamTokenResponse, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StreamTokenResponse), args.Error(1)
}

// MockProgressAPI records every report it receives
type MockProgressAPI struct {
	mock.Mock
	mu   sync.Mutex
	reqs []dto.WatchProgressRequest
}

func (m *MockProgressAPI) ReportProgress(ctx context.Context, req dto.WatchProgressRequest) error {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockProgressAPI) Requests() []dto.WatchProgressRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dto.WatchProgressRequest(nil), m.reqs...)
}

type MockEngagementAPI struct {
	mock.Mock
}

func (m *MockEngagementAPI) ToggleLike(ctx context.Context, req dto.LikeRequest) (*dto.LikeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LikeResponse), args.Error(1)
}

type MockSubscriptionAPI struct {
	mock.Mock
}

func (m *MockSubscriptionAPI) ListSubscriptions(ctx context.Context) ([]dto.SubscriptionResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.SubscriptionResponse), args.Error(1)
}

func (m *MockSubscriptionAPI) Subscribe(ctx context.Context, creatorID int64) (*dto.SubscriptionResponse, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubscriptionResponse), args.Error(1)
}

func (m *MockSubscriptionAPI) Unsubscribe(ctx context.Context, subscriptionID int64) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

type MockCommentAPI struct {
	mock.Mock
}

func (m *MockCommentAPI) ListComments(ctx context.Context, videoID int64, query dto.CommentListQuery) (*dto.CommentListResponse, error) {
	args := m.Called(ctx, videoID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentListResponse), args.Error(1)
}

func (m *MockCommentAPI) PostComment(ctx context.Context, videoID int64, req dto.CommentCreateRequest) error {
	args := m.Called(ctx, videoID, req)
	return args.Error(0)
}

type MockEngagementCache struct {
	mock.Mock
}

func (m *MockEngagementCache) GetEngagement(ctx context.Context, videoID int64) (*model.EngagementState, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EngagementState), args.Error(1)
}

func (m *MockEngagementCache) SaveEngagement(ctx context.Context, videoID int64, state model.EngagementState) error {
	args := m.Called(ctx, videoID, state)
	return args.Error(0)
}

func (m *MockEngagementCache) GetSubscription(ctx context.Context, videoID int64) (*model.SubscriptionState, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionState), args.Error(1)
}

func (m *MockEngagementCache) SaveSubscription(ctx context.Context, videoID int64, state model.SubscriptionState) error {
	args := m.Called(ctx, videoID, state)
	return args.Error(0)
}

type MockWatchHistory struct {
	mock.Mock
}

func (m *MockWatchHistory) Record(ctx context.Context, progress model.WatchProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *MockWatchHistory) Get(ctx context.Context, videoID int64) (*model.WatchProgress, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WatchProgress), args.Error(1)
}

type staticAuth bool

func (a staticAuth) Authenticated() bool { return bool(a) }

// fakePlayer calls its listener synchronously, like the headless player
type fakePlayer struct {
	mu       sync.Mutex
	url      string
	listener repository.PlayerListener
	position time.Duration
	duration time.Duration
	seeks    []time.Duration
	disposed atomic.Bool
}

func (p *fakePlayer) Play() error {
	p.listener.OnPlaying()
	return nil
}

func (p *fakePlayer) Pause() error {
	p.listener.OnPaused()
	return nil
}

func (p *fakePlayer) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = position
	p.seeks = append(p.seeks, position)
	return nil
}

func (p *fakePlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *fakePlayer) SetPosition(position time.Duration) {
	p.mu.Lock()
	p.position = position
	p.mu.Unlock()
}

func (p *fakePlayer) Seeks() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.seeks...)
}

func (p *fakePlayer) Duration() time.Duration { return p.duration }

func (p *fakePlayer) Dispose() { p.disposed.Store(true) }

// playerRecorder is a repository.PlayerFactory that keeps every player it built
type playerRecorder struct {
	mu      sync.Mutex
	players []*fakePlayer
	err     error
}

func (r *playerRecorder) New(ctx context.Context, source repository.PlayerSource, listener repository.PlayerListener) (repository.IPlayer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p := &fakePlayer{url: source.URL, duration: source.Duration, listener: listener}
	r.players = append(r.players, p)
	return p, nil
}

func (r *playerRecorder) Built() []*fakePlayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakePlayer(nil), r.players...)
}

// eventLog collects broadcast events
type eventLog struct {
	mu     sync.Mutex
	events []model.ViewerEvent
}

func (l *eventLog) Broadcast(evt model.ViewerEvent) {
	l.mu.Lock()
	l.events = append(l.events, evt)
	l.mu.Unlock()
}

func (l *eventLog) Events() []model.ViewerEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.ViewerEvent(nil), l.events...)
}

func ptr[T any](v T) *T { return &v }
