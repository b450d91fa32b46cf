package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"vidwatch/domain/apperror"
	"vidwatch/domain/dto"
	"vidwatch/domain/model"
	"vidwatch/usecase"
)

type viewerFixture struct {
	viewer     usecase.IViewerUsecase
	videos     *MockVideoAPI
	progress   *MockProgressAPI
	history    *MockWatchHistory
	commentAPI *MockCommentAPI
	subAPI     *MockSubscriptionAPI
	engagement usecase.IEngagementStore
	subs       usecase.ISubscriptionStore
	comments   usecase.ICommentThreadCache
	players    *playerRecorder

	mu          sync.Mutex
	controllers []*usecase.PlaybackController
}

func newViewerFixture() *viewerFixture {
	f := &viewerFixture{
		videos:     new(MockVideoAPI),
		progress:   new(MockProgressAPI),
		history:    new(MockWatchHistory),
		commentAPI: new(MockCommentAPI),
		subAPI:     new(MockSubscriptionAPI),
		players:    &playerRecorder{},
	}
	f.history.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	f.commentAPI.On("ListComments", mock.Anything, mock.Anything, dto.CommentListQuery{}).
		Return(commentPage(nil, dto.CommentResponse{ID: 1, UserName: "ana", Content: "hi"}), nil)
	f.subAPI.On("ListSubscriptions", mock.Anything).
		Return([]dto.SubscriptionResponse{{ID: ptr(int64(31)), Creator: &dto.CreatorResponse{ID: 4}}}, nil)

	f.engagement = usecase.NewEngagementStore(new(MockEngagementAPI), nil, staticAuth(true), nil)
	f.subs = usecase.NewSubscriptionStore(f.subAPI, nil, staticAuth(true), nil)
	f.comments = usecase.NewCommentThreadCache(f.commentAPI, staticAuth(true), nil, 0)

	credentials := usecase.NewCredentialClient(f.videos)
	f.viewer = usecase.NewViewerUsecase(func(videoID int64) *usecase.PlaybackController {
		ctrl := usecase.NewPlaybackController(videoID, usecase.ControllerDeps{
			Credentials: credentials,
			NewPlayer:   f.players.New,
			Progress:    f.progress,
			History:     f.history,
			Reporter:    usecase.ReporterConfig{Interval: time.Hour, CompletionThreshold: 5, RequestTimeout: time.Second},
		})
		f.mu.Lock()
		f.controllers = append(f.controllers, ctrl)
		f.mu.Unlock()
		return ctrl
	}, f.engagement, f.subs, f.comments)
	return f
}

func (f *viewerFixture) controller(i int) *usecase.PlaybackController {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controllers[i]
}

func (f *viewerFixture) expectVideo(videoID int64, likes, dislikes int) {
	f.videos.On("GetVideo", mock.Anything, videoID).Return(&dto.VideoResponse{
		ID: videoID, Title: "Video", Duration: 120, CreatorID: 4, LikesCount: likes, DislikesCount: dislikes,
	}, nil)
	f.videos.On("GetStreamToken", mock.Anything, videoID).
		Return(&dto.StreamTokenResponse{HLSURL: "https://cdn/master.m3u8"}, nil)
}

func TestViewerUsecase_OpenLoadsSideState(t *testing.T) {
	f := newViewerFixture()
	f.expectVideo(7, 10, 2)

	snap, err := f.viewer.Open(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, model.PlaybackReady, snap.State)
	require.Eventually(t, func() bool {
		_, liked := f.engagement.Get(7)
		_, subscribed := f.subs.Get(7)
		_, commented := f.comments.Get(7)
		return liked && subscribed && commented
	}, time.Second, 5*time.Millisecond)

	engagement, _ := f.engagement.Get(7)
	assert.Equal(t, model.EngagementState{LikeStatus: model.LikeNone, LikesCount: 10, DislikesCount: 2}, engagement)
	assert.True(t, f.subs.CanUnsubscribe(7))

	active, ok := f.viewer.Active()
	require.True(t, ok)
	assert.Equal(t, snap.SessionID, active.SessionID)
	f.viewer.Shutdown()
}

func TestViewerUsecase_OpenFailure(t *testing.T) {
	f := newViewerFixture()
	f.videos.On("GetVideo", mock.Anything, int64(7)).
		Return(nil, &apperror.APIError{Op: "get video", Status: http.StatusForbidden, Err: apperror.ErrUnauthorized})
	f.videos.On("GetStreamToken", mock.Anything, int64(7)).Return(&dto.StreamTokenResponse{HLSURL: "u"}, nil).Maybe()

	snap, err := f.viewer.Open(context.Background(), 7)

	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, model.PlaybackError, snap.State)
	active, ok := f.viewer.Active()
	require.True(t, ok)
	assert.Equal(t, model.PlaybackError, active.State)
	f.viewer.Shutdown()
	_, engaged := f.engagement.Get(7)
	assert.False(t, engaged)
}

func TestViewerUsecase_CommandsNeedASession(t *testing.T) {
	f := newViewerFixture()

	require.ErrorIs(t, f.viewer.Play(), apperror.ErrNoActiveSession)
	require.ErrorIs(t, f.viewer.Pause(), apperror.ErrNoActiveSession)
	require.ErrorIs(t, f.viewer.Seek(3), apperror.ErrNoActiveSession)
	require.ErrorIs(t, f.viewer.Retry(context.Background()), apperror.ErrNoActiveSession)
	_, ok := f.viewer.Active()
	assert.False(t, ok)

	f.expectVideo(7, 0, 0)
	_, err := f.viewer.Open(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, f.viewer.Play())

	f.viewer.Close()
	f.viewer.Close()

	require.ErrorIs(t, f.viewer.Play(), apperror.ErrNoActiveSession)
	assert.True(t, f.controller(0).Disposed())
	assert.True(t, f.players.Built()[0].disposed.Load())
	f.viewer.Shutdown()
}

func TestViewerUsecase_NoCrossSessionLeakage(t *testing.T) {
	f := newViewerFixture()
	f.expectVideo(7, 0, 0)
	f.expectVideo(8, 0, 0)
	inFlight := make(chan struct{})
	release := make(chan struct{})
	f.progress.On("ReportProgress", mock.Anything, dto.WatchProgressRequest{VideoID: 7, WatchTime: 118, Completed: true}).
		Run(func(args mock.Arguments) {
			close(inFlight)
			<-release
		}).
		Return(nil)
	f.progress.On("ReportProgress", mock.Anything, mock.Anything).Return(nil)
	f.history.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err := f.viewer.Open(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, f.viewer.Play())
	f.players.Built()[0].SetPosition(118 * time.Second)
	require.NoError(t, f.viewer.Pause())
	<-inFlight

	snap, err := f.viewer.Open(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, f.players.Built(), 2)
	close(release)
	f.controller(0).Wait()

	assert.True(t, f.players.Built()[0].disposed.Load())
	assert.False(t, f.players.Built()[1].disposed.Load())
	assert.Equal(t, int64(8), snap.VideoID)
	assert.Equal(t, model.WatchProgress{VideoID: 8}, snap.Progress)
	assert.Nil(t, f.controller(0).Snapshot().Progress.LastReportedAt)
	f.history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)

	active, ok := f.viewer.Active()
	require.True(t, ok)
	assert.Equal(t, int64(8), active.VideoID)
	f.viewer.Shutdown()
}

func TestViewerUsecase_SideStateLoadsWithoutPlayer(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *viewerFixture)
		want    error
	}{
		{
			name: "player cannot be built",
			prepare: func(f *viewerFixture) {
				f.expectVideo(7, 10, 2)
				f.players.err = errors.New("no playable variant")
			},
			want: apperror.ErrPlaybackFault,
		},
		{
			name: "video still processing",
			prepare: func(f *viewerFixture) {
				f.videos.On("GetVideo", mock.Anything, int64(7)).
					Return(&dto.VideoResponse{ID: 7, Duration: 120, CreatorID: 4, LikesCount: 10, DislikesCount: 2}, nil)
				f.videos.On("GetStreamToken", mock.Anything, int64(7)).
					Return(nil, &apperror.APIError{Op: "get stream token", Status: http.StatusBadRequest, Err: apperror.ErrBadRequest})
			},
			want: apperror.ErrVideoNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newViewerFixture()
			tt.prepare(f)

			snap, err := f.viewer.Open(context.Background(), 7)

			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, model.PlaybackError, snap.State)
			assert.Empty(t, f.players.Built())
			require.Eventually(t, func() bool {
				_, liked := f.engagement.Get(7)
				_, subscribed := f.subs.Get(7)
				return liked && subscribed
			}, time.Second, 5*time.Millisecond)
			engagement, _ := f.engagement.Get(7)
			assert.Equal(t, model.EngagementState{LikeStatus: model.LikeNone, LikesCount: 10, DislikesCount: 2}, engagement)
			assert.True(t, f.subs.CanUnsubscribe(7))
			f.viewer.Shutdown()
		})
	}
}
