package usecase_test

import (
	"context"
	"net/http"
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

func commentPage(next *string, comments ...dto.CommentResponse) *dto.CommentListResponse {
	return &dto.CommentListResponse{Count: ptr(len(comments)), Next: next, Results: &comments}
}

func TestCommentThreadCache_PostBlankSendsNothing(t *testing.T) {
	api := new(MockCommentAPI)
	cache := usecase.NewCommentThreadCache(api, staticAuth(true), nil, 0)

	_, err := cache.Post(context.Background(), 7, "  ", nil)

	require.ErrorIs(t, err, apperror.ErrEmptyComment)
	api.AssertNotCalled(t, "PostComment", mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "ListComments", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommentThreadCache_PostReloadsThread(t *testing.T) {
	api := new(MockCommentAPI)
	api.On("PostComment", mock.Anything, int64(7), dto.CommentCreateRequest{Video: 7, Content: "great video"}).Return(nil)
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{}).
		Return(commentPage(nil, dto.CommentResponse{ID: 1, UserName: "ana", Content: "great video"}), nil)
	cache := usecase.NewCommentThreadCache(api, staticAuth(true), nil, 0)

	got, err := cache.Post(context.Background(), 7, "great video", nil)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "great video", got[0].Content)
	cached, ok := cache.Get(7)
	require.True(t, ok)
	assert.Equal(t, got, cached)
	api.AssertExpectations(t)
}

func TestCommentThreadCache_PostSucceedsWhenRefreshFails(t *testing.T) {
	api := new(MockCommentAPI)
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{}).
		Return(commentPage(nil, dto.CommentResponse{ID: 1, UserName: "ana", Content: "first"}), nil).Once()
	api.On("PostComment", mock.Anything, int64(7), dto.CommentCreateRequest{Video: 7, Content: "second"}).Return(nil).Once()
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{}).
		Return(nil, &apperror.APIError{Op: "list comments", Status: http.StatusBadGateway, Err: apperror.ErrTransient}).Once()
	cache := usecase.NewCommentThreadCache(api, staticAuth(true), nil, 0)
	_, err := cache.Load(context.Background(), 7)
	require.NoError(t, err)

	got, err := cache.Post(context.Background(), 7, "second", nil)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Content)
	api.AssertExpectations(t)
}

func TestCommentThreadCache_PostRequiresLogin(t *testing.T) {
	api := new(MockCommentAPI)
	cache := usecase.NewCommentThreadCache(api, staticAuth(false), nil, 0)

	_, err := cache.Post(context.Background(), 7, "great video", nil)

	require.ErrorIs(t, err, apperror.ErrUnauthenticated)
	api.AssertNotCalled(t, "PostComment", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommentThreadCache_LoadFlattensAllPages(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	api := new(MockCommentAPI)
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{}).Return(commentPage(
		ptr("http://core/api/core/videos/7/comments/?page=2"),
		dto.CommentResponse{ID: 1, UserName: "ana", Content: "first", CreatedAt: created, Replies: []dto.CommentResponse{
			{ID: 3, UserEmail: "bo@example.com", Content: "reply", Replies: []dto.CommentResponse{
				{ID: 4, Content: "nested"},
			}},
		}},
	), nil)
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{Page: 2}).
		Return(commentPage(ptr(""), dto.CommentResponse{ID: 2, UserName: " ", UserEmail: "cy@example.com", Content: "second", LikesCount: 5}), nil)
	events := &eventLog{}
	cache := usecase.NewCommentThreadCache(api, staticAuth(false), events.Broadcast, 0)

	got, err := cache.Load(context.Background(), 7)

	require.NoError(t, err)
	want := []model.Comment{
		{ID: 1, AuthorLabel: "ana", Content: "first", CreatedAt: created},
		{ID: 3, AuthorLabel: "bo@example.com", Content: "reply", ParentID: ptr(int64(1))},
		{ID: 4, AuthorLabel: "Anonymous", Content: "nested", ParentID: ptr(int64(3))},
		{ID: 2, AuthorLabel: "cy@example.com", Content: "second", LikesCount: 5},
	}
	assert.Equal(t, want, got)
	all := events.Events()
	require.Len(t, all, 1)
	assert.Equal(t, model.EventComments, all[0].Type)
	assert.Equal(t, want, all[0].Comments)
}

func TestCommentThreadCache_PageLimit(t *testing.T) {
	api := new(MockCommentAPI)
	api.On("ListComments", mock.Anything, int64(7), mock.Anything).
		Return(commentPage(ptr("more"), dto.CommentResponse{ID: 1, Content: "again"}), nil)
	cache := usecase.NewCommentThreadCache(api, nil, nil, 3)

	got, err := cache.Load(context.Background(), 7)

	require.NoError(t, err)
	assert.Len(t, got, 3)
	api.AssertNumberOfCalls(t, "ListComments", 3)
}

func TestCommentThreadCache_MalformedResponse(t *testing.T) {
	api := new(MockCommentAPI)
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{}).Return(&dto.CommentListResponse{}, nil)
	cache := usecase.NewCommentThreadCache(api, nil, nil, 0)

	_, err := cache.Load(context.Background(), 7)

	require.ErrorIs(t, err, apperror.ErrMalformedResponse)
	_, ok := cache.Get(7)
	assert.False(t, ok)
}

func TestCommentThreadCache_StaleLoadIsDropped(t *testing.T) {
	api := new(MockCommentAPI)
	entered := make(chan struct{})
	release := make(chan struct{})
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{}).
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(commentPage(nil, dto.CommentResponse{ID: 1, Content: "old"}), nil).Once()
	api.On("ListComments", mock.Anything, int64(7), dto.CommentListQuery{}).
		Return(commentPage(nil, dto.CommentResponse{ID: 2, Content: "new"}), nil).Once()
	cache := usecase.NewCommentThreadCache(api, nil, nil, 0)

	slow := make(chan []model.Comment, 1)
	go func() {
		comments, err := cache.Load(context.Background(), 7)
		assert.NoError(t, err)
		slow <- comments
	}()
	<-entered

	fresh, err := cache.Load(context.Background(), 7)
	require.NoError(t, err)
	close(release)
	stale := <-slow

	assert.Equal(t, "old", stale[0].Content)
	cached, _ := cache.Get(7)
	assert.Equal(t, fresh, cached)
	assert.Equal(t, "new", cached[0].Content)
}
