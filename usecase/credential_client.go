package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"vidwatch/domain/apperror"
	"vidwatch/domain/dto"
	"vidwatch/domain/model"
	"vidwatch/domain/repository"
)

// ICredentialClient acquires a streaming credential plus metadata for one video
type ICredentialClient interface {
	Acquire(ctx context.Context, videoID int64, onMetadata MetadataHook) (*model.VideoSession, error)
}

// MetadataHook receives video metadata as soon as it is fetched, even when the
// stream token later fails. It runs on the fetching goroutine and must not block.
type MetadataHook func(meta model.VideoMetadata)

type credentialClient struct {
	videos repository.IVideoAPI
}

func NewCredentialClient(videos repository.IVideoAPI) ICredentialClient {
	return &credentialClient{videos: videos}
}

// Acquire fetches metadata and the stream token in parallel. It never retries.
// onMetadata may be nil.
func (c *credentialClient) Acquire(ctx context.Context, videoID int64, onMetadata MetadataHook) (*model.VideoSession, error) {
	var (
		video *dto.VideoResponse
		token *dto.StreamTokenResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.videos.GetVideo(gctx, videoID)
		if err != nil {
			return fmt.Errorf("fetch video %d: %w", videoID, classifyCredentialError(err, false))
		}
		video = v
		if onMetadata != nil {
			onMetadata(toMetadata(v))
		}
		return nil
	})
	g.Go(func() error {
		t, err := c.videos.GetStreamToken(gctx, videoID)
		if err != nil {
			return fmt.Errorf("fetch stream token %d: %w", videoID, classifyCredentialError(err, true))
		}
		token = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.VideoSession{
		SessionID: uuid.NewString(),
		VideoID:   videoID,
		Metadata:         toMetadata(video),
		CredentialURL:    token.HLSURL,
		CredentialExpiry: token.ExpiresAt,
	}, nil
}

func toMetadata(video *dto.VideoResponse) model.VideoMetadata {
	return model.VideoMetadata{
		ID:              video.ID,
		Title:           video.Title,
		Description:     video.Description,
		DurationSeconds: video.Duration,
		CreatorID:       video.CreatorID,
		Visibility:      video.Visibility,
		Status:          video.Status,
		ViewsCount:      video.ViewsCount,
		LikesCount:      video.LikesCount,
		DislikesCount:   video.DislikesCount,
		CommentsCount:   video.CommentsCount,
		CreatedAt:       video.CreatedAt,
	}
}

// classifyCredentialError narrows remote failures to NotFound, Unauthorized,
// Unauthenticated, VideoNotReady (400 from the token endpoint) or Transient.
func classifyCredentialError(err error, tokenEndpoint bool) error {
	var target error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, apperror.ErrNotFound),
		errors.Is(err, apperror.ErrUnauthorized),
		errors.Is(err, apperror.ErrUnauthenticated):
		return err
	case tokenEndpoint && errors.Is(err, apperror.ErrBadRequest):
		target = apperror.ErrVideoNotReady
	default:
		if errors.Is(err, apperror.ErrTransient) {
			return err
		}
		target = apperror.ErrTransient
	}

	var apiErr *apperror.APIError
	if errors.As(err, &apiErr) {
		mapped := *apiErr
		mapped.Err = target
		return &mapped
	}
	return fmt.Errorf("%w: %v", target, err)
}
