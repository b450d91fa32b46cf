package repository

import (
	"context"

	"vidwatch/domain/dto"
)

// ICommentAPI lists and posts comments of a video
type ICommentAPI interface {
	ListComments(ctx context.Context, videoID int64, query dto.CommentListQuery) (*dto.CommentListResponse, error)
	PostComment(ctx context.Context, videoID int64, req dto.CommentCreateRequest) error
}
