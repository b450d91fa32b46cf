package repository

import (
	"context"

	"vidwatch/domain/dto"
)

// IVideoAPI fetches video metadata and streaming credentials
type IVideoAPI interface {
	GetVideo(ctx context.Context, videoID int64) (*dto.VideoResponse, error)
	GetStreamToken(ctx context.Context, videoID int64) (*dto.StreamTokenResponse, error)
}

// IProgressAPI records watch progress on the server
type IProgressAPI interface {
	ReportProgress(ctx context.Context, req dto.WatchProgressRequest) error
}

// IAuthenticator answers whether a usable viewer credential is held
type IAuthenticator interface {
	Authenticated() bool
}
