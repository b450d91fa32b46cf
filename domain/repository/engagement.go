package repository

import (
	"context"

	"vidwatch/domain/dto"
	"vidwatch/domain/model"
)

// IEngagementAPI toggles the viewer's rating of a video
type IEngagementAPI interface {
	ToggleLike(ctx context.Context, req dto.LikeRequest) (*dto.LikeResponse, error)
}

// ISubscriptionAPI manages the viewer's creator subscriptions
type ISubscriptionAPI interface {
	ListSubscriptions(ctx context.Context) ([]dto.SubscriptionResponse, error)
	Subscribe(ctx context.Context, creatorID int64) (*dto.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, subscriptionID int64) error
}

// IEngagementCache keeps engagement and subscription state per video across restarts.
// A miss returns (nil, nil).
type IEngagementCache interface {
	GetEngagement(ctx context.Context, videoID int64) (*model.EngagementState, error)
	SaveEngagement(ctx context.Context, videoID int64, state model.EngagementState) error
	GetSubscription(ctx context.Context, videoID int64) (*model.SubscriptionState, error)
	SaveSubscription(ctx context.Context, videoID int64, state model.SubscriptionState) error
}
