package dto

import "time"

// LikeRequest is the body of POST /api/core/likes/
type LikeRequest struct {
	Video    int64  `json:"video"`
	LikeType string `json:"like_type"` // like | dislike
}

// LikeResponse is the acknowledgement of a like toggle. The counters are
// optional: when present they are authoritative.
type LikeResponse struct {
	Message       string  `json:"message"`
	LikeType      *string `json:"like_type,omitempty"` // like | dislike | "" when cleared
	LikesCount    *int    `json:"likes_count,omitempty"`
	DislikesCount *int    `json:"dislikes_count,omitempty"`
}

// SubscriptionRequest is the body of POST /api/auth/subscriptions/
type SubscriptionRequest struct {
	CreatorID int64 `json:"creator_id"`
}

// CreatorResponse is the public creator profile nested in a subscription
type CreatorResponse struct {
	ID               int64  `json:"id"`
	DisplayName      string `json:"display_name"`
	ChannelName      string `json:"channel_name"`
	SubscribersCount int64  `json:"subscribers_count"`
}

// SubscriptionResponse is one subscription resource
type SubscriptionResponse struct {
	ID        *int64           `json:"id"`
	Creator   *CreatorResponse `json:"creator"`
	CreatedAt *time.Time       `json:"created_at"`
}
