package model

// LikeStatus is the viewer's own rating of a video. Only one status is active at a time.
type LikeStatus string

const (
	LikeNone     LikeStatus = "none"
	LikeLiked    LikeStatus = "liked"
	LikeDisliked LikeStatus = "disliked"
)

// LikeType maps a status to the like_type wire value
func (s LikeStatus) LikeType() string {
	if s == LikeDisliked {
		return "dislike"
	}
	return "like"
}

// EngagementState is the viewer's rating plus the displayed counters
type EngagementState struct {
	LikeStatus    LikeStatus `json:"like_status"`
	LikesCount    int        `json:"likes_count"`
	DislikesCount int        `json:"dislikes_count"`
}

// ApplyToggle returns the state after toggling target (LikeLiked or LikeDisliked).
// Toggling the active status clears it; activating one status clears the opposite.
// Counts never go below zero.
func ApplyToggle(s EngagementState, target LikeStatus) EngagementState {
	if s.LikeStatus == "" {
		s.LikeStatus = LikeNone
	}
	if s.LikeStatus == target {
		s.LikeStatus = LikeNone
		s.adjust(target, -1)
		return s
	}
	if s.LikeStatus != LikeNone {
		s.adjust(s.LikeStatus, -1)
	}
	s.LikeStatus = target
	s.adjust(target, 1)
	return s
}

func (s *EngagementState) adjust(status LikeStatus, delta int) {
	switch status {
	case LikeLiked:
		s.LikesCount = clampCount(s.LikesCount + delta)
	case LikeDisliked:
		s.DislikesCount = clampCount(s.DislikesCount + delta)
	}
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// SubscriptionState tracks whether the viewer follows the video's creator.
// SubscriptionID is the server handle required to unsubscribe.
type SubscriptionState struct {
	CreatorID      int64  `json:"creator_id"`
	Subscribed     bool   `json:"subscribed"`
	SubscriptionID *int64 `json:"subscription_id,omitempty"`
}

// CanUnsubscribe reports whether an unsubscription request can be issued
func (s SubscriptionState) CanUnsubscribe() bool {
	return s.Subscribed && s.SubscriptionID != nil
}
