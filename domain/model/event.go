package model

// Viewer event types pushed to the UI
const (
	EventPlayback     = "playback"
	EventEngagement   = "engagement"
	EventSubscription = "subscription"
	EventComments     = "comments"
)

// ViewerEvent is a state change notification for the local UI
type ViewerEvent struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	VideoID      int64              `json:"video_id"`
	Session      *SessionSnapshot   `json:"session,omitempty"`
	Engagement   *EngagementState   `json:"engagement,omitempty"`
	Subscription *SubscriptionState `json:"subscription,omitempty"`
	Comments     []Comment          `json:"comments,omitempty"`
	Error        *string            `json:"error,omitempty"`
}
