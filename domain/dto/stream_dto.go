package dto

import "time"

// VideoResponse is the body of GET /api/videos/{id}
type VideoResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatorID     int64     `json:"creator_id"`
	Duration      int       `json:"duration"`
	Status        string    `json:"status"`
	Visibility    string    `json:"visibility"`
	ViewsCount    int64     `json:"views_count"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// StreamTokenResponse is the body of GET /api/stream/token/{id}
type StreamTokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
	HLSURL    string     `json:"hls_url"`
}

// WatchProgressRequest is the body of POST /api/stream/progress
type WatchProgressRequest struct {
	VideoID   int64 `json:"video_id"`
	WatchTime int   `json:"watch_time"`
	Completed bool  `json:"completed"`
}
