package dto

import "time"

// CommentResponse is a top-level comment with its nested replies
type CommentResponse struct {
	ID         int64             `json:"id"`
	Video      int64             `json:"video"`
	User       int64             `json:"user"`
	UserName   string            `json:"user_name"`
	UserEmail  string            `json:"user_email"`
	Parent     *int64            `json:"parent"`
	Content    string            `json:"content"`
	LikesCount int               `json:"likes_count"`
	CreatedAt  time.Time         `json:"created_at"`
	Replies    []CommentResponse `json:"replies"`
}

// CommentListResponse is the only accepted shape of GET /api/core/videos/{id}/comments/.
// Results is a pointer so a missing field can be told apart from an empty page.
type CommentListResponse struct {
	Count    *int               `json:"count"`
	Next     *string            `json:"next"`
	Previous *string            `json:"previous"`
	Results  *[]CommentResponse `json:"results"`
}

// CommentListQuery is encoded into the comment list query string
type CommentListQuery struct {
	Page int `url:"page,omitempty"`
}

// CommentCreateRequest is the body of POST /api/core/videos/{id}/comments/
type CommentCreateRequest struct {
	Video   int64  `json:"video"`
	Parent  *int64 `json:"parent"`
	Content string `json:"content"`
}
