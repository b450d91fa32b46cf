package model

import "time"

// Comment is one entry of a flattened comment thread; replies carry ParentID
type Comment struct {
	ID          int64     `json:"id"`
	AuthorLabel string    `json:"author_label"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	LikesCount  int       `json:"likes_count"`
	ParentID    *int64    `json:"parent_id,omitempty"`
}
