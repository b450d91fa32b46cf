package dto

// Res is the error envelope of the local API
type Res struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
}

// OpenSessionRequest selects the video to watch
type OpenSessionRequest struct {
	VideoID int64 `json:"video_id" binding:"required"`
}

// SeekRequest moves the playhead, in seconds
type SeekRequest struct {
	Position int `json:"position"`
}

// SubscriptionToggleRequest names the creator to (un)subscribe
type SubscriptionToggleRequest struct {
	CreatorID int64 `json:"creator_id" binding:"required"`
}

// PostCommentRequest is a new comment or reply
type PostCommentRequest struct {
	Content string `json:"content"`
	Parent  *int64 `json:"parent,omitempty"`
}
