package model

import "time"

// VideoMetadata is the viewer-facing description of a video
type VideoMetadata struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatorID       int64     `json:"creator_id"`
	Visibility      string    `json:"visibility"`
	Status          string    `json:"status"`
	ViewsCount      int64     `json:"views_count"`
	LikesCount      int       `json:"likes_count"`
	DislikesCount   int       `json:"dislikes_count"`
	CommentsCount   int       `json:"comments_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// VideoSession binds one selected video to its short-lived streaming credential.
// At most one session is active at a time; the owning controller clears the
// credential when the session is disposed.
type VideoSession struct {
	SessionID        string        `json:"session_id"`
	VideoID          int64         `json:"video_id"`
	Metadata         VideoMetadata `json:"metadata"`
	CredentialURL    string        `json:"-"`
	CredentialExpiry *time.Time    `json:"credential_expiry,omitempty"`
}

// Invalidate drops the credential so it can no longer be handed to a player
func (s *VideoSession) Invalidate() {
	s.CredentialURL = ""
	s.CredentialExpiry = nil
}

// CredentialExpired reports whether the credential expiry has passed at now
func (s *VideoSession) CredentialExpired(now time.Time) bool {
	if s.CredentialURL == "" {
		return true
	}
	return s.CredentialExpiry != nil && !now.Before(*s.CredentialExpiry)
}

// SessionSnapshot is a read-only copy of the active session state
type SessionSnapshot struct {
	SessionID         string        `json:"session_id"`
	VideoID           int64         `json:"video_id"`
	State             PlaybackState `json:"state"`
	ErrorReason       string        `json:"error_reason,omitempty"`
	Metadata          VideoMetadata `json:"metadata"`
	Progress          WatchProgress `json:"progress"`
	ResumeFromSeconds int           `json:"resume_from_seconds,omitempty"`
}
