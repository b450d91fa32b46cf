// Package apperror defines the error taxonomy shared by the viewer core.
// Remote failures are classified into sentinels so callers can decide
// between a login prompt, a terminal page error, or a silent drop.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated means no usable viewer credential; the UI prompts for login
	ErrUnauthenticated = errors.New("authentication required")

	// ErrUnauthorized means the viewer may not access the resource
	ErrUnauthorized = errors.New("access denied")

	// ErrNotFound means the video does not exist or is not visible
	ErrNotFound = errors.New("not found")

	// ErrVideoNotReady means the video exists but is not streamable yet
	ErrVideoNotReady = errors.New("video is not ready for streaming")

	// ErrTransient covers network and server failures
	ErrTransient = errors.New("transient network error")

	// ErrBadRequest means the server rejected the request payload
	ErrBadRequest = errors.New("request rejected")

	// ErrMalformedResponse means the server answered with an undocumented shape
	ErrMalformedResponse = errors.New("malformed response")

	// ErrPlaybackFault is reported by the player
	ErrPlaybackFault = errors.New("playback fault")

	// ErrEmptyComment is returned before any request when the comment is blank
	ErrEmptyComment = errors.New("comment content cannot be empty")

	// ErrUnsubscribeUnavailable means the subscription handle is unknown
	ErrUnsubscribeUnavailable = errors.New("unsubscribe unavailable: subscription id unknown")

	// ErrNoActiveSession means a session command arrived with nothing open
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidTransition means the playback state machine refused the move
	ErrInvalidTransition = errors.New("invalid playback transition")

	// ErrDisposed means the session was torn down while the operation ran
	ErrDisposed = errors.New("session disposed")
)

// APIError carries the failed operation, the HTTP status and any server detail
type APIError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Detail)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Err, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// FromStatus classifies an HTTP status returned by a remote service
func FromStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400 && status < 500:
		return ErrBadRequest
	default:
		return ErrTransient
	}
}

// Detail returns the server-supplied detail of err, if any
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// Message renders err for inline display next to the affected control
func Message(err error) string {
	if err == nil {
		return ""
	}
	base := err
	for _, sentinel := range []error{
		ErrUnauthenticated, ErrUnauthorized, ErrNotFound, ErrVideoNotReady, ErrTransient,
		ErrBadRequest, ErrMalformedResponse, ErrPlaybackFault, ErrEmptyComment,
		ErrUnsubscribeUnavailable, ErrNoActiveSession, ErrInvalidTransition, ErrDisposed,
	} {
		if errors.Is(err, sentinel) {
			base = sentinel
			break
		}
	}
	if d := Detail(err); d != "" {
		return fmt.Sprintf("%s: %s", base.Error(), d)
	}
	return base.Error()
}

// HTTPStatus maps the taxonomy to a status for the local API
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoActiveSession):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyComment), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrVideoNotReady), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrUnsubscribeUnavailable), errors.Is(err, ErrDisposed):
		return http.StatusConflict
	case errors.Is(err, ErrTransient), errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
