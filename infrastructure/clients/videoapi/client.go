// Package videoapi is the HTTP client for the video and core REST services.
package videoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
	"vidwatch/domain/apperror"
	"vidwatch/domain/dto"
)

const maxErrorBody = 64 << 10

type authMode int

const (
	authOptional authMode = iota
	authRequired
)

// Client implements the remote repository interfaces over JSON/HTTP
type Client struct {
	videoBaseURL string
	coreBaseURL  string
	httpClient   *http.Client
	tokens       oauth2.TokenSource
}

// NewClient builds a client. tokens may be nil, in which case every call is anonymous.
func NewClient(videoBaseURL, coreBaseURL string, timeout time.Duration, tokens oauth2.TokenSource) *Client {
	return &Client{
		videoBaseURL: strings.TrimRight(videoBaseURL, "/"),
		coreBaseURL:  strings.TrimRight(coreBaseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		tokens:       tokens,
	}
}

func (c *Client) GetVideo(ctx context.Context, videoID int64) (*dto.VideoResponse, error) {
	var out dto.VideoResponse
	url := fmt.Sprintf("%s/api/videos/%d", c.videoBaseURL, videoID)
	if err := c.do(ctx, "get video", http.MethodGet, url, nil, authOptional, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStreamToken(ctx context.Context, videoID int64) (*dto.StreamTokenResponse, error) {
	var out dto.StreamTokenResponse
	url := fmt.Sprintf("%s/api/stream/token/%d", c.videoBaseURL, videoID)
	if err := c.do(ctx, "get stream token", http.MethodGet, url, nil, authOptional, &out); err != nil {
		return nil, err
	}
	if out.HLSURL == "" {
		return nil, &apperror.APIError{Op: "get stream token", Detail: "hls_url missing", Err: apperror.ErrMalformedResponse}
	}
	return &out, nil
}

func (c *Client) ReportProgress(ctx context.Context, req dto.WatchProgressRequest) error {
	return c.do(ctx, "report progress", http.MethodPost, c.videoBaseURL+"/api/stream/progress", req, authRequired, nil)
}

func (c *Client) ToggleLike(ctx context.Context, req dto.LikeRequest) (*dto.LikeResponse, error) {
	var out dto.LikeResponse
	if err := c.do(ctx, "toggle like", http.MethodPost, c.coreBaseURL+"/api/core/likes/", req, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSubscriptions fetches the viewer's subscriptions. The endpoint is not
// paginated: anything other than a JSON array is malformed.
func (c *Client) ListSubscriptions(ctx context.Context) ([]dto.SubscriptionResponse, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list subscriptions", http.MethodGet, c.coreBaseURL+"/api/auth/subscriptions/", nil, authRequired, &raw); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, &apperror.APIError{Op: "list subscriptions", Detail: "expected a subscription list", Err: apperror.ErrMalformedResponse}
	}
	var list []dto.SubscriptionResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &apperror.APIError{Op: "list subscriptions", Detail: err.Error(), Err: apperror.ErrMalformedResponse}
	}
	return list, nil
}

func (c *Client) Subscribe(ctx context.Context, creatorID int64) (*dto.SubscriptionResponse, error) {
	var out dto.SubscriptionResponse
	req := dto.SubscriptionRequest{CreatorID: creatorID}
	if err := c.do(ctx, "subscribe", http.MethodPost, c.coreBaseURL+"/api/auth/subscriptions/", req, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Unsubscribe(ctx context.Context, subscriptionID int64) error {
	url := fmt.Sprintf("%s/api/auth/subscriptions/%d/", c.coreBaseURL, subscriptionID)
	return c.do(ctx, "unsubscribe", http.MethodDelete, url, nil, authRequired, nil)
}

// ListComments fetches one page. A body without a results array is malformed.
func (c *Client) ListComments(ctx context.Context, videoID int64, q dto.CommentListQuery) (*dto.CommentListResponse, error) {
	v, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("encode comment query: %w", err)
	}
	url := fmt.Sprintf("%s/api/core/videos/%d/comments/", c.coreBaseURL, videoID)
	if encoded := v.Encode(); encoded != "" {
		url += "?" + encoded
	}
	var out dto.CommentListResponse
	if err := c.do(ctx, "list comments", http.MethodGet, url, nil, authOptional, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		return nil, &apperror.APIError{Op: "list comments", Detail: "results missing", Err: apperror.ErrMalformedResponse}
	}
	return &out, nil
}

func (c *Client) PostComment(ctx context.Context, videoID int64, req dto.CommentCreateRequest) error {
	url := fmt.Sprintf("%s/api/core/videos/%d/comments/", c.coreBaseURL, videoID)
	return c.do(ctx, "post comment", http.MethodPost, url, req, authRequired, nil)
}

func (c *Client) do(ctx context.Context, op, method, url string, body interface{}, mode authMode, out interface{}) error {
	var token *oauth2.Token
	if c.tokens != nil {
		if t, err := c.tokens.Token(); err == nil {
			token = t
		}
	}
	if token == nil && mode == authRequired {
		return &apperror.APIError{Op: op, Err: apperror.ErrUnauthenticated}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &apperror.APIError{Op: op, Detail: err.Error(), Err: apperror.ErrTransient}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apperror.APIError{
			Op:     op,
			Status: resp.StatusCode,
			Detail: extractDetail(raw),
			Err:    apperror.FromStatus(resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &apperror.APIError{Op: op, Status: resp.StatusCode, Detail: "empty body", Err: apperror.ErrMalformedResponse}
		}
		return &apperror.APIError{Op: op, Status: resp.StatusCode, Detail: err.Error(), Err: apperror.ErrMalformedResponse}
	}
	return nil
}

// extractDetail pulls a human readable message out of a REST error body:
// {"detail": ...}, {"error": ...}, {"message": ...} or a field error map like {"content": ["..."]}.
func extractDetail(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			return list[0]
		}
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	for field, v := range body {
		if field == "non_field_errors" {
			field = ""
		}
		switch val := v.(type) {
		case string:
			return fieldMessage(field, val)
		case []interface{}:
			if len(val) > 0 {
				if s, ok := val[0].(string); ok {
					return fieldMessage(field, s)
				}
			}
		}
	}
	return ""
}

func fieldMessage(field, msg string) string {
	if field == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", field, msg)
}
