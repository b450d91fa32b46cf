package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vidwatch/domain/apperror"
	"vidwatch/domain/dto"
	"vidwatch/domain/model"
	"vidwatch/domain/repository"
	"vidwatch/infrastructure/logger"
	"vidwatch/infrastructure/metrics"
)

// ICommentThreadCache keeps the comment thread of each video. Every load
// replaces the whole list.
type ICommentThreadCache interface {
	Load(ctx context.Context, videoID int64) ([]model.Comment, error)
	Get(videoID int64) ([]model.Comment, bool)
	Post(ctx context.Context, videoID int64, content string, parentID *int64) ([]model.Comment, error)
}

type commentThreadCache struct {
	api       repository.ICommentAPI
	auth      repository.IAuthenticator
	broadcast Broadcaster
	maxPages  int

	mu      sync.RWMutex
	threads map[int64][]model.Comment
	loads   map[int64]uint64
}

// NewCommentThreadCache builds the cache; maxPages bounds pagination (default 20)
func NewCommentThreadCache(api repository.ICommentAPI, auth repository.IAuthenticator, broadcast Broadcaster, maxPages int) ICommentThreadCache {
	if maxPages <= 0 {
		maxPages = 20
	}
	return &commentThreadCache{
		api:       api,
		auth:      auth,
		broadcast: broadcast,
		maxPages:  maxPages,
		threads:   make(map[int64][]model.Comment),
		loads:     make(map[int64]uint64),
	}
}

// Load fetches every page and replaces the cached thread. If another load of
// the same video started meanwhile, this result is returned but not applied.
func (c *commentThreadCache) Load(ctx context.Context, videoID int64) ([]model.Comment, error) {
	c.mu.Lock()
	c.loads[videoID]++
	gen := c.loads[videoID]
	c.mu.Unlock()

	comments := make([]model.Comment, 0)
	for page := 1; page <= c.maxPages; page++ {
		q := dto.CommentListQuery{}
		if page > 1 {
			q.Page = page
		}
		resp, err := c.api.ListComments(ctx, videoID, q)
		if err != nil {
			metrics.RecordCommentLoad(metrics.ResultFailure)
			logger.GetLogger().WithField("video_id", videoID).WithField("page", page).WithField("error", err).Warn("Comment load failed")
			return nil, fmt.Errorf("load comments page %d: %w", page, err)
		}
		if resp == nil || resp.Results == nil {
			metrics.RecordCommentLoad(metrics.ResultFailure)
			return nil, fmt.Errorf("load comments page %d: %w", page, apperror.ErrMalformedResponse)
		}
		comments = flattenComments(comments, *resp.Results, nil)
		if resp.Next == nil || *resp.Next == "" {
			break
		}
	}

	c.mu.Lock()
	if c.loads[videoID] != gen {
		c.mu.Unlock()
		metrics.RecordCommentLoad(metrics.ResultStale)
		return comments, nil
	}
	c.threads[videoID] = comments
	c.mu.Unlock()

	metrics.RecordCommentLoad(metrics.ResultSuccess)
	c.broadcast.emit(model.ViewerEvent{Type: model.EventComments, VideoID: videoID, Comments: comments})
	return comments, nil
}

func (c *commentThreadCache) Get(videoID int64) ([]model.Comment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	comments, ok := c.threads[videoID]
	return comments, ok
}

// Post sends a comment or reply and reloads the thread on success. Blank
// content is rejected before any request. Once the comment is accepted a failed
// reload only logs and the cached thread is returned.
func (c *commentThreadCache) Post(ctx context.Context, videoID int64, content string, parentID *int64) ([]model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ErrEmptyComment
	}
	if c.auth != nil && !c.auth.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}

	req := dto.CommentCreateRequest{Video: videoID, Parent: parentID, Content: content}
	if err := c.api.PostComment(ctx, videoID, req); err != nil {
		logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Comment post failed")
		return nil, fmt.Errorf("post comment: %w", err)
	}
	comments, err := c.Load(ctx, videoID)
	if err != nil {
		logger.GetLogger().WithField("video_id", videoID).WithField("error", err).Warn("Comment posted but thread refresh failed")
		comments, _ = c.Get(videoID)
	}
	return comments, nil
}

// flattenComments appends the thread depth-first: each comment, then its replies
func flattenComments(out []model.Comment, list []dto.CommentResponse, parentID *int64) []model.Comment {
	for _, cr := range list {
		parent := cr.Parent
		if parent == nil && parentID != nil {
			p := *parentID
			parent = &p
		}
		out = append(out, model.Comment{
			ID:          cr.ID,
			AuthorLabel: authorLabel(cr),
			Content:     cr.Content,
			CreatedAt:   cr.CreatedAt,
			LikesCount:  cr.LikesCount,
			ParentID:    parent,
		})
		id := cr.ID
		out = flattenComments(out, cr.Replies, &id)
	}
	return out
}

func authorLabel(cr dto.CommentResponse) string {
	switch {
	case strings.TrimSpace(cr.UserName) != "":
		return cr.UserName
	case cr.UserEmail != "":
		return cr.UserEmail
	default:
		return "Anonymous"
	}
}
