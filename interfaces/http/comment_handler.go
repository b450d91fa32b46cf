package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"vidwatch/domain/dto"
	"vidwatch/domain/model"
	"vidwatch/usecase"
)

type ICommentHandler interface {
	List(ctx *gin.Context)
	Post(ctx *gin.Context)
	Refresh(ctx *gin.Context)
}

type CommentHandler struct {
	comments usecase.ICommentThreadCache
}

func NewCommentHandler(comments usecase.ICommentThreadCache) ICommentHandler {
	return &CommentHandler{comments: comments}
}

// List answers from the cache and loads the thread on a miss
func (h *CommentHandler) List(ctx *gin.Context) {
	videoID, ok := videoIDParam(ctx)
	if !ok {
		return
	}
	comments, cached := h.comments.Get(videoID)
	if !cached {
		var err error
		if comments, err = h.comments.Load(ctx.Request.Context(), videoID); err != nil {
			abortWithError(ctx, err)
			return
		}
	}
	respondComments(ctx, http.StatusOK, videoID, comments)
}

func (h *CommentHandler) Refresh(ctx *gin.Context) {
	videoID, ok := videoIDParam(ctx)
	if !ok {
		return
	}
	comments, err := h.comments.Load(ctx.Request.Context(), videoID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	respondComments(ctx, http.StatusOK, videoID, comments)
}

func (h *CommentHandler) Post(ctx *gin.Context) {
	videoID, ok := videoIDParam(ctx)
	if !ok {
		return
	}
	var req dto.PostCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, ErrorUnmarshal)
		return
	}
	comments, err := h.comments.Post(ctx.Request.Context(), videoID, req.Content, req.Parent)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	respondComments(ctx, http.StatusCreated, videoID, comments)
}

func respondComments(ctx *gin.Context, status int, videoID int64, comments []model.Comment) {
	if comments == nil {
		comments = []model.Comment{}
	}
	ctx.JSON(status, gin.H{"video_id": videoID, "count": len(comments), "comments": comments})
}
