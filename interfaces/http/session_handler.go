package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"vidwatch/domain/dto"
	"vidwatch/infrastructure/logger"
	"vidwatch/usecase"
)

type ISessionHandler interface {
	Open(ctx *gin.Context)
	Get(ctx *gin.Context)
	Close(ctx *gin.Context)
	Play(ctx *gin.Context)
	Pause(ctx *gin.Context)
	Retry(ctx *gin.Context)
	Seek(ctx *gin.Context)
}

type SessionHandler struct {
	viewer usecase.IViewerUsecase
}

func NewSessionHandler(viewer usecase.IViewerUsecase) ISessionHandler {
	return &SessionHandler{viewer: viewer}
}

func (h *SessionHandler) Open(ctx *gin.Context) {
	var req dto.OpenSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Debug(ErrorUnmarshal)
		badRequest(ctx, ErrorUnmarshal)
		return
	}
	if req.VideoID <= 0 {
		badRequest(ctx, ErrorInvalidVideo)
		return
	}
	snap, err := h.viewer.Open(ctx.Request.Context(), req.VideoID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, snap)
}

func (h *SessionHandler) Get(ctx *gin.Context) {
	snap, ok := h.viewer.Active()
	if !ok {
		ctx.Status(http.StatusNoContent)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) Close(ctx *gin.Context) {
	h.viewer.Close()
	ctx.Status(http.StatusNoContent)
}

func (h *SessionHandler) Play(ctx *gin.Context) {
	h.command(ctx, h.viewer.Play)
}

func (h *SessionHandler) Pause(ctx *gin.Context) {
	h.command(ctx, h.viewer.Pause)
}

func (h *SessionHandler) Retry(ctx *gin.Context) {
	h.command(ctx, func() error { return h.viewer.Retry(ctx.Request.Context()) })
}

func (h *SessionHandler) Seek(ctx *gin.Context) {
	var req dto.SeekRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Position < 0 {
		badRequest(ctx, "position must be a non-negative number of seconds")
		return
	}
	h.command(ctx, func() error { return h.viewer.Seek(req.Position) })
}

// command runs cmd and answers with the resulting snapshot
func (h *SessionHandler) command(ctx *gin.Context, cmd func() error) {
	if err := cmd(); err != nil {
		abortWithError(ctx, err)
		return
	}
	snap, _ := h.viewer.Active()
	ctx.JSON(http.StatusOK, snap)
}
