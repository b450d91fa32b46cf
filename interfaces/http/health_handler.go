package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"vidwatch/domain/repository"
	"vidwatch/usecase"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	viewer usecase.IViewerUsecase
	auth   repository.IAuthenticator
}

func NewHealthHandler(viewer usecase.IViewerUsecase, auth repository.IAuthenticator) IHealthHandler {
	return &HealthHandler{viewer: viewer, auth: auth}
}

// Healthz returns OK for health checks
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	res := gin.H{"status": "ok", "authenticated": h.auth.Authenticated()}
	if snap, ok := h.viewer.Active(); ok {
		res["video_id"] = snap.VideoID
		res["state"] = snap.State
	}
	ctx.JSON(http.StatusOK, res)
}
