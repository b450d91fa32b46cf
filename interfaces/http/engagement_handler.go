package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"vidwatch/domain/dto"
	"vidwatch/usecase"
)

type IEngagementHandler interface {
	Get(ctx *gin.Context)
	Like(ctx *gin.Context)
	Dislike(ctx *gin.Context)
	ToggleSubscription(ctx *gin.Context)
}

type EngagementHandler struct {
	engagement    usecase.IEngagementStore
	subscriptions usecase.ISubscriptionStore
}

func NewEngagementHandler(engagement usecase.IEngagementStore, subscriptions usecase.ISubscriptionStore) IEngagementHandler {
	return &EngagementHandler{engagement: engagement, subscriptions: subscriptions}
}

func (h *EngagementHandler) Get(ctx *gin.Context) {
	videoID, ok := videoIDParam(ctx)
	if !ok {
		return
	}
	engagement, _ := h.engagement.Get(videoID)
	subscription, _ := h.subscriptions.Get(videoID)
	ctx.JSON(http.StatusOK, gin.H{
		"video_id":        videoID,
		"engagement":      engagement,
		"subscription":    subscription,
		"can_unsubscribe": h.subscriptions.CanUnsubscribe(videoID),
	})
}

func (h *EngagementHandler) Like(ctx *gin.Context) {
	videoID, ok := videoIDParam(ctx)
	if !ok {
		return
	}
	state, err := h.engagement.ToggleLike(ctx.Request.Context(), videoID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

func (h *EngagementHandler) Dislike(ctx *gin.Context) {
	videoID, ok := videoIDParam(ctx)
	if !ok {
		return
	}
	state, err := h.engagement.ToggleDislike(ctx.Request.Context(), videoID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

func (h *EngagementHandler) ToggleSubscription(ctx *gin.Context) {
	videoID, ok := videoIDParam(ctx)
	if !ok {
		return
	}
	var req dto.SubscriptionToggleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, ErrorUnmarshal)
		return
	}
	state, err := h.subscriptions.Toggle(ctx.Request.Context(), videoID, req.CreatorID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"subscription": state, "can_unsubscribe": state.CanUnsubscribe()})
}
