package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"vidwatch/domain/apperror"
	"vidwatch/domain/dto"
	"vidwatch/infrastructure/logger"
)

const (
	ErrorUnmarshal    = "Error while unmarshal"
	ErrorInvalidVideo = "invalid video id"
	CodeLoginRequired = "login_required"
)

// abortWithError writes err as a dto.Res with the status of its class
func abortWithError(ctx *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	res := dto.Res{ResponseCode: strconv.Itoa(status), ResponseMessage: apperror.Message(err)}
	if errors.Is(err, apperror.ErrUnauthenticated) {
		res.ResponseCode = CodeLoginRequired
	}
	if status >= http.StatusInternalServerError {
		logger.GetLogger().WithField("path", ctx.FullPath()).WithField("error", err).Warn("Request failed")
	}
	ctx.AbortWithStatusJSON(status, res)
}

func badRequest(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.Res{ResponseCode: strconv.Itoa(http.StatusBadRequest), ResponseMessage: message})
}

func videoIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("videoId"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(ctx, ErrorInvalidVideo)
		return 0, false
	}
	return id, true
}
