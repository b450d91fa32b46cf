package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"vidwatch/infrastructure/auth"
	"vidwatch/infrastructure/logger"
)

// ContextAuthenticated is set on every request: whether a usable viewer token is held
const ContextAuthenticated = "authenticated"

// Auth refreshes the token store from the Authorization header. It never
// aborts: anonymous viewers may watch, and handlers that need a login
// answer 401 themselves.
func Auth(store *auth.TokenStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		if authorization != "" {
			parts := strings.SplitN(authorization, "Bearer ", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
				logger.GetLogger().WithField("path", ctx.FullPath()).Debug("Ignoring malformed Authorization header")
			} else {
				store.Set(parts[1])
			}
		}
		ctx.Set(ContextAuthenticated, store.Authenticated())
		ctx.Next()
	}
}
