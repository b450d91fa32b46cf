package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"vidwatch/infrastructure/auth"
	"vidwatch/infrastructure/realtime"
	httpHandler "vidwatch/interfaces/http"
	"vidwatch/interfaces/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health     httpHandler.IHealthHandler
	Session    httpHandler.ISessionHandler
	Engagement httpHandler.IEngagementHandler
	Comment    httpHandler.ICommentHandler
	Hub        *realtime.Hub
}

func InitiateRouter(handlers Handlers, tokens *auth.TokenStore, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", handlers.Health.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("api")
	api.Use(middleware.Auth(tokens))

	api.GET("/events", handlers.Hub.Serve)

	session := api.Group("/session")
	{
		session.POST("", handlers.Session.Open)
		session.GET("", handlers.Session.Get)
		session.DELETE("", handlers.Session.Close)
		session.POST("/play", handlers.Session.Play)
		session.POST("/pause", handlers.Session.Pause)
		session.POST("/retry", handlers.Session.Retry)
		session.POST("/seek", handlers.Session.Seek)
	}

	videos := api.Group("/videos/:videoId")
	{
		videos.GET("/engagement", handlers.Engagement.Get)
		videos.POST("/like", handlers.Engagement.Like)
		videos.POST("/dislike", handlers.Engagement.Dislike)
		videos.POST("/subscription", handlers.Engagement.ToggleSubscription)

		videos.GET("/comments", handlers.Comment.List)
		videos.POST("/comments", handlers.Comment.Post)
		videos.POST("/comments/refresh", handlers.Comment.Refresh)
	}

	return router
}
