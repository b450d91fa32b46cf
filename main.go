package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"vidwatch/domain/repository"
	"vidwatch/infrastructure/auth"
	"vidwatch/infrastructure/cache"
	"vidwatch/infrastructure/clients/videoapi"
	"vidwatch/infrastructure/configuration"
	"vidwatch/infrastructure/logger"
	"vidwatch/infrastructure/persistence"
	"vidwatch/infrastructure/player"
	"vidwatch/infrastructure/realtime"
	httpHandler "vidwatch/interfaces/http"
	"vidwatch/server"
	"vidwatch/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// OS env keeps precedence over the files
	loaded := configuration.LoadEnvFromFile("config.env", ".env")
	if len(loaded) > 0 {
		logger.GetLogger().WithField("files", loaded).Info("Loaded env files")
		configuration.Reload()
	}
	cfg := configuration.C

	tokens := auth.NewTokenStore()
	if v := os.Getenv("VIEWER_TOKEN"); v != "" {
		tokens.Set(v)
	}
	client := videoapi.NewClient(cfg.API.VideoBaseURL, cfg.API.CoreBaseURL, cfg.API.Timeout(), tokens)

	redisClient := InitiateCache(ctx, cfg.RedisClient)
	engagementCache := cache.NewEngagementCache(redisClient, cfg.Playback.CacheTTL())

	historyDB, history := InitiateHistory(cfg.History)
	if historyDB != nil {
		defer historyDB.Close()
	}

	hub := realtime.NewHub()
	engagement := usecase.NewEngagementStore(client, engagementCache, tokens, hub.Broadcast)
	subscriptions := usecase.NewSubscriptionStore(client, engagementCache, tokens, hub.Broadcast)
	comments := usecase.NewCommentThreadCache(client, tokens, hub.Broadcast, cfg.Playback.CommentMaxPages)

	credentials := usecase.NewCredentialClient(client)
	players := player.NewFactory(&http.Client{Timeout: cfg.API.Timeout()}, cfg.Playback.ProbePlaylist)
	reporterCfg := usecase.ReporterConfig{
		Interval:            cfg.Playback.ProgressInterval(),
		CompletionThreshold: cfg.Playback.CompletionThresholdSeconds,
		RequestTimeout:      cfg.API.Timeout(),
	}
	viewer := usecase.NewViewerUsecase(func(videoID int64) *usecase.PlaybackController {
		return usecase.NewPlaybackController(videoID, usecase.ControllerDeps{
			Credentials: credentials,
			NewPlayer:   players.New,
			Progress:    client,
			History:     history,
			Broadcast:   hub.Broadcast,
			Reporter:    reporterCfg,
		})
	}, engagement, subscriptions, comments)

	router := server.InitiateRouter(server.Handlers{
		Health:     httpHandler.NewHealthHandler(viewer, tokens),
		Session:    httpHandler.NewSessionHandler(viewer),
		Engagement: httpHandler.NewEngagementHandler(engagement, subscriptions),
		Comment:    httpHandler.NewCommentHandler(comments),
		Hub:        hub,
	}, tokens, cfg.Cors.AllowOrigins)

	app := cfg.App
	logger.GetLogger().WithFields(map[string]interface{}{
		"port":      app.Port,
		"tls":       app.TLSEnabled,
		"video_api": cfg.API.VideoBaseURL,
		"core_api":  cfg.API.CoreBaseURL,
	}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			if app.TLSCertFile == "" || app.TLSKeyFile == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": app.TLSCertFile, "key": app.TLSKeyFile}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	viewer.Shutdown()
	if redisClient != nil {
		_ = redisClient.Close()
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateCache connects to Redis when configured. Without it the engagement
// cache is a no-op.
func InitiateCache(ctx context.Context, rc configuration.RedisClient) *redis.Client {
	addr := rc.Addr()
	if addr == "" {
		logger.GetLogger().Info("Redis not configured; engagement cache disabled")
		return nil
	}
	client, err := cache.NewCache(ctx, addr, rc.Username, rc.Password, rc.DB)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without engagement cache")
		return nil
	}
	logger.GetLogger().WithField("addr", addr).Info("Redis client initialized successfully.")
	return client
}

// InitiateHistory opens the watch-history journal. Resume is disabled when
// no driver is configured or the database is unreachable.
func InitiateHistory(h configuration.History) (*sql.DB, repository.IWatchHistory) {
	if h.Driver == "" {
		logger.GetLogger().Info("Watch history disabled")
		return nil, nil
	}
	db, err := persistence.OpenDB(h.Driver, h.DSN)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Watch history database not available - resume disabled")
		return nil, nil
	}
	if err := persistence.EnsureWatchHistorySchema(db); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring watch history schema")
		_ = db.Close()
		return nil, nil
	}
	logger.GetLogger().WithField("driver", h.Driver).Info("Watch history connected.")
	return db, persistence.NewWatchHistoryRepository(db, h.Driver)
}
