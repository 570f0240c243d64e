package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/services"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/store"
	"github.com/vidtube/backend/internal/videos"
)

// authLimiterTTL is how long an idle client's auth budget is remembered.
const authLimiterTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains background work.
func buildDependencies(ctx context.Context, st store.Store, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	repos := repositories.New(st)

	media, err := newMediaStore(ctx, cfg.ObjectStore, logger)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	tokens, err := auth.NewManager(auth.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, auth.NewUserRefreshStore(repos.Users))
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure tokens: %w", err)
	}

	recorder := videos.NewViewRecorder(repos.Videos, repos.Users, videos.RecorderConfig{
		QueueSize: cfg.ViewQueueSize,
		Workers:   cfg.ViewWorkers,
	}, logger)

	svc := services.New(services.Deps{
		Store:     st,
		Repos:     repos,
		Media:     media,
		Tokens:    tokens,
		Prober:    videos.NewFFProbe(cfg.FFProbePath, cfg.ProbeTimeout),
		Views:     recorder,
		UploadDir: cfg.UploadDir,
		Logger:    logger,
	})

	deps := handlers.Dependencies{
		Services:           svc,
		Tokens:             tokens,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSOrigins:        cfg.CORSOrigins,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		SecureCookies:      cfg.SecureCookies,
		AccessTTL:          cfg.AccessTokenTTL,
		RefreshTTL:         cfg.RefreshTokenTTL,
	}
	if cfg.AuthRateLimit > 0 {
		deps.AuthLimiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, authLimiterTTL)
	}

	return deps, recorder.Shutdown, nil
}

// newMediaStore returns the S3 store behind a circuit breaker, or an
// in-memory store when no bucket is configured.
func newMediaStore(ctx context.Context, cfg config.ObjectStoreConfig, logger *slog.Logger) (storage.MediaStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		logger.Warn("no object store bucket configured, media is kept in memory")
		return storage.NewMemoryStorage("http://localhost/media"), nil
	}

	s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
		Bucket:        cfg.Bucket,
		Region:        cfg.Region,
		Endpoint:      cfg.Endpoint,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("configure object store: %w", err)
	}
	return storage.NewBreakerStorage(s3Store, storage.DefaultBreakerConfig(), logger), nil
}
