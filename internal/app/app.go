package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/httpserver"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/store"
)

// Run bootstraps the VidTube backend application. The command defaults to
// serve.
func Run(ctx context.Context, args []string) error {
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx)
	default:
		return fmt.Errorf("unknown command %q (expected serve or migrate)", command)
	}
}

func bootstrap() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func connect(ctx context.Context, cfg config.Config) (*mongo.Client, *store.MongoStore, error) {
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	return client, store.NewMongoStore(client.Database(cfg.MongoDatabase)), nil
}

func serve(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	client, mongoStore, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("disconnect mongo", "error", err)
		}
	}()

	if err := ensureIndexesWithRetry(ctx, mongoStore, logger); err != nil {
		return err
	}

	deps, cleanup, err := buildDependencies(ctx, store.Instrument(mongoStore), cfg, logger)
	if err != nil {
		return err
	}
	deps.Database = handlers.PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})

	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps))

	logger.Info("starting http server", "port", cfg.AppPort, "database", cfg.MongoDatabase)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case serveErr = <-srvErr:
		if serveErr != nil {
			logger.Error("http server stopped", "error", serveErr)
		}
	}

	shutdownCtx, cancel := httpserver.ShutdownContext()
	defer cancel()

	err = errors.Join(serveErr, srv.Shutdown(shutdownCtx))
	if cerr := cleanup(shutdownCtx); cerr != nil {
		err = errors.Join(err, fmt.Errorf("drain background work: %w", cerr))
	}
	return err
}

func runMigrations(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	client, mongoStore, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	if err := ensureIndexesWithRetry(ctx, mongoStore, logger); err != nil {
		return err
	}
	logger.Info("indexes are up to date", "database", cfg.MongoDatabase)
	return nil
}

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

type indexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexesWithRetry(ctx context.Context, target indexEnsurer, logger *slog.Logger) error {
	var attempt int
	for attempt = 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
			if backoff > migrationMaxBackoff {
				backoff = migrationMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			timer.Stop()
		}

		err := target.EnsureIndexes(ctx)
		if err == nil {
			return nil
		}
		if shouldRetryMigration(err) && attempt < migrationMaxRetries-1 {
			logger.Warn("transient error ensuring indexes",
				"attempt", attempt+1, "max_attempts", migrationMaxRetries, "error", err)
			continue
		}
		return fmt.Errorf("ensure indexes: %w", err)
	}

	return fmt.Errorf("ensure indexes: exceeded max retries (%d)", attempt)
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("RetryableWriteError") || cmdErr.HasErrorLabel("TransientTransactionError")
	}

	return false
}
