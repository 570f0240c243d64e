package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/models"
)

// BreakerConfig tunes the circuit breaker in front of a media store.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns the production settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second, HalfOpenRequests: 1}
}

// BreakerStorage fails fast with ErrUnavailable while the wrapped store keeps
// failing.
type BreakerStorage struct {
	next    MediaStore
	breaker *gobreaker.CircuitBreaker[models.Media]
}

// NewBreakerStorage wraps next with a circuit breaker.
func NewBreakerStorage(next MediaStore, cfg BreakerConfig, logger *slog.Logger) *BreakerStorage {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        "media-store",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.MediaBreakerState.Set(stateValue(to))
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &BreakerStorage{next: next, breaker: gobreaker.NewCircuitBreaker[models.Media](settings)}
}

// Upload forwards to the wrapped store unless the circuit is open.
func (b *BreakerStorage) Upload(ctx context.Context, key, contentType string, r io.Reader) (models.Media, error) {
	media, err := b.breaker.Execute(func() (models.Media, error) {
		return b.next.Upload(ctx, key, contentType, r)
	})
	return media, translateBreakerError(err)
}

// Delete forwards to the wrapped store unless the circuit is open.
func (b *BreakerStorage) Delete(ctx context.Context, storageID string) error {
	_, err := b.breaker.Execute(func() (models.Media, error) {
		return models.Media{}, b.next.Delete(ctx, storageID)
	})
	return translateBreakerError(err)
}

// State reports the current breaker state.
func (b *BreakerStorage) State() gobreaker.State {
	return b.breaker.State()
}

func translateBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
