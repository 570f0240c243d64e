package videos

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/store"
)

// ViewCounter increments the view counter of a video.
type ViewCounter interface {
	IncrementViews(ctx context.Context, video ids.ID) error
}

// HistoryAppender adds a video to a user's watch history.
type HistoryAppender interface {
	AppendWatchHistory(ctx context.Context, user, video ids.ID) error
}

// RecorderConfig controls the concurrency characteristics of the recorder.
type RecorderConfig struct {
	QueueSize int
	Workers   int
	// Attempts bounds the tries of each write, including the first.
	Attempts int
	// Backoff is the wait before the second try; it doubles afterwards.
	Backoff time.Duration
	// EnqueueWait bounds how long Enqueue waits for a free slot before it
	// applies the view on the caller's goroutine.
	EnqueueWait time.Duration
}

// ViewRecorder applies the side effects of watching a video in the
// background: one view on the video and an entry in the viewer's history.
type ViewRecorder struct {
	views   ViewCounter
	history HistoryAppender
	cfg     RecorderConfig
	logger  *slog.Logger

	jobs   chan viewJob
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

type viewJob struct {
	video ids.ID
	user  ids.ID
}

// NewViewRecorder starts the worker pool.
func NewViewRecorder(views ViewCounter, history HistoryAppender, cfg RecorderConfig, logger *slog.Logger) *ViewRecorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 50 * time.Millisecond
	}
	if cfg.EnqueueWait <= 0 {
		cfg.EnqueueWait = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &ViewRecorder{
		views:   views,
		history: history,
		cfg:     cfg,
		logger:  logger,
		jobs:    make(chan viewJob, cfg.QueueSize),
	}

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}

	return r
}

// Enqueue schedules the view of video by user. A zero user records the view
// without touching any history. When the queue stays full for longer than
// EnqueueWait the view is applied before Enqueue returns.
func (r *ViewRecorder) Enqueue(video, user ids.ID) error {
	job := viewJob{video: video, user: user}
	queued, err := r.offer(job)
	if err != nil || queued {
		return err
	}

	metrics.ViewRecordings.WithLabelValues("inline").Inc()
	r.logger.Warn("view queue saturated, recording inline", slog.String("videoId", video.Hex()))
	r.handleJob(job)
	return nil
}

func (r *ViewRecorder) offer(job viewJob) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false, ErrRecorderClosed
	}

	select {
	case r.jobs <- job:
		metrics.ViewQueueDepth.Set(float64(len(r.jobs)))
		return true, nil
	default:
	}

	timer := time.NewTimer(r.cfg.EnqueueWait)
	defer timer.Stop()
	select {
	case r.jobs <- job:
		metrics.ViewQueueDepth.Set(float64(len(r.jobs)))
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

// Shutdown stops accepting views and waits for queued ones to be applied.
func (r *ViewRecorder) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.jobs)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *ViewRecorder) worker() {
	defer r.wg.Done()

	for job := range r.jobs {
		metrics.ViewQueueDepth.Set(float64(len(r.jobs)))
		r.handleJob(job)
	}
}

// handleJob applies the view and the history entry independently so a
// failure of one never loses the other. A missing video records nothing.
func (r *ViewRecorder) handleJob(job viewJob) {
	ok := true
	err := r.retry(func(ctx context.Context) error {
		return r.views.IncrementViews(ctx, job.video)
	})
	if err != nil {
		r.fail("increment views", job, err)
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		ok = false
	}

	if !ids.IsZero(job.user) {
		err = r.retry(func(ctx context.Context) error {
			return r.history.AppendWatchHistory(ctx, job.user, job.video)
		})
		if err != nil {
			r.fail("append watch history", job, err)
			ok = false
		}
	}

	if ok {
		metrics.ViewRecordings.WithLabelValues("ok").Inc()
	}
}

func (r *ViewRecorder) retry(op func(ctx context.Context) error) error {
	wait := r.cfg.Backoff
	var err error
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = op(ctx)
		cancel()
		if err == nil || errors.Is(err, store.ErrNotFound) {
			return err
		}
		if attempt < r.cfg.Attempts {
			time.Sleep(wait)
			wait *= 2
		}
	}
	return err
}

func (r *ViewRecorder) fail(step string, job viewJob, err error) {
	metrics.ViewRecordings.WithLabelValues("error").Inc()
	r.logger.Error("record view failed",
		slog.String("step", step),
		slog.String("videoId", job.video.Hex()),
		slog.String("userId", job.user.Hex()),
		slog.Any("error", err),
	)
}
