package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/pipeline"
)

// Instrumented decorates a Store with metrics and, for pipelines, a logging span.
type Instrumented struct {
	next Store
}

// Instrument wraps next.
func Instrument(next Store) *Instrumented {
	return &Instrumented{next: next}
}

var _ Store = (*Instrumented)(nil)

func (s *Instrumented) FindByID(ctx context.Context, collection string, id ids.ID, out any) error {
	err := s.next.FindByID(ctx, collection, id, out)
	metrics.RecordStoreOp(collection, "find_by_id", ignoreNotFound(err))
	return err
}

func (s *Instrumented) FindOne(ctx context.Context, collection string, where pipeline.Predicate, out any) error {
	err := s.next.FindOne(ctx, collection, where, out)
	metrics.RecordStoreOp(collection, "find_one", ignoreNotFound(err))
	return err
}

func (s *Instrumented) Insert(ctx context.Context, collection string, doc any) error {
	err := s.next.Insert(ctx, collection, doc)
	metrics.RecordStoreOp(collection, "insert", err)
	return err
}

func (s *Instrumented) UpdateByID(ctx context.Context, collection string, id ids.ID, update Update) error {
	err := s.next.UpdateByID(ctx, collection, id, update)
	metrics.RecordStoreOp(collection, "update_by_id", err)
	return err
}

func (s *Instrumented) DeleteByID(ctx context.Context, collection string, id ids.ID) error {
	err := s.next.DeleteByID(ctx, collection, id)
	metrics.RecordStoreOp(collection, "delete_by_id", err)
	return err
}

func (s *Instrumented) DeleteMany(ctx context.Context, collection string, where pipeline.Predicate) (int64, error) {
	n, err := s.next.DeleteMany(ctx, collection, where)
	metrics.RecordStoreOp(collection, "delete_many", err)
	return n, err
}

func (s *Instrumented) RunPipeline(ctx context.Context, p pipeline.Pipeline, out any) error {
	ctx, span := logging.StartSpan(ctx, "pipeline."+p.Collection)
	err := s.next.RunPipeline(ctx, p, out)
	metrics.RecordPipeline(p.Collection, span.Duration(), err)
	if err != nil {
		logging.FromContext(ctx).Debug("pipeline stages", slog.Int("stages", len(p.Stages)))
	}
	span.EndWithError(err)
	return err
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
