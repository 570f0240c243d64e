package store

import (
	"context"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/pipeline"
)

// Collection gives typed access to one collection of a Store.
type Collection[T any] struct {
	store  Store
	schema pipeline.Schema
}

// NewCollection binds a document type to a collection schema.
func NewCollection[T any](s Store, schema pipeline.Schema) Collection[T] {
	return Collection[T]{store: s, schema: schema}
}

// Schema returns the collection schema pipelines are built from.
func (c Collection[T]) Schema() pipeline.Schema { return c.schema }

// FindByID loads one document.
func (c Collection[T]) FindByID(ctx context.Context, id ids.ID) (T, error) {
	var doc T
	err := c.store.FindByID(ctx, c.schema.Collection, id, &doc)
	return doc, err
}

// FindOne loads the first document matching where.
func (c Collection[T]) FindOne(ctx context.Context, where pipeline.Predicate) (T, error) {
	var doc T
	err := c.store.FindOne(ctx, c.schema.Collection, where, &doc)
	return doc, err
}

// Insert stores doc.
func (c Collection[T]) Insert(ctx context.Context, doc T) error {
	return c.store.Insert(ctx, c.schema.Collection, doc)
}

// UpdateByID applies update to one document.
func (c Collection[T]) UpdateByID(ctx context.Context, id ids.ID, update Update) error {
	return c.store.UpdateByID(ctx, c.schema.Collection, id, update)
}

// DeleteByID removes one document.
func (c Collection[T]) DeleteByID(ctx context.Context, id ids.ID) error {
	return c.store.DeleteByID(ctx, c.schema.Collection, id)
}

// DeleteMany removes every document matching where.
func (c Collection[T]) DeleteMany(ctx context.Context, where pipeline.Predicate) (int64, error) {
	return c.store.DeleteMany(ctx, c.schema.Collection, where)
}

// Run executes a pipeline and decodes its rows as R.
func Run[R any](ctx context.Context, s Store, p pipeline.Pipeline) ([]R, error) {
	var rows []R
	if err := s.RunPipeline(ctx, p, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
