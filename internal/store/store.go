// Package store adapts the document database behind typed collection
// accessors and pipeline execution.
package store

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/pipeline"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write violated a unique index.
	ErrConflict = errors.New("record conflict")
)

// Store is the document store the service runs against.
type Store interface {
	FindByID(ctx context.Context, collection string, id ids.ID, out any) error
	FindOne(ctx context.Context, collection string, where pipeline.Predicate, out any) error
	Insert(ctx context.Context, collection string, doc any) error
	UpdateByID(ctx context.Context, collection string, id ids.ID, update Update) error
	DeleteByID(ctx context.Context, collection string, id ids.ID) error
	DeleteMany(ctx context.Context, collection string, where pipeline.Predicate) (int64, error)
	// RunPipeline executes p and decodes every row into out, which must be a
	// pointer to a slice.
	RunPipeline(ctx context.Context, p pipeline.Pipeline, out any) error
}

// Update describes a partial modification of one document. Empty maps are
// ignored.
type Update struct {
	Set      map[string]any
	Inc      map[string]int64
	AddToSet map[string]any
	Pull     map[string]any
	Unset    []string
}

func (u Update) empty() bool {
	return len(u.Set) == 0 && len(u.Inc) == 0 && len(u.AddToSet) == 0 && len(u.Pull) == 0 && len(u.Unset) == 0
}
