package services

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/store"
)

// toggler flips a record between present and absent. find returns
// store.ErrNotFound when the record is absent.
type toggler struct {
	kind   string
	find   func(ctx context.Context) (ids.ID, error)
	create func(ctx context.Context) error
	remove func(ctx context.Context, id ids.ID) error
}

// run deletes a present record and reports false, or inserts an absent one
// and reports true. An insert rejected by the unique index means a concurrent
// toggle created the record first, so the result is still true.
func (t toggler) run(ctx context.Context) (bool, error) {
	id, err := t.find(ctx)
	switch {
	case err == nil:
		if err := t.remove(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return false, apperr.Internal("failed to remove "+t.kind, err)
		}
		metrics.RecordToggle(t.kind, false)
		return false, nil
	case errors.Is(err, store.ErrNotFound):
		if err := t.create(ctx); err != nil && !errors.Is(err, store.ErrConflict) {
			return false, apperr.Internal("failed to create "+t.kind, err)
		}
		metrics.RecordToggle(t.kind, true)
		return true, nil
	default:
		return false, apperr.Internal("failed to load "+t.kind, err)
	}
}
