package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/store"
)

// LikeRepository stores likes on videos, comments and tweets.
type LikeRepository interface {
	Find(ctx context.Context, user ids.ID, target models.LikeTarget) (models.Like, error)
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id ids.ID) error
	DeleteForTargets(ctx context.Context, kind models.TargetType, targets ...ids.ID) (int64, error)
}

// DocumentLikeRepository stores likes in the likes collection.
type DocumentLikeRepository struct {
	likes store.Collection[models.Like]
}

// NewDocumentLikeRepository constructs a like repository backed by s.
func NewDocumentLikeRepository(s store.Store) *DocumentLikeRepository {
	return &DocumentLikeRepository{likes: store.NewCollection[models.Like](s, store.Likes)}
}

// Find loads the like user placed on target.
func (r *DocumentLikeRepository) Find(ctx context.Context, user ids.ID, target models.LikeTarget) (models.Like, error) {
	like, err := r.likes.FindOne(ctx, pipeline.And(
		pipeline.IDEq("likedBy", user),
		pipeline.Eq("targetType", string(target.Type())),
		pipeline.IDEq("target", target.ID()),
	))
	if err != nil {
		return models.Like{}, fmt.Errorf("select like %s: %w", target, err)
	}
	return like, nil
}

// Create persists a like. A second like of the same target by the same user
// fails with store.ErrConflict.
func (r *DocumentLikeRepository) Create(ctx context.Context, like models.Like) error {
	if err := r.likes.Insert(ctx, like); err != nil {
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// Delete removes one like.
func (r *DocumentLikeRepository) Delete(ctx context.Context, id ids.ID) error {
	if err := r.likes.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// DeleteForTargets removes every like on the given targets of one kind.
func (r *DocumentLikeRepository) DeleteForTargets(ctx context.Context, kind models.TargetType, targets ...ids.ID) (int64, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	n, err := r.likes.DeleteMany(ctx, pipeline.And(
		pipeline.Eq("targetType", string(kind)),
		pipeline.IDIn("target", targets...),
	))
	if err != nil {
		return 0, fmt.Errorf("delete %s likes: %w", kind, err)
	}
	return n, nil
}
