package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/store"
)

// CommentRepository stores comments on videos.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id ids.ID) (models.Comment, error)
	UpdateContent(ctx context.Context, id ids.ID, content string) error
	Delete(ctx context.Context, id ids.ID) error
	IDsForVideo(ctx context.Context, video ids.ID) ([]ids.ID, error)
	DeleteForVideo(ctx context.Context, video ids.ID) (int64, error)
}

// DocumentCommentRepository stores comments in the comments collection.
type DocumentCommentRepository struct {
	store    store.Store
	comments store.Collection[models.Comment]
}

// NewDocumentCommentRepository constructs a comment repository backed by s.
func NewDocumentCommentRepository(s store.Store) *DocumentCommentRepository {
	return &DocumentCommentRepository{store: s, comments: store.NewCollection[models.Comment](s, store.Comments)}
}

// Create persists a new comment.
func (r *DocumentCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	if err := r.comments.Insert(ctx, comment); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// FindByID fetches a comment by id.
func (r *DocumentCommentRepository) FindByID(ctx context.Context, id ids.ID) (models.Comment, error) {
	comment, err := r.comments.FindByID(ctx, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return comment, nil
}

// UpdateContent replaces the text of a comment.
func (r *DocumentCommentRepository) UpdateContent(ctx context.Context, id ids.ID, content string) error {
	err := r.comments.UpdateByID(ctx, id, store.Update{Set: map[string]any{"content": content, "updatedAt": now()}})
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// Delete removes a comment.
func (r *DocumentCommentRepository) Delete(ctx context.Context, id ids.ID) error {
	if err := r.comments.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// IDsForVideo lists the ids of the comments left on video.
func (r *DocumentCommentRepository) IDsForVideo(ctx context.Context, video ids.ID) ([]ids.ID, error) {
	p, err := pipeline.New(store.Comments,
		pipeline.Match(pipeline.IDEq("video", video)),
		pipeline.Keep("video"),
	)
	if err != nil {
		return nil, err
	}
	rows, err := store.Run[models.Comment](ctx, r.store, p)
	if err != nil {
		return nil, fmt.Errorf("select comment ids: %w", err)
	}
	out := make([]ids.ID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out, nil
}

// DeleteForVideo removes every comment left on video.
func (r *DocumentCommentRepository) DeleteForVideo(ctx context.Context, video ids.ID) (int64, error) {
	n, err := r.comments.DeleteMany(ctx, pipeline.IDEq("video", video))
	if err != nil {
		return 0, fmt.Errorf("delete video comments: %w", err)
	}
	return n, nil
}
