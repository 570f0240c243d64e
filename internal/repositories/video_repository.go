package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/store"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id ids.ID) (models.Video, error)
	Update(ctx context.Context, id ids.ID, changes VideoChanges) error
	SetPublished(ctx context.Context, id ids.ID, published bool) error
	IncrementViews(ctx context.Context, id ids.ID) error
	Delete(ctx context.Context, id ids.ID) error
}

// VideoChanges lists the editable fields of a video. Nil fields are left
// unchanged.
type VideoChanges struct {
	Title       *string
	Description *string
	Thumbnail   *models.Media
}

// DocumentVideoRepository stores videos in the videos collection.
type DocumentVideoRepository struct {
	videos store.Collection[models.Video]
}

// NewDocumentVideoRepository constructs a video repository backed by s.
func NewDocumentVideoRepository(s store.Store) *DocumentVideoRepository {
	return &DocumentVideoRepository{videos: store.NewCollection[models.Video](s, store.Videos)}
}

// Create persists a new video.
func (r *DocumentVideoRepository) Create(ctx context.Context, video models.Video) error {
	if err := r.videos.Insert(ctx, video); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID fetches a video by id.
func (r *DocumentVideoRepository) FindByID(ctx context.Context, id ids.ID) (models.Video, error) {
	video, err := r.videos.FindByID(ctx, id)
	if err != nil {
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Update applies the non-nil changes.
func (r *DocumentVideoRepository) Update(ctx context.Context, id ids.ID, changes VideoChanges) error {
	set := map[string]any{"updatedAt": now()}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Thumbnail != nil {
		set["thumbnail"] = *changes.Thumbnail
	}
	if err := r.videos.UpdateByID(ctx, id, store.Update{Set: set}); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// SetPublished changes the publish state.
func (r *DocumentVideoRepository) SetPublished(ctx context.Context, id ids.ID, published bool) error {
	err := r.videos.UpdateByID(ctx, id, store.Update{Set: map[string]any{"isPublished": published, "updatedAt": now()}})
	if err != nil {
		return fmt.Errorf("update publish state: %w", err)
	}
	return nil
}

// IncrementViews adds one view.
func (r *DocumentVideoRepository) IncrementViews(ctx context.Context, id ids.ID) error {
	if err := r.videos.UpdateByID(ctx, id, store.Update{Inc: map[string]int64{"views": 1}}); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Delete removes a video record.
func (r *DocumentVideoRepository) Delete(ctx context.Context, id ids.ID) error {
	if err := r.videos.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}
