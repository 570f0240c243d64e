package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/store"
)

// PlaylistRepository stores playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id ids.ID) (models.Playlist, error)
	Update(ctx context.Context, id ids.ID, name, description string) error
	AddVideo(ctx context.Context, id, video ids.ID) error
	RemoveVideo(ctx context.Context, id, video ids.ID) error
	Delete(ctx context.Context, id ids.ID) error
}

// DocumentPlaylistRepository stores playlists in the playlists collection.
type DocumentPlaylistRepository struct {
	playlists store.Collection[models.Playlist]
}

// NewDocumentPlaylistRepository constructs a playlist repository backed by s.
func NewDocumentPlaylistRepository(s store.Store) *DocumentPlaylistRepository {
	return &DocumentPlaylistRepository{playlists: store.NewCollection[models.Playlist](s, store.Playlists)}
}

// Create persists a new playlist.
func (r *DocumentPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	if playlist.Videos == nil {
		playlist.Videos = []ids.ID{}
	}
	if err := r.playlists.Insert(ctx, playlist); err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

// FindByID fetches a playlist by id.
func (r *DocumentPlaylistRepository) FindByID(ctx context.Context, id ids.ID) (models.Playlist, error) {
	playlist, err := r.playlists.FindByID(ctx, id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}
	return playlist, nil
}

// Update renames a playlist.
func (r *DocumentPlaylistRepository) Update(ctx context.Context, id ids.ID, name, description string) error {
	err := r.playlists.UpdateByID(ctx, id, store.Update{Set: map[string]any{
		"name": name, "description": description, "updatedAt": now(),
	}})
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}
	return nil
}

// AddVideo appends video unless the playlist already holds it.
func (r *DocumentPlaylistRepository) AddVideo(ctx context.Context, id, video ids.ID) error {
	err := r.playlists.UpdateByID(ctx, id, store.Update{
		AddToSet: map[string]any{"videos": video},
		Set:      map[string]any{"updatedAt": now()},
	})
	if err != nil {
		return fmt.Errorf("add playlist video: %w", err)
	}
	return nil
}

// RemoveVideo drops video from the playlist.
func (r *DocumentPlaylistRepository) RemoveVideo(ctx context.Context, id, video ids.ID) error {
	err := r.playlists.UpdateByID(ctx, id, store.Update{
		Pull: map[string]any{"videos": video},
		Set:  map[string]any{"updatedAt": now()},
	})
	if err != nil {
		return fmt.Errorf("remove playlist video: %w", err)
	}
	return nil
}

// Delete removes a playlist.
func (r *DocumentPlaylistRepository) Delete(ctx context.Context, id ids.ID) error {
	if err := r.playlists.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	return nil
}
