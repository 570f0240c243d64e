package services

import (
	"context"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/validation"
	"github.com/vidtube/backend/internal/views"
)

// PlaylistService manages user playlists.
type PlaylistService struct {
	deps Deps
}

// PlaylistInput holds the editable playlist fields.
type PlaylistInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

func (in PlaylistInput) normalized() PlaylistInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Create makes an empty playlist owned by owner.
func (s *PlaylistService) Create(ctx context.Context, owner ids.ID, in PlaylistInput) (models.Playlist, error) {
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return models.Playlist{}, err
	}
	createdAt := now()
	playlist := models.Playlist{
		ID:          ids.New(),
		Owner:       owner,
		Name:        in.Name,
		Description: in.Description,
		Videos:      []ids.ID{},
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := s.deps.Repos.Playlists.Create(ctx, playlist); err != nil {
		return models.Playlist{}, writeErr(err, "create", "playlist")
	}
	return playlist, nil
}

// Get materializes a playlist with its published videos.
func (s *PlaylistService) Get(ctx context.Context, playlistID ids.ID) (models.PlaylistDetail, error) {
	rows, err := runView[models.PlaylistDetail](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.PlaylistDetail(playlistID)
	})
	if err != nil {
		return models.PlaylistDetail{}, err
	}
	if len(rows) == 0 {
		return models.PlaylistDetail{}, apperr.NotFound("playlist not found")
	}
	return rows[0], nil
}

// UserPlaylists lists the playlists of user.
func (s *PlaylistService) UserPlaylists(ctx context.Context, user ids.ID) ([]models.PlaylistSummary, error) {
	return runView[models.PlaylistSummary](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.UserPlaylists(user)
	})
}

// Update renames a playlist owned by user.
func (s *PlaylistService) Update(ctx context.Context, user, playlistID ids.ID, in PlaylistInput) (models.Playlist, error) {
	if _, err := s.owned(ctx, user, playlistID); err != nil {
		return models.Playlist{}, err
	}
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return models.Playlist{}, err
	}
	if err := s.deps.Repos.Playlists.Update(ctx, playlistID, in.Name, in.Description); err != nil {
		return models.Playlist{}, writeErr(err, "update", "playlist")
	}
	return s.reload(ctx, playlistID)
}

// Delete removes a playlist owned by user.
func (s *PlaylistService) Delete(ctx context.Context, user, playlistID ids.ID) error {
	if _, err := s.owned(ctx, user, playlistID); err != nil {
		return err
	}
	if err := s.deps.Repos.Playlists.Delete(ctx, playlistID); err != nil {
		return writeErr(err, "delete", "playlist")
	}
	return nil
}

// AddVideo appends a video to a playlist owned by user. Adding a video that
// is already present leaves the playlist unchanged.
func (s *PlaylistService) AddVideo(ctx context.Context, user, playlistID, videoID ids.ID) (models.Playlist, error) {
	if _, err := s.owned(ctx, user, playlistID); err != nil {
		return models.Playlist{}, err
	}
	if _, err := s.deps.Repos.Videos.FindByID(ctx, videoID); err != nil {
		return models.Playlist{}, lookupErr(err, "video")
	}
	if err := s.deps.Repos.Playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		return models.Playlist{}, writeErr(err, "update", "playlist")
	}
	return s.reload(ctx, playlistID)
}

// RemoveVideo drops a video from a playlist owned by user.
func (s *PlaylistService) RemoveVideo(ctx context.Context, user, playlistID, videoID ids.ID) (models.Playlist, error) {
	if _, err := s.owned(ctx, user, playlistID); err != nil {
		return models.Playlist{}, err
	}
	if err := s.deps.Repos.Playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		return models.Playlist{}, writeErr(err, "update", "playlist")
	}
	return s.reload(ctx, playlistID)
}

func (s *PlaylistService) owned(ctx context.Context, user, playlistID ids.ID) (models.Playlist, error) {
	playlist, err := s.deps.Repos.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, lookupErr(err, "playlist")
	}
	if err := requireOwner(playlist.Owner, user, "playlist"); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

func (s *PlaylistService) reload(ctx context.Context, playlistID ids.ID) (models.Playlist, error) {
	playlist, err := s.deps.Repos.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, lookupErr(err, "playlist")
	}
	return playlist, nil
}
