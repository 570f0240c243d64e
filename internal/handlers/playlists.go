package handlers

import (
	"context"
	"net/http"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// PlaylistHandler manages playlists and their videos.
type PlaylistHandler struct {
	Playlists *services.PlaylistService
}

// Create handles POST /playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var req services.PlaylistInput
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	playlist, err := h.Playlists.Create(r.Context(), user, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, playlist, "Playlist created successfully")
}

// Get handles GET /playlist/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	detail, err := h.Playlists.Get(r.Context(), playlistID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail, "Playlist fetched successfully")
}

// UserPlaylists handles GET /playlist/user/{userId}.
func (h PlaylistHandler) UserPlaylists(w http.ResponseWriter, r *http.Request) {
	user, err := pathID(r, "userId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	playlists, err := h.Playlists.UserPlaylists(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, playlists, "User playlists fetched successfully")
}

// Update handles PATCH /playlist/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var req services.PlaylistInput
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	playlist, err := h.Playlists.Update(r.Context(), user, playlistID, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, playlist, "Playlist updated successfully")
}

// Delete handles DELETE /playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.Playlists.Delete(r.Context(), user, playlistID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, nil, "Playlist deleted successfully")
}

// AddVideo handles PATCH /playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, h.Playlists.AddVideo, "Video added to playlist")
}

// RemoveVideo handles PATCH /playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, h.Playlists.RemoveVideo, "Video removed from playlist")
}

type playlistEdit func(ctx context.Context, user, playlistID, videoID ids.ID) (models.Playlist, error)

func (h PlaylistHandler) edit(w http.ResponseWriter, r *http.Request, apply playlistEdit, message string) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	playlist, err := apply(r.Context(), user, playlistID, videoID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, playlist, message)
}
