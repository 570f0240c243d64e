package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// LikeHandler toggles likes and lists liked videos.
type LikeHandler struct {
	Likes *services.LikeService
}

type likeStatus struct {
	IsLiked bool `json:"isLiked"`
}

// ToggleVideo handles POST /likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoId", models.VideoTarget)
}

// ToggleComment handles POST /likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentId", models.CommentTarget)
}

// ToggleTweet handles POST /likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "tweetId", models.TweetTarget)
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, param string, target func(ids.ID) models.LikeTarget) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	id, err := pathID(r, param)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	liked, err := h.Likes.Toggle(r.Context(), user, target(id))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	message := "Like removed"
	if liked {
		message = "Like added"
	}
	response.JSON(w, r, http.StatusOK, likeStatus{IsLiked: liked}, message)
}

// LikedVideos handles GET /likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videos, err := h.Likes.LikedVideos(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, videos, "Liked videos fetched successfully")
}
