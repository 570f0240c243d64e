package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// CommentHandler manages comments on videos.
type CommentHandler struct {
	Comments *services.CommentService
}

// VideoComments handles GET /comments/{videoId}.
func (h CommentHandler) VideoComments(w http.ResponseWriter, r *http.Request) {
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Comments.VideoComments(r.Context(), videoID, optionalRequester(r), pagination.Parse(q.Get("page"), q.Get("limit")))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, page, "Comments fetched successfully")
}

// Add handles POST /comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
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
	var req contentRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	comment, err := h.Comments.Add(r.Context(), user, videoID, req.Content)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var req contentRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	comment, err := h.Comments.Update(r.Context(), user, commentID, req.Content)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, comment, "Comment updated successfully")
}

// Delete handles DELETE /comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.Comments.Delete(r.Context(), user, commentID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, nil, "Comment deleted successfully")
}
