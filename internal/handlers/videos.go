package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// VideoHandler provides endpoints for publishing and browsing videos.
type VideoHandler struct {
	Videos         *services.VideoService
	MaxUploadBytes int64
}

// List handles GET /videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.Videos.List(r.Context(), services.ListInput{
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		UserID:   q.Get("userId"),
		Page:     pagination.Parse(q.Get("page"), q.Get("limit")),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result, "Videos fetched successfully")
}

// Publish handles POST /videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	owner, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := multipartForm(w, r, h.MaxUploadBytes); err != nil {
		response.Error(w, r, err)
		return
	}
	videoFile, closeVideo, err := formFile(r, "videoFile")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	defer closeVideo()
	thumbnail, closeThumb, err := formFile(r, "thumbnail")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	defer closeThumb()

	video, err := h.Videos.Publish(r.Context(), owner, services.PublishInput{
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
		Video:       videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, video, "Video published successfully")
}

// Detail handles GET /videos/{videoId}.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	detail, err := h.Videos.Detail(r.Context(), videoID, optionalRequester(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail, "Video fetched successfully")
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Update handles PATCH /videos/{videoId}. Multipart requests may replace
// the thumbnail; JSON requests edit text fields only.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var in services.UpdateVideoInput
	if response.IsMultipart(r) {
		if err := multipartForm(w, r, h.MaxUploadBytes); err != nil {
			response.Error(w, r, err)
			return
		}
		thumbnail, closeThumb, err := formFile(r, "thumbnail")
		if err != nil {
			response.Error(w, r, err)
			return
		}
		defer closeThumb()
		in.Thumbnail = thumbnail
		in.Title = optionalFormValue(r, "title")
		in.Description = optionalFormValue(r, "description")
	} else {
		var req updateVideoRequest
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		in.Title, in.Description = req.Title, req.Description
	}
	if in.Title == nil && in.Description == nil && in.Thumbnail == nil {
		response.Error(w, r, apperr.BadRequest("nothing to update"))
		return
	}

	video, err := h.Videos.Update(r.Context(), user, videoID, in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Videos.Delete(r.Context(), user, videoID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, nil, "Video deleted successfully")
}

type publishStatus struct {
	IsPublished bool `json:"isPublished"`
}

// TogglePublish handles PATCH /videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
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
	published, err := h.Videos.TogglePublish(r.Context(), user, videoID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, publishStatus{IsPublished: published}, "Publish status toggled")
}

func optionalFormValue(r *http.Request, key string) *string {
	if _, ok := r.MultipartForm.Value[key]; !ok {
		return nil
	}
	v := formValue(r, key)
	return &v
}
