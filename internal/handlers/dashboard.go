package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// DashboardHandler serves the authenticated channel's statistics.
type DashboardHandler struct {
	Dashboard *services.DashboardService
}

// Stats handles GET /dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	channel, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	stats, err := h.Dashboard.Stats(r.Context(), channel)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Videos handles GET /dashboard/videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	channel, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videos, err := h.Dashboard.Videos(r.Context(), channel)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, videos, "Channel videos fetched successfully")
}
