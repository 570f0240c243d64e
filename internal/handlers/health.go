package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler responds with service health information.
type HealthHandler struct {
	// Database is optional; when set it must answer within two seconds.
	Database Pinger
}

type healthStatus struct {
	Message string `json:"message"`
}

// Handle implements GET /healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Database.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("database ping failed", "error", err)
			response.Fail(w, r, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	response.JSON(w, r, http.StatusOK, healthStatus{Message: "Everything is pristine"}, "OK")
}
