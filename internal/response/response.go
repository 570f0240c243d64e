// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
)

// Envelope is the body of every response.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
	Success    bool     `json:"success"`
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	if data == nil {
		data = struct{}{}
	}
	write(r.Context(), w, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// Error writes the failure envelope for err. Unclassified errors are reported
// as internal without leaking their text.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("internal server error", err)
	}
	status := appErr.Kind.Status()
	message := appErr.Message
	if message == "" {
		message = http.StatusText(status)
	}
	errs := appErr.Details
	if len(errs) == 0 {
		errs = []string{message}
	}

	logger := logging.FromContext(r.Context())
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message, "error", err)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", message, "kind", appErr.Kind.String())
	}

	write(r.Context(), w, Envelope{
		StatusCode: status,
		Message:    message,
		Errors:     errs,
		Success:    false,
	})
}

// Fail writes a failure envelope for statuses outside the error kinds, such
// as 429 from the rate limiter.
func Fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Warn("request rejected", "status", status, "message", message)
	write(r.Context(), w, Envelope{
		StatusCode: status,
		Message:    message,
		Errors:     []string{message},
		Success:    false,
	})
}

func write(ctx context.Context, w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.FromContext(ctx).Error("encode response body", slog.Int("status", env.StatusCode), slog.Any("error", err))
	}
}

// Decode reads a JSON request body into dst. An empty body leaves dst
// untouched. Unknown fields are rejected.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.BadRequest("invalid request body", err.Error())
	}
	return nil
}

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
