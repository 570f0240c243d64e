// Package handlers exposes the services over HTTP.
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/services"
)

// requester returns the authenticated user. Routes mounted behind
// RequireAuth always have one.
func requester(r *http.Request) (ids.ID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return ids.Nil, apperr.Unauthorized("unauthorized request")
	}
	return id, nil
}

// optionalRequester returns the authenticated user or ids.Nil.
func optionalRequester(r *http.Request) ids.ID {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

// pathID parses the named URL parameter as an id.
func pathID(r *http.Request, name string) (ids.ID, error) {
	raw := chi.URLParam(r, name)
	id, err := ids.Parse(raw)
	if err != nil {
		return ids.Nil, apperr.BadRequest("invalid " + name)
	}
	return id, nil
}

// multipartForm parses a multipart request body bounded by maxBytes.
func multipartForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("upload exceeds the size limit")
		}
		return apperr.BadRequest("invalid multipart form", err.Error())
	}
	return nil
}

// formFile returns the named upload, or nil when the field is absent. The
// returned close function must be called once the upload is consumed.
func formFile(r *http.Request, field string) (*services.Upload, func(), error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperr.BadRequest("invalid " + field + " upload")
	}
	return upload(f, header), func() { f.Close() }, nil
}

func upload(f multipart.File, header *multipart.FileHeader) *services.Upload {
	return &services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}
