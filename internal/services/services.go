// Package services executes the read models and mutations behind the API:
// it runs view pipelines, gates mutations on ownership and applies the side
// effects that accompany writes.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/store"
)

// TokenIssuer issues, verifies and revokes session tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, user models.User) (models.AuthTokens, error)
	VerifyRefresh(ctx context.Context, token string) (ids.ID, error)
	Revoke(ctx context.Context, user ids.ID) error
}

// DurationProber reads the duration in seconds of a local video file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ViewQueue accepts the side effects of a video view for background delivery.
type ViewQueue interface {
	Enqueue(video, user ids.ID) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     store.Store
	Repos     repositories.Set
	Media     storage.MediaStore
	Tokens    TokenIssuer
	Prober    DurationProber
	Views     ViewQueue
	UploadDir string
	Logger    *slog.Logger
}

// Services groups every service bound to one set of dependencies.
type Services struct {
	Users         *UserService
	Videos        *VideoService
	Likes         *LikeService
	Subscriptions *SubscriptionService
	Playlists     *PlaylistService
	Tweets        *TweetService
	Comments      *CommentService
	Dashboard     *DashboardService
}

// New builds every service from deps.
func New(deps Deps) Services {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return Services{
		Users:         &UserService{deps: deps},
		Videos:        &VideoService{deps: deps},
		Likes:         &LikeService{deps: deps},
		Subscriptions: &SubscriptionService{deps: deps},
		Playlists:     &PlaylistService{deps: deps},
		Tweets:        &TweetService{deps: deps},
		Comments:      &CommentService{deps: deps},
		Dashboard:     &DashboardService{deps: deps},
	}
}

func (d Deps) logger(ctx context.Context) *slog.Logger {
	if l := logging.FromContext(ctx); l != nil && l != slog.Default() {
		return l
	}
	return d.Logger
}

// lookupErr classifies a failed read of a single entity.
func lookupErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return apperr.Internal("failed to load "+what, err)
}

// writeErr classifies a failed write. A write that races a delete reports the
// entity as missing.
func writeErr(err error, op, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict(what + " already exists")
	default:
		return apperr.Internal("failed to "+op+" "+what, err)
	}
}

func requireOwner(owner, user ids.ID, what string) error {
	if !ids.Equal(owner, user) {
		return apperr.Forbidden("you are not allowed to modify this " + what)
	}
	return nil
}

// runView executes a view pipeline and decodes its rows.
func runView[R any](ctx context.Context, s store.Store, build func() (pipeline.Pipeline, error)) ([]R, error) {
	p, err := build()
	if err != nil {
		return nil, apperr.Internal("failed to build query", err)
	}
	rows, err := store.Run[R](ctx, s, p)
	if err != nil {
		return nil, apperr.Internal("failed to run query", err)
	}
	if rows == nil {
		rows = []R{}
	}
	return rows, nil
}

// uploadMedia stores u under a fresh key inside folder.
func (d Deps) uploadMedia(ctx context.Context, folder string, u *Upload) (models.Media, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), strings.ToLower(path.Ext(u.Filename)))
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	media, err := d.Media.Upload(ctx, key, contentType, u.Body)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			return models.Media{}, apperr.Internal("media storage is unavailable", err)
		}
		return models.Media{}, apperr.Internal("failed to upload "+folder, err)
	}
	return media, nil
}

// discardMedia deletes assets best-effort; failures are logged only.
func (d Deps) discardMedia(ctx context.Context, reason string, assets ...models.Media) {
	for _, m := range assets {
		if m.StorageID == "" {
			continue
		}
		if err := d.Media.Delete(ctx, m.StorageID); err != nil {
			d.logger(ctx).Warn("media delete failed", "reason", reason, "storage_id", m.StorageID, "error", err)
		}
	}
}

// orphaned logs uploads left behind by a failed insert.
func (d Deps) orphaned(ctx context.Context, err error, assets ...models.Media) {
	for _, m := range assets {
		if m.StorageID == "" {
			continue
		}
		d.logger(ctx).Warn("orphaned upload after failed insert", "storage_id", m.StorageID, "error", err)
	}
}

func now() time.Time { return time.Now().UTC() }
