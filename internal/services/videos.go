package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/validation"
	"github.com/vidtube/backend/internal/views"
)

// VideoService implements the video catalogue.
type VideoService struct {
	deps Deps
}

// ListInput mirrors the listing query string.
type ListInput struct {
	Query    string
	SortBy   string
	SortType string `validate:"omitempty,oneof=asc desc"`
	UserID   string
	Page     pagination.Params
}

// List returns a page of published videos.
func (s *VideoService) List(ctx context.Context, in ListInput) (pagination.Page[models.VideoCard], error) {
	if err := validation.Struct(in); err != nil {
		return pagination.Page[models.VideoCard]{}, err
	}
	opts := views.ListingOptions{
		Query:     in.Query,
		SortBy:    in.SortBy,
		Ascending: in.SortType == "asc",
	}
	if raw := strings.TrimSpace(in.UserID); raw != "" {
		owner, err := ids.Parse(raw)
		if err != nil {
			return pagination.Page[models.VideoCard]{}, apperr.BadRequest("invalid userId")
		}
		opts.Owner = owner
	}

	p, err := views.VideoListing(opts)
	if errors.Is(err, views.ErrUnsupportedSort) {
		return pagination.Page[models.VideoCard]{}, apperr.BadRequest(fmt.Sprintf("sortBy must be one of %s", strings.Join(views.SortableVideoFields, ", ")))
	}
	rows, err := runView[models.VideoCard](ctx, s.deps.Store, func() (pipeline.Pipeline, error) { return p, err })
	if err != nil {
		return pagination.Page[models.VideoCard]{}, err
	}
	return pagination.Paginate(rows, in.Page), nil
}

// PublishInput is the payload of a video upload.
type PublishInput struct {
	Title       string  `form:"title" validate:"required"`
	Description string  `form:"description" validate:"required"`
	Video       *Upload `form:"-" validate:"-"`
	Thumbnail   *Upload `form:"-" validate:"-"`
}

// Publish uploads a video and its thumbnail and records it as published.
// The duration is probed from the uploaded file; a probe failure stores 0.
func (s *VideoService) Publish(ctx context.Context, owner ids.ID, in PublishInput) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return models.Video{}, err
	}
	if in.Video == nil {
		return models.Video{}, apperr.BadRequest("video file is required")
	}
	if in.Thumbnail == nil {
		return models.Video{}, apperr.BadRequest("thumbnail is required")
	}

	spooled, cleanup, err := s.spool(in.Video)
	if err != nil {
		return models.Video{}, apperr.Internal("failed to receive video file", err)
	}
	defer cleanup()

	duration := s.probe(ctx, spooled.Name())
	if _, err := spooled.Seek(0, io.SeekStart); err != nil {
		return models.Video{}, apperr.Internal("failed to read video file", err)
	}

	videoFile, err := s.deps.uploadMedia(ctx, "videos", &Upload{Filename: in.Video.Filename, ContentType: in.Video.ContentType, Body: spooled})
	if err != nil {
		return models.Video{}, err
	}
	thumbnail, err := s.deps.uploadMedia(ctx, "thumbnails", in.Thumbnail)
	if err != nil {
		s.deps.orphaned(ctx, err, videoFile)
		return models.Video{}, err
	}

	createdAt := now()
	video := models.Video{
		ID:          ids.New(),
		Owner:       owner,
		Title:       in.Title,
		Description: in.Description,
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
		Duration:    duration,
		IsPublished: false,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := s.deps.Repos.Videos.Create(ctx, video); err != nil {
		s.deps.orphaned(ctx, err, videoFile, thumbnail)
		return models.Video{}, apperr.Internal("failed to save video", err)
	}
	return video, nil
}

// spool copies the upload to a temporary file so it can be probed and then
// streamed to the media store.
func (s *VideoService) spool(u *Upload) (*os.File, func(), error) {
	dir := s.deps.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "upload-*"+strings.ToLower(filepath.Ext(u.Filename)))
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}
	if _, err := io.Copy(f, u.Body); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("write temp file: %w", err)
	}
	return f, cleanup, nil
}

func (s *VideoService) probe(ctx context.Context, path string) float64 {
	if s.deps.Prober == nil {
		return 0
	}
	duration, err := s.deps.Prober.Duration(ctx, path)
	if err != nil {
		s.deps.logger(ctx).Warn("video duration probe failed", "error", err)
		return 0
	}
	return duration
}

// Detail returns a video as seen by requester and records the view in the
// background. Unpublished videos are only visible to their owner.
func (s *VideoService) Detail(ctx context.Context, videoID, requester ids.ID) (models.VideoDetail, error) {
	rows, err := runView[models.VideoDetail](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.VideoDetail(videoID, requester)
	})
	if err != nil {
		return models.VideoDetail{}, err
	}
	if len(rows) == 0 {
		return models.VideoDetail{}, apperr.NotFound("video not found")
	}
	detail := rows[0]
	if !detail.IsPublished && !ids.Equal(detail.Owner.ID, requester) {
		return models.VideoDetail{}, apperr.NotFound("video not found")
	}

	if s.deps.Views != nil && !ids.IsZero(requester) {
		if err := s.deps.Views.Enqueue(videoID, requester); err != nil {
			s.deps.logger(ctx).Warn("view not recorded", "video_id", videoID.Hex(), "error", err)
		}
	}
	return detail, nil
}

// UpdateVideoInput holds the editable fields. Nil fields are left unchanged.
type UpdateVideoInput struct {
	Title       *string
	Description *string
	Thumbnail   *Upload
}

// Update edits a video owned by user. A replaced thumbnail is deleted
// best-effort.
func (s *VideoService) Update(ctx context.Context, user, videoID ids.ID, in UpdateVideoInput) (models.Video, error) {
	video, err := s.owned(ctx, user, videoID)
	if err != nil {
		return models.Video{}, err
	}

	changes := repositories.VideoChanges{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.Video{}, apperr.BadRequest("title must not be empty")
		}
		changes.Title = &title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return models.Video{}, apperr.BadRequest("description must not be empty")
		}
		changes.Description = &description
	}
	if changes.Title == nil && changes.Description == nil && in.Thumbnail == nil {
		return models.Video{}, apperr.BadRequest("nothing to update")
	}

	if in.Thumbnail != nil {
		thumbnail, err := s.deps.uploadMedia(ctx, "thumbnails", in.Thumbnail)
		if err != nil {
			return models.Video{}, err
		}
		changes.Thumbnail = &thumbnail
	}

	if err := s.deps.Repos.Videos.Update(ctx, videoID, changes); err != nil {
		if changes.Thumbnail != nil {
			s.deps.orphaned(ctx, err, *changes.Thumbnail)
		}
		return models.Video{}, writeErr(err, "update", "video")
	}
	if changes.Thumbnail != nil {
		s.deps.discardMedia(ctx, "replaced thumbnail", video.Thumbnail)
	}

	updated, err := s.deps.Repos.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, lookupErr(err, "video")
	}
	return updated, nil
}

// Delete removes a video owned by user together with its likes, its
// comments and the likes on those comments. The video goes last so a failed
// cascade can be retried. Media assets are deleted best-effort.
func (s *VideoService) Delete(ctx context.Context, user, videoID ids.ID) error {
	video, err := s.owned(ctx, user, videoID)
	if err != nil {
		return err
	}
	repos := s.deps.Repos

	commentIDs, err := repos.Comments.IDsForVideo(ctx, videoID)
	if err != nil {
		return apperr.Internal("failed to load video comments", err)
	}
	if len(commentIDs) > 0 {
		if _, err := repos.Likes.DeleteForTargets(ctx, models.TargetComment, commentIDs...); err != nil {
			return apperr.Internal("failed to delete comment likes", err)
		}
	}
	if _, err := repos.Comments.DeleteForVideo(ctx, videoID); err != nil {
		return apperr.Internal("failed to delete video comments", err)
	}
	if _, err := repos.Likes.DeleteForTargets(ctx, models.TargetVideo, videoID); err != nil {
		return apperr.Internal("failed to delete video likes", err)
	}
	if err := repos.Videos.Delete(ctx, videoID); err != nil {
		return writeErr(err, "delete", "video")
	}

	s.deps.discardMedia(ctx, "deleted video", video.VideoFile, video.Thumbnail)
	return nil
}

// TogglePublish flips the publish state of a video owned by user.
func (s *VideoService) TogglePublish(ctx context.Context, user, videoID ids.ID) (bool, error) {
	video, err := s.owned(ctx, user, videoID)
	if err != nil {
		return false, err
	}
	published := !video.IsPublished
	if err := s.deps.Repos.Videos.SetPublished(ctx, videoID, published); err != nil {
		return false, writeErr(err, "update", "video")
	}
	metrics.RecordToggle("publish", published)
	return published, nil
}

func (s *VideoService) owned(ctx context.Context, user, videoID ids.ID) (models.Video, error) {
	video, err := s.deps.Repos.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, lookupErr(err, "video")
	}
	if err := requireOwner(video.Owner, user, "video"); err != nil {
		return models.Video{}, err
	}
	return video, nil
}
