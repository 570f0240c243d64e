package services

import (
	"context"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/views"
)

// CommentService manages comments on videos.
type CommentService struct {
	deps Deps
}

// VideoComments returns a page of the comments on a video.
func (s *CommentService) VideoComments(ctx context.Context, videoID, requester ids.ID, page pagination.Params) (pagination.Page[models.CommentView], error) {
	if _, err := s.deps.Repos.Videos.FindByID(ctx, videoID); err != nil {
		return pagination.Page[models.CommentView]{}, lookupErr(err, "video")
	}
	rows, err := runView[models.CommentView](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.VideoComments(videoID, requester)
	})
	if err != nil {
		return pagination.Page[models.CommentView]{}, err
	}
	return pagination.Paginate(rows, page), nil
}

// Add comments on a video as owner.
func (s *CommentService) Add(ctx context.Context, owner, videoID ids.ID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.BadRequest("content is required")
	}
	if _, err := s.deps.Repos.Videos.FindByID(ctx, videoID); err != nil {
		return models.Comment{}, lookupErr(err, "video")
	}
	createdAt := now()
	comment := models.Comment{
		ID:        ids.New(),
		Owner:     owner,
		Video:     videoID,
		Content:   content,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.deps.Repos.Comments.Create(ctx, comment); err != nil {
		return models.Comment{}, writeErr(err, "create", "comment")
	}
	return comment, nil
}

// Update edits a comment owned by user.
func (s *CommentService) Update(ctx context.Context, user, commentID ids.ID, content string) (models.Comment, error) {
	comment, err := s.owned(ctx, user, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.BadRequest("content is required")
	}
	if err := s.deps.Repos.Comments.UpdateContent(ctx, commentID, content); err != nil {
		return models.Comment{}, writeErr(err, "update", "comment")
	}
	comment.Content = content
	comment.UpdatedAt = now()
	return comment, nil
}

// Delete removes a comment owned by user and the likes on it.
func (s *CommentService) Delete(ctx context.Context, user, commentID ids.ID) error {
	if _, err := s.owned(ctx, user, commentID); err != nil {
		return err
	}
	if _, err := s.deps.Repos.Likes.DeleteForTargets(ctx, models.TargetComment, commentID); err != nil {
		return apperr.Internal("failed to delete comment likes", err)
	}
	if err := s.deps.Repos.Comments.Delete(ctx, commentID); err != nil {
		return writeErr(err, "delete", "comment")
	}
	return nil
}

func (s *CommentService) owned(ctx context.Context, user, commentID ids.ID) (models.Comment, error) {
	comment, err := s.deps.Repos.Comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, lookupErr(err, "comment")
	}
	if err := requireOwner(comment.Owner, user, "comment"); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}
