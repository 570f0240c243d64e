package services

import (
	"context"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/views"
)

// LikeService toggles likes on videos, comments and tweets.
type LikeService struct {
	deps Deps
}

// Toggle likes target for user, or removes the like when present. It reports
// whether the target is liked afterwards.
func (s *LikeService) Toggle(ctx context.Context, user ids.ID, target models.LikeTarget) (bool, error) {
	if err := s.ensureTarget(ctx, target); err != nil {
		return false, err
	}
	likes := s.deps.Repos.Likes
	return toggler{
		kind: "like_" + string(target.Type()),
		find: func(ctx context.Context) (ids.ID, error) {
			like, err := likes.Find(ctx, user, target)
			return like.ID, err
		},
		create: func(ctx context.Context) error {
			return likes.Create(ctx, models.NewLike(user, target, now()))
		},
		remove: likes.Delete,
	}.run(ctx)
}

func (s *LikeService) ensureTarget(ctx context.Context, target models.LikeTarget) error {
	repos := s.deps.Repos
	var err error
	switch target.Type() {
	case models.TargetVideo:
		_, err = repos.Videos.FindByID(ctx, target.ID())
	case models.TargetComment:
		_, err = repos.Comments.FindByID(ctx, target.ID())
	case models.TargetTweet:
		_, err = repos.Tweets.FindByID(ctx, target.ID())
	}
	if err != nil {
		return lookupErr(err, string(target.Type()))
	}
	return nil
}

// LikedVideos lists the videos user liked, most recent first.
func (s *LikeService) LikedVideos(ctx context.Context, user ids.ID) ([]models.LikedVideo, error) {
	return runView[models.LikedVideo](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.LikedVideos(user)
	})
}
