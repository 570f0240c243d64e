package services

import (
	"context"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/views"
)

// TweetService manages channel posts.
type TweetService struct {
	deps Deps
}

// Create posts a tweet as owner.
func (s *TweetService) Create(ctx context.Context, owner ids.ID, content string) (models.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, apperr.BadRequest("content is required")
	}
	createdAt := now()
	tweet := models.Tweet{ID: ids.New(), Owner: owner, Content: content, CreatedAt: createdAt, UpdatedAt: createdAt}
	if err := s.deps.Repos.Tweets.Create(ctx, tweet); err != nil {
		return models.Tweet{}, writeErr(err, "create", "tweet")
	}
	return tweet, nil
}

// UserTweets lists the tweets of user as seen by requester.
func (s *TweetService) UserTweets(ctx context.Context, user, requester ids.ID) ([]models.TweetView, error) {
	if _, err := s.deps.Repos.Users.FindByID(ctx, user); err != nil {
		return nil, lookupErr(err, "user")
	}
	return runView[models.TweetView](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.UserTweets(user, requester)
	})
}

// Update edits a tweet owned by user.
func (s *TweetService) Update(ctx context.Context, user, tweetID ids.ID, content string) (models.Tweet, error) {
	tweet, err := s.owned(ctx, user, tweetID)
	if err != nil {
		return models.Tweet{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, apperr.BadRequest("content is required")
	}
	if err := s.deps.Repos.Tweets.UpdateContent(ctx, tweetID, content); err != nil {
		return models.Tweet{}, writeErr(err, "update", "tweet")
	}
	tweet.Content = content
	tweet.UpdatedAt = now()
	return tweet, nil
}

// Delete removes a tweet owned by user and the likes on it.
func (s *TweetService) Delete(ctx context.Context, user, tweetID ids.ID) error {
	if _, err := s.owned(ctx, user, tweetID); err != nil {
		return err
	}
	if _, err := s.deps.Repos.Likes.DeleteForTargets(ctx, models.TargetTweet, tweetID); err != nil {
		return apperr.Internal("failed to delete tweet likes", err)
	}
	if err := s.deps.Repos.Tweets.Delete(ctx, tweetID); err != nil {
		return writeErr(err, "delete", "tweet")
	}
	return nil
}

func (s *TweetService) owned(ctx context.Context, user, tweetID ids.ID) (models.Tweet, error) {
	tweet, err := s.deps.Repos.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, lookupErr(err, "tweet")
	}
	if err := requireOwner(tweet.Owner, user, "tweet"); err != nil {
		return models.Tweet{}, err
	}
	return tweet, nil
}
