package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/store"
)

// TweetRepository stores channel tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id ids.ID) (models.Tweet, error)
	UpdateContent(ctx context.Context, id ids.ID, content string) error
	Delete(ctx context.Context, id ids.ID) error
}

// DocumentTweetRepository stores tweets in the tweets collection.
type DocumentTweetRepository struct {
	tweets store.Collection[models.Tweet]
}

// NewDocumentTweetRepository constructs a tweet repository backed by s.
func NewDocumentTweetRepository(s store.Store) *DocumentTweetRepository {
	return &DocumentTweetRepository{tweets: store.NewCollection[models.Tweet](s, store.Tweets)}
}

// Create persists a new tweet.
func (r *DocumentTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	if err := r.tweets.Insert(ctx, tweet); err != nil {
		return fmt.Errorf("insert tweet: %w", err)
	}
	return nil
}

// FindByID fetches a tweet by id.
func (r *DocumentTweetRepository) FindByID(ctx context.Context, id ids.ID) (models.Tweet, error) {
	tweet, err := r.tweets.FindByID(ctx, id)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("select tweet: %w", err)
	}
	return tweet, nil
}

// UpdateContent replaces the text of a tweet.
func (r *DocumentTweetRepository) UpdateContent(ctx context.Context, id ids.ID, content string) error {
	err := r.tweets.UpdateByID(ctx, id, store.Update{Set: map[string]any{"content": content, "updatedAt": now()}})
	if err != nil {
		return fmt.Errorf("update tweet: %w", err)
	}
	return nil
}

// Delete removes a tweet.
func (r *DocumentTweetRepository) Delete(ctx context.Context, id ids.ID) error {
	if err := r.tweets.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	return nil
}
