package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/store"
)

// SubscriptionRepository stores channel subscriptions.
type SubscriptionRepository interface {
	Find(ctx context.Context, subscriber, channel ids.ID) (models.Subscription, error)
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, id ids.ID) error
}

// DocumentSubscriptionRepository stores subscriptions in the subscriptions collection.
type DocumentSubscriptionRepository struct {
	subs store.Collection[models.Subscription]
}

// NewDocumentSubscriptionRepository constructs a subscription repository backed by s.
func NewDocumentSubscriptionRepository(s store.Store) *DocumentSubscriptionRepository {
	return &DocumentSubscriptionRepository{subs: store.NewCollection[models.Subscription](s, store.Subscriptions)}
}

// Find loads the subscription of subscriber to channel.
func (r *DocumentSubscriptionRepository) Find(ctx context.Context, subscriber, channel ids.ID) (models.Subscription, error) {
	sub, err := r.subs.FindOne(ctx, pipeline.And(
		pipeline.IDEq("subscriber", subscriber),
		pipeline.IDEq("channel", channel),
	))
	if err != nil {
		return models.Subscription{}, fmt.Errorf("select subscription: %w", err)
	}
	return sub, nil
}

// Create persists a subscription. A duplicate pair fails with store.ErrConflict.
func (r *DocumentSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	if err := r.subs.Insert(ctx, sub); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Delete removes one subscription.
func (r *DocumentSubscriptionRepository) Delete(ctx context.Context, id ids.ID) error {
	if err := r.subs.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
