package services

import (
	"context"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/views"
)

// SubscriptionService manages channel subscriptions.
type SubscriptionService struct {
	deps Deps
}

// Toggle subscribes subscriber to channel, or unsubscribes when already
// subscribed. It reports whether the subscription exists afterwards.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriber, channel ids.ID) (bool, error) {
	if ids.Equal(subscriber, channel) {
		return false, apperr.BadRequest("you cannot subscribe to your own channel")
	}
	if _, err := s.deps.Repos.Users.FindByID(ctx, channel); err != nil {
		return false, lookupErr(err, "channel")
	}
	subs := s.deps.Repos.Subscriptions
	return toggler{
		kind: "subscription",
		find: func(ctx context.Context) (ids.ID, error) {
			sub, err := subs.Find(ctx, subscriber, channel)
			return sub.ID, err
		},
		create: func(ctx context.Context) error {
			return subs.Create(ctx, models.Subscription{
				ID:         ids.New(),
				Subscriber: subscriber,
				Channel:    channel,
				CreatedAt:  now(),
			})
		},
		remove: subs.Delete,
	}.run(ctx)
}

// Subscribers lists the subscribers of channel.
func (s *SubscriptionService) Subscribers(ctx context.Context, channel ids.ID) ([]models.ChannelSubscriber, error) {
	return runView[models.ChannelSubscriber](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.ChannelSubscribers(channel)
	})
}

// SubscribedChannels lists the channels subscriber follows.
func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriber ids.ID) ([]models.SubscribedChannel, error) {
	return runView[models.SubscribedChannel](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.SubscribedChannels(subscriber)
	})
}
