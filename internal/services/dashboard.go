package services

import (
	"context"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/views"
)

// DashboardService reports a channel's own statistics.
type DashboardService struct {
	deps Deps
}

// Stats totals subscribers, likes, views and videos of channel. A channel
// without videos or subscribers reports zeros.
func (s *DashboardService) Stats(ctx context.Context, channel ids.ID) (models.ChannelStats, error) {
	var stats models.ChannelStats

	subs, err := runView[models.ChannelStats](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.ChannelSubscriberTotal(channel)
	})
	if err != nil {
		return models.ChannelStats{}, err
	}
	if len(subs) > 0 {
		stats.TotalSubscribers = subs[0].TotalSubscribers
	}

	totals, err := runView[models.ChannelStats](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.ChannelVideoTotals(channel)
	})
	if err != nil {
		return models.ChannelStats{}, err
	}
	if len(totals) > 0 {
		stats.TotalLikes = totals[0].TotalLikes
		stats.TotalViews = totals[0].TotalViews
		stats.TotalVideos = totals[0].TotalVideos
	}
	return stats, nil
}

// Videos lists every video of channel with its like count.
func (s *DashboardService) Videos(ctx context.Context, channel ids.ID) ([]models.ChannelVideo, error) {
	return runView[models.ChannelVideo](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.ChannelVideos(channel)
	})
}
