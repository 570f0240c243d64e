// Package views composes the aggregation pipelines behind every derived read
// model. Each function is pure: it only describes the pipeline, and callers
// run it against a store.
package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/store"
)

// ErrUnsupportedSort is returned when a listing is asked to sort on a field
// that is not exposed for sorting.
var ErrUnsupportedSort = errors.New("unsupported sort field")

// SortableVideoFields lists the fields a video listing may be ordered by.
var SortableVideoFields = []string{"createdAt", "updatedAt", "views", "duration", "title"}

var ownerSummary = pipeline.Keep("username", "avatar")

// likesOf joins the likes of the current row under as.
func likesOf(target models.TargetType, as string) pipeline.Join {
	return pipeline.Join{
		From:         store.Likes,
		LocalField:   "_id",
		ForeignField: "target",
		As:           as,
		Pipeline:     []pipeline.Stage{pipeline.Match(pipeline.Eq("targetType", string(target)))},
	}
}

// userAt joins the user referenced by local under as, reduced to its summary.
func userAt(local, as string) pipeline.Join {
	return pipeline.Join{
		From:         store.Users,
		LocalField:   local,
		ForeignField: "_id",
		As:           as,
		Pipeline:     []pipeline.Stage{ownerSummary},
	}
}

// ChannelVideoTotals sums likes and views over every video a channel owns.
// It yields no row when the channel has no videos.
func ChannelVideoTotals(channel ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Videos).Add(
		pipeline.Match(pipeline.IDEq("owner", channel)),
		likesOf(models.TargetVideo, "likes"),
		pipeline.Derive("likesCount", pipeline.Count("likes")),
		pipeline.Group{Accumulators: []pipeline.Accumulator{
			pipeline.SumOf("totalLikes", pipeline.Field("likesCount")),
			pipeline.SumOf("totalViews", pipeline.Field("views")),
			pipeline.CountAs("totalVideos"),
		}},
	).Build()
}

// ChannelSubscriberTotal counts a channel's subscribers.
func ChannelSubscriberTotal(channel ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Subscriptions).Add(
		pipeline.Match(pipeline.IDEq("channel", channel)),
		pipeline.Group{Accumulators: []pipeline.Accumulator{pipeline.CountAs("totalSubscribers")}},
	).Build()
}

// ChannelProfile materializes the public page of the channel named username
// as seen by requester.
func ChannelProfile(username string, requester ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Users).Add(
		pipeline.Match(pipeline.Eq("username", strings.ToLower(strings.TrimSpace(username)))),
		pipeline.Join{From: store.Subscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
		pipeline.Join{From: store.Subscriptions, LocalField: "_id", ForeignField: "subscriber", As: "subscribedTo"},
		pipeline.Derive("subscribersCount", pipeline.Count("subscribers")),
		pipeline.Derive("channelsSubscribedToCount", pipeline.Count("subscribedTo")),
		pipeline.Derive("isSubscribed", pipeline.ContainsID("subscribers.subscriber", requester)),
		pipeline.Keep("fullName", "username", "email", "avatar", "coverImage",
			"subscribersCount", "channelsSubscribedToCount", "isSubscribed"),
	).Build()
}

// VideoDetail materializes one video with its like data and its owner's
// subscription data as seen by requester.
func VideoDetail(video, requester ids.ID) (pipeline.Pipeline, error) {
	owner := pipeline.Join{
		From:         store.Users,
		LocalField:   "owner",
		ForeignField: "_id",
		As:           "owner",
		Pipeline: []pipeline.Stage{
			pipeline.Join{From: store.Subscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
			pipeline.Derive("subscribersCount", pipeline.Count("subscribers")),
			pipeline.Derive("isSubscribed", pipeline.ContainsID("subscribers.subscriber", requester)),
			pipeline.Keep("username", "fullName", "avatar", "subscribersCount", "isSubscribed"),
		},
	}
	return pipeline.NewBuilder(store.Videos).Add(
		pipeline.Match(pipeline.IDEq("_id", video)),
		likesOf(models.TargetVideo, "likes"),
		owner,
		pipeline.Derive("likesCount", pipeline.Count("likes")),
		pipeline.Derive("owner", pipeline.First("owner")),
		pipeline.Derive("isLiked", pipeline.ContainsID("likes.likedBy", requester)),
		pipeline.Keep("title", "description", "videoFile", "thumbnail", "duration", "views",
			"isPublished", "createdAt", "owner", "likesCount", "isLiked"),
	).Build()
}

// ListingOptions narrow and order a video listing.
type ListingOptions struct {
	// Query is matched against title and description when set.
	Query string
	// Owner restricts the listing to one channel when not zero.
	Owner ids.ID
	// SortBy defaults to createdAt.
	SortBy string
	// Ascending reverses the default newest-first order.
	Ascending bool
}

// VideoListing lists published videos with their owner summary.
func VideoListing(opts ListingOptions) (pipeline.Pipeline, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	if !supportedSort(sortBy) {
		return pipeline.Pipeline{}, fmt.Errorf("%w: %q", ErrUnsupportedSort, sortBy)
	}
	dir := pipeline.Descending
	if opts.Ascending {
		dir = pipeline.Ascending
	}

	b := pipeline.NewBuilder(store.Videos)
	if q := strings.TrimSpace(opts.Query); q != "" {
		b.Add(pipeline.Match(pipeline.TextSearch(q, "title", "description")))
	}
	if !ids.IsZero(opts.Owner) {
		b.Add(pipeline.Match(pipeline.IDEq("owner", opts.Owner)))
	}
	return b.Add(
		pipeline.Match(pipeline.Eq("isPublished", true)),
		pipeline.Sort{Keys: []pipeline.SortKey{{Field: sortBy, Direction: dir}, {Field: "_id", Direction: dir}}},
		userAt("owner", "ownerDetails"),
		pipeline.Unwind{Path: "ownerDetails"},
	).Build()
}

func supportedSort(field string) bool {
	for _, f := range SortableVideoFields {
		if f == field {
			return true
		}
	}
	return false
}

// LikedVideos lists the videos user liked, most recently liked first.
func LikedVideos(user ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Likes).Add(
		pipeline.Match(pipeline.And(
			pipeline.IDEq("likedBy", user),
			pipeline.Eq("targetType", string(models.TargetVideo)),
		)),
		pipeline.Join{
			From:         store.Videos,
			LocalField:   "target",
			ForeignField: "_id",
			As:           "likedVideo",
			Pipeline: []pipeline.Stage{
				userAt("owner", "ownerDetails"),
				pipeline.Unwind{Path: "ownerDetails"},
			},
		},
		pipeline.Unwind{Path: "likedVideo"},
		pipeline.SortBy("createdAt", pipeline.Descending),
		pipeline.Keep("createdAt", "likedVideo"),
	).Build()
}

// UserTweets lists the tweets of user, newest first, as seen by requester.
func UserTweets(user, requester ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Tweets).Add(
		pipeline.Match(pipeline.IDEq("owner", user)),
		userAt("owner", "ownerDetails"),
		likesOf(models.TargetTweet, "likes"),
		pipeline.Derive("likesCount", pipeline.Count("likes")),
		pipeline.Derive("ownerDetails", pipeline.First("ownerDetails")),
		pipeline.Derive("isLiked", pipeline.ContainsID("likes.likedBy", requester)),
		pipeline.SortBy("createdAt", pipeline.Descending),
		pipeline.Keep("content", "createdAt", "ownerDetails", "likesCount", "isLiked"),
	).Build()
}

// ChannelVideos lists every video of a channel, published or not, with its
// like count. It backs the owner's dashboard.
func ChannelVideos(channel ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Videos).Add(
		pipeline.Match(pipeline.IDEq("owner", channel)),
		likesOf(models.TargetVideo, "likes"),
		pipeline.Derive("likesCount", pipeline.Count("likes")),
		pipeline.SortBy("createdAt", pipeline.Descending),
		pipeline.Keep("title", "description", "videoFile", "thumbnail", "views",
			"isPublished", "createdAt", "likesCount"),
	).Build()
}

// ChannelSubscribers lists the subscribers of channel, newest first. Each
// subscriber carries its own subscriber count and whether channel follows it
// back.
func ChannelSubscribers(channel ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Subscriptions).Add(
		pipeline.Match(pipeline.IDEq("channel", channel)),
		pipeline.Join{
			From:         store.Users,
			LocalField:   "subscriber",
			ForeignField: "_id",
			As:           "subscriber",
			Pipeline: []pipeline.Stage{
				pipeline.Join{From: store.Subscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribedToSubscriber"},
				pipeline.Derive("subscribersCount", pipeline.Count("subscribedToSubscriber")),
				pipeline.Derive("subscribedToSubscriber", pipeline.ContainsID("subscribedToSubscriber.subscriber", channel)),
				pipeline.Keep("username", "fullName", "avatar", "subscribersCount", "subscribedToSubscriber"),
			},
		},
		pipeline.Unwind{Path: "subscriber"},
		pipeline.SortBy("createdAt", pipeline.Descending),
		pipeline.Keep("subscriber"),
	).Build()
}

// SubscribedChannels lists the channels subscriber follows, each with its
// latest published video.
func SubscribedChannels(subscriber ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Subscriptions).Add(
		pipeline.Match(pipeline.IDEq("subscriber", subscriber)),
		pipeline.Join{
			From:         store.Users,
			LocalField:   "channel",
			ForeignField: "_id",
			As:           "subscribedChannel",
			Pipeline: []pipeline.Stage{
				pipeline.Join{
					From:         store.Videos,
					LocalField:   "_id",
					ForeignField: "owner",
					As:           "videos",
					Pipeline: []pipeline.Stage{
						pipeline.Match(pipeline.Eq("isPublished", true)),
						pipeline.SortBy("createdAt", pipeline.Ascending),
					},
				},
				pipeline.Derive("latestVideo", pipeline.Last("videos")),
				pipeline.Keep("username", "fullName", "avatar", "latestVideo"),
			},
		},
		pipeline.Unwind{Path: "subscribedChannel"},
		pipeline.SortBy("createdAt", pipeline.Descending),
		pipeline.Keep("subscribedChannel"),
	).Build()
}

// PlaylistDetail materializes a playlist with its published videos, their
// totals and the owner summary.
func PlaylistDetail(playlist ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Playlists).Add(
		pipeline.Match(pipeline.IDEq("_id", playlist)),
		pipeline.Join{
			From:         store.Videos,
			LocalField:   "videos",
			ForeignField: "_id",
			As:           "videos",
			Pipeline:     []pipeline.Stage{pipeline.Match(pipeline.Eq("isPublished", true))},
		},
		userAt("owner", "owner"),
		pipeline.Derive("totalVideos", pipeline.Count("videos")),
		pipeline.Derive("totalViews", pipeline.Sum("videos.views")),
		pipeline.Derive("owner", pipeline.First("owner")),
		pipeline.Keep("name", "description", "createdAt", "updatedAt",
			"totalVideos", "totalViews", "videos", "owner"),
	).Build()
}

// UserPlaylists lists the playlists of user, most recently updated first.
func UserPlaylists(user ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Playlists).Add(
		pipeline.Match(pipeline.IDEq("owner", user)),
		pipeline.Join{From: store.Videos, LocalField: "videos", ForeignField: "_id", As: "videos"},
		pipeline.Derive("totalVideos", pipeline.Count("videos")),
		pipeline.Derive("totalViews", pipeline.Sum("videos.views")),
		pipeline.SortBy("updatedAt", pipeline.Descending),
		pipeline.Keep("name", "description", "totalVideos", "totalViews", "updatedAt"),
	).Build()
}

// WatchHistory joins the videos user has viewed with their owners. The
// joined list is in store order; callers restore the history order.
func WatchHistory(user ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Users).Add(
		pipeline.Match(pipeline.IDEq("_id", user)),
		pipeline.Join{
			From:         store.Videos,
			LocalField:   "watchHistory",
			ForeignField: "_id",
			As:           "watchHistory",
			Pipeline: []pipeline.Stage{
				userAt("owner", "ownerDetails"),
				pipeline.Derive("ownerDetails", pipeline.First("ownerDetails")),
			},
		},
		pipeline.Keep("watchHistory"),
	).Build()
}

// VideoComments lists the comments of video, newest first, as seen by
// requester.
func VideoComments(video, requester ids.ID) (pipeline.Pipeline, error) {
	return pipeline.NewBuilder(store.Comments).Add(
		pipeline.Match(pipeline.IDEq("video", video)),
		userAt("owner", "owner"),
		likesOf(models.TargetComment, "likes"),
		pipeline.Derive("likesCount", pipeline.Count("likes")),
		pipeline.Derive("owner", pipeline.First("owner")),
		pipeline.Derive("isLiked", pipeline.ContainsID("likes.likedBy", requester)),
		pipeline.SortBy("createdAt", pipeline.Descending),
		pipeline.Keep("content", "createdAt", "owner", "likesCount", "isLiked"),
	).Build()
}
