package models

import (
	"time"

	"github.com/vidtube/backend/internal/ids"
)

// The types below are decoded from view pipelines.

// OwnerSummary is the display slice of a user attached to content.
type OwnerSummary struct {
	ID       ids.ID `bson:"_id" json:"_id"`
	Username string `bson:"username" json:"username"`
	FullName string `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Avatar   Media  `bson:"avatar" json:"avatar"`
}

// VideoCard is a video with its owner's summary, as shown in lists.
type VideoCard struct {
	Video        `bson:",inline"`
	OwnerDetails *OwnerSummary `bson:"ownerDetails,omitempty" json:"ownerDetails,omitempty"`
}

// ChannelSummary is a video owner enriched with subscription data.
type ChannelSummary struct {
	ID               ids.ID `bson:"_id" json:"_id"`
	Username         string `bson:"username" json:"username"`
	FullName         string `bson:"fullName" json:"fullName"`
	Avatar           Media  `bson:"avatar" json:"avatar"`
	SubscribersCount int64  `bson:"subscribersCount" json:"subscribersCount"`
	IsSubscribed     bool   `bson:"isSubscribed" json:"isSubscribed"`
}

// VideoDetail is a single video as seen by a requester.
type VideoDetail struct {
	ID          ids.ID         `bson:"_id" json:"_id"`
	Title       string         `bson:"title" json:"title"`
	Description string         `bson:"description" json:"description"`
	VideoFile   Media          `bson:"videoFile" json:"videoFile"`
	Thumbnail   Media          `bson:"thumbnail" json:"thumbnail"`
	Duration    float64        `bson:"duration" json:"duration"`
	Views       int64          `bson:"views" json:"views"`
	IsPublished bool           `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	Owner       ChannelSummary `bson:"owner" json:"owner"`
	LikesCount  int64          `bson:"likesCount" json:"likesCount"`
	IsLiked     bool           `bson:"isLiked" json:"isLiked"`
}

// ChannelProfile is a user's public channel page.
type ChannelProfile struct {
	ID                        ids.ID `bson:"_id" json:"_id"`
	Username                  string `bson:"username" json:"username"`
	FullName                  string `bson:"fullName" json:"fullName"`
	Email                     string `bson:"email" json:"email"`
	Avatar                    Media  `bson:"avatar" json:"avatar"`
	CoverImage                Media  `bson:"coverImage" json:"coverImage"`
	SubscribersCount          int64  `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `bson:"isSubscribed" json:"isSubscribed"`
}

// ChannelStats are the dashboard totals of a channel.
type ChannelStats struct {
	TotalSubscribers int64 `bson:"totalSubscribers" json:"totalSubscribers"`
	TotalLikes       int64 `bson:"totalLikes" json:"totalLikes"`
	TotalViews       int64 `bson:"totalViews" json:"totalViews"`
	TotalVideos      int64 `bson:"totalVideos" json:"totalVideos"`
}

// ChannelVideo is a row of the owner's dashboard video list.
type ChannelVideo struct {
	ID          ids.ID    `bson:"_id" json:"_id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	VideoFile   Media     `bson:"videoFile" json:"videoFile"`
	Thumbnail   Media     `bson:"thumbnail" json:"thumbnail"`
	Views       int64     `bson:"views" json:"views"`
	IsPublished bool      `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	LikesCount  int64     `bson:"likesCount" json:"likesCount"`
}

// LikedVideo is a like row joined with the liked video.
type LikedVideo struct {
	ID         ids.ID    `bson:"_id" json:"_id"`
	LikedAt    time.Time `bson:"createdAt" json:"likedAt"`
	LikedVideo VideoCard `bson:"likedVideo" json:"likedVideo"`
}

// TweetView is a tweet with its author and like data.
type TweetView struct {
	ID           ids.ID       `bson:"_id" json:"_id"`
	Content      string       `bson:"content" json:"content"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
	OwnerDetails OwnerSummary `bson:"ownerDetails" json:"ownerDetails"`
	LikesCount   int64        `bson:"likesCount" json:"likesCount"`
	IsLiked      bool         `bson:"isLiked" json:"isLiked"`
}

// CommentView is a comment with its author and like data.
type CommentView struct {
	ID         ids.ID       `bson:"_id" json:"_id"`
	Content    string       `bson:"content" json:"content"`
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt"`
	Owner      OwnerSummary `bson:"owner" json:"owner"`
	LikesCount int64        `bson:"likesCount" json:"likesCount"`
	IsLiked    bool         `bson:"isLiked" json:"isLiked"`
}

// SubscriberProfile is a subscriber as listed on a channel.
type SubscriberProfile struct {
	ID                     ids.ID `bson:"_id" json:"_id"`
	Username               string `bson:"username" json:"username"`
	FullName               string `bson:"fullName" json:"fullName"`
	Avatar                 Media  `bson:"avatar" json:"avatar"`
	SubscribersCount       int64  `bson:"subscribersCount" json:"subscribersCount"`
	SubscribedToSubscriber bool   `bson:"subscribedToSubscriber" json:"subscribedToSubscriber"`
}

// ChannelSubscriber is a subscription row joined with the subscriber.
type ChannelSubscriber struct {
	ID         ids.ID            `bson:"_id" json:"_id"`
	Subscriber SubscriberProfile `bson:"subscriber" json:"subscriber"`
}

// ChannelCard is a subscribed channel and its most recent upload.
type ChannelCard struct {
	ID          ids.ID `bson:"_id" json:"_id"`
	Username    string `bson:"username" json:"username"`
	FullName    string `bson:"fullName" json:"fullName"`
	Avatar      Media  `bson:"avatar" json:"avatar"`
	LatestVideo *Video `bson:"latestVideo,omitempty" json:"latestVideo,omitempty"`
}

// SubscribedChannel is a subscription row joined with the channel.
type SubscribedChannel struct {
	ID                ids.ID      `bson:"_id" json:"_id"`
	SubscribedChannel ChannelCard `bson:"subscribedChannel" json:"subscribedChannel"`
}

// PlaylistDetail is a playlist with its published videos and owner.
type PlaylistDetail struct {
	ID          ids.ID       `bson:"_id" json:"_id"`
	Name        string       `bson:"name" json:"name"`
	Description string       `bson:"description" json:"description"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
	TotalVideos int64        `bson:"totalVideos" json:"totalVideos"`
	TotalViews  int64        `bson:"totalViews" json:"totalViews"`
	Videos      []Video      `bson:"videos" json:"videos"`
	Owner       OwnerSummary `bson:"owner" json:"owner"`
}

// PlaylistSummary is a playlist row in a user's playlist list.
type PlaylistSummary struct {
	ID          ids.ID    `bson:"_id" json:"_id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	TotalVideos int64     `bson:"totalVideos" json:"totalVideos"`
	TotalViews  int64     `bson:"totalViews" json:"totalViews"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WatchHistory holds the videos a user has viewed, joined with their owners.
type WatchHistory struct {
	ID           ids.ID      `bson:"_id" json:"_id"`
	WatchHistory []VideoCard `bson:"watchHistory" json:"watchHistory"`
}
