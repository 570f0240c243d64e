package models

import (
	"time"

	"github.com/vidtube/backend/internal/ids"
)

// Media references an asset held by the media store.
type Media struct {
	URL       string `bson:"url" json:"url"`
	StorageID string `bson:"storageId,omitempty" json:"storageId,omitempty"`
}

// User represents an account and its channel.
type User struct {
	ID           ids.ID    `bson:"_id" json:"_id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	FullName     string    `bson:"fullName" json:"fullName"`
	Avatar       Media     `bson:"avatar" json:"avatar"`
	CoverImage   Media     `bson:"coverImage" json:"coverImage"`
	WatchHistory []ids.ID  `bson:"watchHistory" json:"watchHistory"`
	PasswordHash string    `bson:"password" json:"-"`
	RefreshToken string    `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Video is an uploaded video and its metadata.
type Video struct {
	ID          ids.ID    `bson:"_id" json:"_id"`
	Owner       ids.ID    `bson:"owner" json:"owner"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	VideoFile   Media     `bson:"videoFile" json:"videoFile"`
	Thumbnail   Media     `bson:"thumbnail" json:"thumbnail"`
	Duration    float64   `bson:"duration" json:"duration"`
	Views       int64     `bson:"views" json:"views"`
	IsPublished bool      `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Subscription records that Subscriber follows Channel.
type Subscription struct {
	ID         ids.ID    `bson:"_id" json:"_id"`
	Subscriber ids.ID    `bson:"subscriber" json:"subscriber"`
	Channel    ids.ID    `bson:"channel" json:"channel"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Playlist is an ordered set of videos curated by its owner.
type Playlist struct {
	ID          ids.ID    `bson:"_id" json:"_id"`
	Owner       ids.ID    `bson:"owner" json:"owner"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Videos      []ids.ID  `bson:"videos" json:"videos"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Tweet is a short text post on a channel.
type Tweet struct {
	ID        ids.ID    `bson:"_id" json:"_id"`
	Owner     ids.ID    `bson:"owner" json:"owner"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Comment is a remark left on a video.
type Comment struct {
	ID        ids.ID    `bson:"_id" json:"_id"`
	Owner     ids.ID    `bson:"owner" json:"owner"`
	Video     ids.ID    `bson:"video" json:"video"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AuthTokens groups the bearer credentials issued at login or refresh.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
