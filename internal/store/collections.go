package store

import "github.com/vidtube/backend/internal/pipeline"

// Collection schemas. Every pipeline is rooted at one of these.
var (
	Users = pipeline.Schema{Collection: "users", Fields: []string{
		"username", "email", "fullName", "avatar", "coverImage", "watchHistory",
		"password", "refreshToken", "createdAt", "updatedAt",
	}}
	Videos = pipeline.Schema{Collection: "videos", Fields: []string{
		"owner", "title", "description", "videoFile", "thumbnail", "duration",
		"views", "isPublished", "createdAt", "updatedAt",
	}}
	Likes = pipeline.Schema{Collection: "likes", Fields: []string{
		"likedBy", "targetType", "target", "createdAt",
	}}
	Subscriptions = pipeline.Schema{Collection: "subscriptions", Fields: []string{
		"subscriber", "channel", "createdAt",
	}}
	Playlists = pipeline.Schema{Collection: "playlists", Fields: []string{
		"owner", "name", "description", "videos", "createdAt", "updatedAt",
	}}
	Tweets = pipeline.Schema{Collection: "tweets", Fields: []string{
		"owner", "content", "createdAt", "updatedAt",
	}}
	Comments = pipeline.Schema{Collection: "comments", Fields: []string{
		"owner", "video", "content", "createdAt", "updatedAt",
	}}
)

// Index declares an index on a collection.
type Index struct {
	Name   string
	Keys   []string
	Unique bool
	Text   bool
}

// Indexes lists the indexes each collection carries. Unique indexes back the
// one-record-per-pair rules for likes and subscriptions.
var Indexes = map[string][]Index{
	Users.Collection: {
		{Name: "username_unique", Keys: []string{"username"}, Unique: true},
		{Name: "email_unique", Keys: []string{"email"}, Unique: true},
	},
	Videos.Collection: {
		{Name: "owner_createdAt", Keys: []string{"owner", "createdAt"}},
		{Name: "title_description_text", Keys: []string{"title", "description"}, Text: true},
	},
	Likes.Collection: {
		{Name: "likedBy_target_unique", Keys: []string{"likedBy", "targetType", "target"}, Unique: true},
		{Name: "target", Keys: []string{"target", "targetType"}},
	},
	Subscriptions.Collection: {
		{Name: "subscriber_channel_unique", Keys: []string{"subscriber", "channel"}, Unique: true},
		{Name: "channel", Keys: []string{"channel"}},
	},
	Playlists.Collection: {
		{Name: "owner", Keys: []string{"owner"}},
	},
	Tweets.Collection: {
		{Name: "owner_createdAt", Keys: []string{"owner", "createdAt"}},
	},
	Comments.Collection: {
		{Name: "video_createdAt", Keys: []string{"video", "createdAt"}},
	},
}
