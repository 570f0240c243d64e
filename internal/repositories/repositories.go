// Package repositories exposes per-entity data access on top of the document
// store.
package repositories

import (
	"time"

	"github.com/vidtube/backend/internal/store"
)

// Set groups every repository bound to one store.
type Set struct {
	Users         UserRepository
	Videos        VideoRepository
	Likes         LikeRepository
	Subscriptions SubscriptionRepository
	Playlists     PlaylistRepository
	Tweets        TweetRepository
	Comments      CommentRepository
}

// New binds every repository to s.
func New(s store.Store) Set {
	return Set{
		Users:         NewDocumentUserRepository(s),
		Videos:        NewDocumentVideoRepository(s),
		Likes:         NewDocumentLikeRepository(s),
		Subscriptions: NewDocumentSubscriptionRepository(s),
		Playlists:     NewDocumentPlaylistRepository(s),
		Tweets:        NewDocumentTweetRepository(s),
		Comments:      NewDocumentCommentRepository(s),
	}
}

func now() time.Time { return time.Now().UTC() }
