package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
)

// runContract exercises the behaviour every Store implementation shares.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("insert and find by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		video := models.Video{
			ID: ids.New(), Owner: ids.New(), Title: "Intro", Views: 3,
			VideoFile: models.Media{URL: "https://cdn/v.mp4", StorageID: "v"},
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
		if err := s.Insert(ctx, Videos.Collection, video); err != nil {
			t.Fatalf("insert: %v", err)
		}

		var got models.Video
		if err := s.FindByID(ctx, Videos.Collection, video.ID, &got); err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Title != "Intro" || got.Views != 3 || got.VideoFile.StorageID != "v" || !ids.Equal(got.Owner, video.Owner) {
			t.Fatalf("unexpected video %+v", got)
		}
		if !got.CreatedAt.Equal(video.CreatedAt) {
			t.Fatalf("expected createdAt %v, got %v", video.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("find missing", func(t *testing.T) {
		s := newStore(t)
		var got models.Video
		if err := s.FindByID(context.Background(), Videos.Collection, ids.New(), &got); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := s.FindOne(context.Background(), Users.Collection, pipeline.Eq("username", "ghost"), &got); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unique like per target variant", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, target := ids.New(), ids.New()
		now := time.Now()

		if err := s.Insert(ctx, Likes.Collection, models.NewLike(user, models.VideoTarget(target), now)); err != nil {
			t.Fatalf("first like: %v", err)
		}
		err := s.Insert(ctx, Likes.Collection, models.NewLike(user, models.VideoTarget(target), now))
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if err := s.Insert(ctx, Likes.Collection, models.NewLike(user, models.CommentTarget(target), now)); err != nil {
			t.Fatalf("other variant should be allowed: %v", err)
		}
	})

	t.Run("update operators", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		v1, v2 := ids.New(), ids.New()
		user := models.User{
			ID: ids.New(), Username: "ada", Email: "ada@example.com",
			WatchHistory: []ids.ID{}, RefreshToken: "token",
		}
		if err := s.Insert(ctx, Users.Collection, user); err != nil {
			t.Fatalf("insert: %v", err)
		}

		updates := []Update{
			{AddToSet: map[string]any{"watchHistory": v1}},
			{AddToSet: map[string]any{"watchHistory": v2}},
			{AddToSet: map[string]any{"watchHistory": v1}},
			{Set: map[string]any{"fullName": "Ada L", "avatar": models.Media{URL: "a.png", StorageID: "a"}}},
			{Unset: []string{"refreshToken"}},
		}
		for _, u := range updates {
			if err := s.UpdateByID(ctx, Users.Collection, user.ID, u); err != nil {
				t.Fatalf("update: %v", err)
			}
		}

		var got models.User
		if err := s.FindByID(ctx, Users.Collection, user.ID, &got); err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got.WatchHistory) != 2 || !ids.Equal(got.WatchHistory[0], v1) || !ids.Equal(got.WatchHistory[1], v2) {
			t.Fatalf("unexpected watch history %v", got.WatchHistory)
		}
		if got.FullName != "Ada L" || got.Avatar.URL != "a.png" || got.RefreshToken != "" {
			t.Fatalf("unexpected user %+v", got)
		}

		if err := s.UpdateByID(ctx, Users.Collection, user.ID, Update{Pull: map[string]any{"watchHistory": v1}}); err != nil {
			t.Fatalf("pull: %v", err)
		}
		got = models.User{}
		if err := s.FindByID(ctx, Users.Collection, user.ID, &got); err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got.WatchHistory) != 1 || !ids.Equal(got.WatchHistory[0], v2) {
			t.Fatalf("unexpected watch history after pull %v", got.WatchHistory)
		}

		if err := s.UpdateByID(ctx, Users.Collection, ids.New(), Update{Set: map[string]any{"fullName": "x"}}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("increment", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		video := models.Video{ID: ids.New(), Owner: ids.New()}
		if err := s.Insert(ctx, Videos.Collection, video); err != nil {
			t.Fatalf("insert: %v", err)
		}
		for i := 0; i < 3; i++ {
			if err := s.UpdateByID(ctx, Videos.Collection, video.ID, Update{Inc: map[string]int64{"views": 1}}); err != nil {
				t.Fatalf("inc: %v", err)
			}
		}
		var got models.Video
		if err := s.FindByID(ctx, Videos.Collection, video.ID, &got); err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Views != 3 {
			t.Fatalf("expected 3 views, got %d", got.Views)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		video := ids.New()
		for i := 0; i < 3; i++ {
			c := models.Comment{ID: ids.New(), Owner: ids.New(), Video: video, Content: "nice"}
			if err := s.Insert(ctx, Comments.Collection, c); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		other := models.Comment{ID: ids.New(), Owner: ids.New(), Video: ids.New(), Content: "meh"}
		if err := s.Insert(ctx, Comments.Collection, other); err != nil {
			t.Fatalf("insert: %v", err)
		}

		n, err := s.DeleteMany(ctx, Comments.Collection, pipeline.IDEq("video", video))
		if err != nil || n != 3 {
			t.Fatalf("expected 3 deletions, got %d, %v", n, err)
		}
		if err := s.DeleteByID(ctx, Comments.Collection, other.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.DeleteByID(ctx, Comments.Collection, other.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("run pipeline", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		video := models.Video{ID: ids.New(), Owner: ids.New(), Title: "clip", IsPublished: true}
		if err := s.Insert(ctx, Videos.Collection, video); err != nil {
			t.Fatalf("insert: %v", err)
		}
		for i := 0; i < 2; i++ {
			if err := s.Insert(ctx, Likes.Collection, models.NewLike(ids.New(), models.VideoTarget(video.ID), time.Now())); err != nil {
				t.Fatalf("like: %v", err)
			}
		}

		p, err := pipeline.New(Videos,
			pipeline.Match(pipeline.IDEq("_id", video.ID)),
			pipeline.Join{From: Likes, LocalField: "_id", ForeignField: "target", As: "likes"},
			pipeline.Derive("likesCount", pipeline.Count("likes")),
			pipeline.Keep("title", "likesCount"),
		)
		if err != nil {
			t.Fatalf("build: %v", err)
		}

		type row struct {
			Title      string `bson:"title"`
			LikesCount int64  `bson:"likesCount"`
		}
		rows, err := Run[row](ctx, s, p)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(rows) != 1 || rows[0].LikesCount != 2 || rows[0].Title != "clip" {
			t.Fatalf("unexpected rows %+v", rows)
		}
	})
}
