package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/store"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *store.MemoryStore
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, ctx: context.Background(), store: store.NewMemoryStore(), clock: base}
}

func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fixture) insert(collection string, doc any) {
	f.t.Helper()
	if err := f.store.Insert(f.ctx, collection, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", collection, err)
	}
}

func (f *fixture) user(name string) models.User {
	now := f.tick()
	u := models.User{
		ID:           ids.New(),
		Username:     name,
		Email:        name + "@example.com",
		FullName:     "User " + name,
		Avatar:       models.Media{URL: "https://cdn.example.com/" + name + ".png"},
		WatchHistory: []ids.ID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(store.Users.Collection, u)
	return u
}

func (f *fixture) video(owner ids.ID, title string, views int64, published bool) models.Video {
	now := f.tick()
	v := models.Video{
		ID:          ids.New(),
		Owner:       owner,
		Title:       title,
		Description: "about " + title,
		VideoFile:   models.Media{URL: "https://cdn.example.com/" + title + ".mp4"},
		Thumbnail:   models.Media{URL: "https://cdn.example.com/" + title + ".jpg"},
		Duration:    12.5,
		Views:       views,
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(store.Videos.Collection, v)
	return v
}

func (f *fixture) like(user ids.ID, target models.LikeTarget) {
	f.insert(store.Likes.Collection, models.NewLike(user, target, f.tick()))
}

func (f *fixture) subscribe(subscriber, channel ids.ID) {
	f.insert(store.Subscriptions.Collection, models.Subscription{
		ID: ids.New(), Subscriber: subscriber, Channel: channel, CreatedAt: f.tick(),
	})
}

func run[R any](f *fixture, p pipeline.Pipeline, err error) []R {
	f.t.Helper()
	if err != nil {
		f.t.Fatalf("build pipeline: %v", err)
	}
	rows, err := store.Run[R](f.ctx, f.store, p)
	if err != nil {
		f.t.Fatalf("run pipeline: %v", err)
	}
	return rows
}

func TestEveryViewBuilds(t *testing.T) {
	id, other := ids.New(), ids.New()
	cases := map[string]func() (pipeline.Pipeline, error){
		"channel video totals":     func() (pipeline.Pipeline, error) { return ChannelVideoTotals(id) },
		"channel subscriber total": func() (pipeline.Pipeline, error) { return ChannelSubscriberTotal(id) },
		"channel profile":          func() (pipeline.Pipeline, error) { return ChannelProfile("alice", other) },
		"video detail":             func() (pipeline.Pipeline, error) { return VideoDetail(id, other) },
		"video listing":            func() (pipeline.Pipeline, error) { return VideoListing(ListingOptions{}) },
		"video search": func() (pipeline.Pipeline, error) {
			return VideoListing(ListingOptions{Query: "go", Owner: id, SortBy: "views", Ascending: true})
		},
		"liked videos":        func() (pipeline.Pipeline, error) { return LikedVideos(id) },
		"user tweets":         func() (pipeline.Pipeline, error) { return UserTweets(id, other) },
		"channel videos":      func() (pipeline.Pipeline, error) { return ChannelVideos(id) },
		"channel subscribers": func() (pipeline.Pipeline, error) { return ChannelSubscribers(id) },
		"subscribed channels": func() (pipeline.Pipeline, error) { return SubscribedChannels(id) },
		"playlist detail":     func() (pipeline.Pipeline, error) { return PlaylistDetail(id) },
		"user playlists":      func() (pipeline.Pipeline, error) { return UserPlaylists(id) },
		"watch history":       func() (pipeline.Pipeline, error) { return WatchHistory(id) },
		"video comments":      func() (pipeline.Pipeline, error) { return VideoComments(id, other) },
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := build()
			if err != nil {
				t.Fatalf("build returned error: %v", err)
			}
			if len(p.BSON()) != len(p.Stages) {
				t.Fatalf("expected one compiled stage per stage, got %d for %d", len(p.BSON()), len(p.Stages))
			}
		})
	}
}

func TestVideoListingRejectsUnsupportedSort(t *testing.T) {
	for _, field := range []string{"password", "owner", "nope"} {
		if _, err := VideoListing(ListingOptions{SortBy: field}); !errors.Is(err, ErrUnsupportedSort) {
			t.Fatalf("sortBy %q: expected ErrUnsupportedSort, got %v", field, err)
		}
	}
}

func TestVideoDetailLikesAndSubscription(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	video := f.video(owner.ID, "intro", 4, true)

	likers := []models.User{f.user("a"), f.user("b"), f.user("c")}
	for _, u := range likers {
		f.like(u.ID, models.VideoTarget(video.ID))
	}
	// A comment like on a different entity must not be counted.
	f.like(viewer.ID, models.CommentTarget(video.ID))
	f.subscribe(viewer.ID, owner.ID)
	f.subscribe(likers[0].ID, owner.ID)

	cases := []struct {
		name         string
		requester    ids.ID
		isLiked      bool
		isSubscribed bool
	}{
		{name: "liker", requester: likers[1].ID, isLiked: true},
		{name: "subscriber", requester: viewer.ID, isSubscribed: true},
		{name: "liker and subscriber", requester: likers[0].ID, isLiked: true, isSubscribed: true},
		{name: "anonymous", requester: ids.Nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := VideoDetail(video.ID, tc.requester)
			rows := run[models.VideoDetail](f, p, err)
			if len(rows) != 1 {
				t.Fatalf("expected one row, got %d", len(rows))
			}
			got := rows[0]
			if got.LikesCount != int64(len(likers)) {
				t.Fatalf("expected %d likes, got %d", len(likers), got.LikesCount)
			}
			if got.IsLiked != tc.isLiked {
				t.Fatalf("expected isLiked=%v, got %v", tc.isLiked, got.IsLiked)
			}
			if !ids.Equal(got.Owner.ID, owner.ID) || got.Owner.Username != "owner" {
				t.Fatalf("unexpected owner: %+v", got.Owner)
			}
			if got.Owner.SubscribersCount != 2 {
				t.Fatalf("expected 2 subscribers, got %d", got.Owner.SubscribersCount)
			}
			if got.Owner.IsSubscribed != tc.isSubscribed {
				t.Fatalf("expected isSubscribed=%v, got %v", tc.isSubscribed, got.Owner.IsSubscribed)
			}
		})
	}
}

func TestVideoDetailMissingVideoYieldsNoRows(t *testing.T) {
	f := newFixture(t)
	p, err := VideoDetail(ids.New(), ids.New())
	if rows := run[models.VideoDetail](f, p, err); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestChannelTotals(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	fan := f.user("fan")
	other := f.user("other")

	v1 := f.video(owner.ID, "one", 10, true)
	v2 := f.video(owner.ID, "two", 5, false)
	f.video(other.ID, "elsewhere", 100, true)
	f.like(fan.ID, models.VideoTarget(v1.ID))
	f.like(other.ID, models.VideoTarget(v1.ID))
	f.like(fan.ID, models.VideoTarget(v2.ID))
	f.like(fan.ID, models.TweetTarget(v2.ID))
	f.subscribe(fan.ID, owner.ID)
	f.subscribe(other.ID, owner.ID)
	f.subscribe(owner.ID, other.ID)

	p, err := ChannelVideoTotals(owner.ID)
	totals := run[models.ChannelStats](f, p, err)
	if len(totals) != 1 {
		t.Fatalf("expected one totals row, got %d", len(totals))
	}
	if totals[0].TotalVideos != 2 || totals[0].TotalViews != 15 || totals[0].TotalLikes != 3 {
		t.Fatalf("unexpected totals: %+v", totals[0])
	}

	p, err = ChannelSubscriberTotal(owner.ID)
	subs := run[models.ChannelStats](f, p, err)
	if len(subs) != 1 || subs[0].TotalSubscribers != 2 {
		t.Fatalf("unexpected subscriber totals: %+v", subs)
	}

	p, err = ChannelVideoTotals(fan.ID)
	if rows := run[models.ChannelStats](f, p, err); len(rows) != 0 {
		t.Fatalf("expected no totals row for a channel without videos, got %+v", rows)
	}
}

func TestChannelProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	carol := f.user("carol")
	f.subscribe(bob.ID, alice.ID)
	f.subscribe(carol.ID, alice.ID)
	f.subscribe(alice.ID, bob.ID)

	p, err := ChannelProfile("  Alice ", bob.ID)
	rows := run[models.ChannelProfile](f, p, err)
	if len(rows) != 1 {
		t.Fatalf("expected one profile, got %d", len(rows))
	}
	got := rows[0]
	if got.SubscribersCount != 2 || got.ChannelsSubscribedToCount != 1 || !got.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", got)
	}

	p, err = ChannelProfile("alice", alice.ID)
	if rows := run[models.ChannelProfile](f, p, err); rows[0].IsSubscribed {
		t.Fatal("a channel is not subscribed to itself")
	}

	p, err = ChannelProfile("nobody", bob.ID)
	if rows := run[models.ChannelProfile](f, p, err); len(rows) != 0 {
		t.Fatalf("expected no rows for unknown username, got %d", len(rows))
	}
}

func TestVideoListing(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	f.video(alice.ID, "golang basics", 30, true)
	f.video(alice.ID, "draft", 99, false)
	f.video(bob.ID, "cooking pasta", 10, true)
	f.video(bob.ID, "advanced golang", 50, true)

	titles := func(cards []models.VideoCard) []string {
		out := make([]string, 0, len(cards))
		for _, c := range cards {
			out = append(out, c.Title)
		}
		return out
	}

	cases := []struct {
		name string
		opts ListingOptions
		want []string
	}{
		{name: "newest first", opts: ListingOptions{}, want: []string{"advanced golang", "cooking pasta", "golang basics"}},
		{name: "by views ascending", opts: ListingOptions{SortBy: "views", Ascending: true}, want: []string{"cooking pasta", "golang basics", "advanced golang"}},
		{name: "owner", opts: ListingOptions{Owner: bob.ID}, want: []string{"advanced golang", "cooking pasta"}},
		{name: "search", opts: ListingOptions{Query: "GoLang"}, want: []string{"advanced golang", "golang basics"}},
		{name: "search and owner", opts: ListingOptions{Query: "golang", Owner: alice.ID}, want: []string{"golang basics"}},
		{name: "search without hits", opts: ListingOptions{Query: "rust"}, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := VideoListing(tc.opts)
			cards := run[models.VideoCard](f, p, err)
			got := titles(cards)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
			for _, c := range cards {
				if c.OwnerDetails == nil || c.OwnerDetails.Username == "" {
					t.Fatalf("expected owner details on %q", c.Title)
				}
				if c.OwnerDetails.FullName != "" {
					t.Fatalf("expected owner summary without fullName on %q, got %q", c.Title, c.OwnerDetails.FullName)
				}
			}
		})
	}
}

func TestLikedVideos(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	fan := f.user("fan")
	first := f.video(owner.ID, "first", 1, true)
	second := f.video(owner.ID, "second", 1, true)
	f.like(fan.ID, models.VideoTarget(first.ID))
	f.like(fan.ID, models.TweetTarget(ids.New()))
	f.like(fan.ID, models.VideoTarget(second.ID))
	f.like(owner.ID, models.VideoTarget(first.ID))

	p, err := LikedVideos(fan.ID)
	rows := run[models.LikedVideo](f, p, err)
	if len(rows) != 2 {
		t.Fatalf("expected two liked videos, got %d", len(rows))
	}
	if rows[0].LikedVideo.Title != "second" || rows[1].LikedVideo.Title != "first" {
		t.Fatalf("expected most recent like first, got %q then %q", rows[0].LikedVideo.Title, rows[1].LikedVideo.Title)
	}
	if rows[0].LikedVideo.OwnerDetails == nil || rows[0].LikedVideo.OwnerDetails.Username != "owner" {
		t.Fatalf("expected owner details, got %+v", rows[0].LikedVideo.OwnerDetails)
	}
}

func TestUserTweetsAndComments(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	reader := f.user("reader")
	video := f.video(author.ID, "clip", 0, true)

	older := models.Tweet{ID: ids.New(), Owner: author.ID, Content: "older", CreatedAt: f.tick()}
	newer := models.Tweet{ID: ids.New(), Owner: author.ID, Content: "newer", CreatedAt: f.tick()}
	f.insert(store.Tweets.Collection, older)
	f.insert(store.Tweets.Collection, newer)
	f.like(reader.ID, models.TweetTarget(older.ID))
	f.like(author.ID, models.TweetTarget(older.ID))

	p, err := UserTweets(author.ID, reader.ID)
	tweets := run[models.TweetView](f, p, err)
	if len(tweets) != 2 || tweets[0].Content != "newer" {
		t.Fatalf("unexpected tweets: %+v", tweets)
	}
	if tweets[1].LikesCount != 2 || !tweets[1].IsLiked || tweets[0].IsLiked {
		t.Fatalf("unexpected like data: %+v", tweets)
	}
	if tweets[0].OwnerDetails.Username != "author" {
		t.Fatalf("unexpected owner: %+v", tweets[0].OwnerDetails)
	}

	comment := models.Comment{ID: ids.New(), Owner: reader.ID, Video: video.ID, Content: "nice", CreatedAt: f.tick()}
	f.insert(store.Comments.Collection, comment)
	f.like(author.ID, models.CommentTarget(comment.ID))

	p, err = VideoComments(video.ID, author.ID)
	comments := run[models.CommentView](f, p, err)
	if len(comments) != 1 {
		t.Fatalf("expected one comment, got %d", len(comments))
	}
	if comments[0].LikesCount != 1 || !comments[0].IsLiked || comments[0].Owner.Username != "reader" {
		t.Fatalf("unexpected comment view: %+v", comments[0])
	}
}

func TestChannelSubscribersAndSubscribedChannels(t *testing.T) {
	f := newFixture(t)
	channel := f.user("channel")
	mutual := f.user("mutual")
	fan := f.user("fan")
	f.subscribe(mutual.ID, channel.ID)
	f.subscribe(fan.ID, channel.ID)
	f.subscribe(channel.ID, mutual.ID)

	p, err := ChannelSubscribers(channel.ID)
	subs := run[models.ChannelSubscriber](f, p, err)
	if len(subs) != 2 {
		t.Fatalf("expected two subscribers, got %d", len(subs))
	}
	if subs[0].Subscriber.Username != "fan" || subs[0].Subscriber.SubscribedToSubscriber {
		t.Fatalf("unexpected newest subscriber: %+v", subs[0].Subscriber)
	}
	if subs[1].Subscriber.Username != "mutual" || !subs[1].Subscriber.SubscribedToSubscriber || subs[1].Subscriber.SubscribersCount != 1 {
		t.Fatalf("unexpected mutual subscriber: %+v", subs[1].Subscriber)
	}

	f.video(channel.ID, "old", 0, true)
	f.video(channel.ID, "latest", 0, true)
	f.video(channel.ID, "unpublished", 0, false)

	p, err = SubscribedChannels(mutual.ID)
	channels := run[models.SubscribedChannel](f, p, err)
	if len(channels) != 1 {
		t.Fatalf("expected one channel, got %d", len(channels))
	}
	got := channels[0].SubscribedChannel
	if got.Username != "channel" || got.LatestVideo == nil || got.LatestVideo.Title != "latest" {
		t.Fatalf("unexpected channel card: %+v", got)
	}

	p, err = SubscribedChannels(channel.ID)
	channels = run[models.SubscribedChannel](f, p, err)
	if len(channels) != 1 || channels[0].SubscribedChannel.LatestVideo != nil {
		t.Fatalf("expected no latest video for a channel without uploads, got %+v", channels)
	}
}

func TestPlaylistViews(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	a := f.video(owner.ID, "a", 3, true)
	b := f.video(owner.ID, "b", 4, true)
	hidden := f.video(owner.ID, "hidden", 100, false)
	playlist := models.Playlist{
		ID: ids.New(), Owner: owner.ID, Name: "mix", Description: "best of",
		Videos: []ids.ID{a.ID, hidden.ID, b.ID}, CreatedAt: f.tick(), UpdatedAt: f.tick(),
	}
	f.insert(store.Playlists.Collection, playlist)

	p, err := PlaylistDetail(playlist.ID)
	rows := run[models.PlaylistDetail](f, p, err)
	if len(rows) != 1 {
		t.Fatalf("expected one playlist, got %d", len(rows))
	}
	got := rows[0]
	if got.TotalVideos != 2 || got.TotalViews != 7 || len(got.Videos) != 2 {
		t.Fatalf("unexpected playlist totals: %+v", got)
	}
	if !ids.Equal(got.Owner.ID, owner.ID) {
		t.Fatalf("unexpected owner: %+v", got.Owner)
	}

	p, err = UserPlaylists(owner.ID)
	summaries := run[models.PlaylistSummary](f, p, err)
	if len(summaries) != 1 || summaries[0].TotalVideos != 3 || summaries[0].TotalViews != 107 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}

func TestWatchHistoryJoinsOwners(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	v1 := f.video(owner.ID, "one", 0, true)
	v2 := f.video(owner.ID, "two", 0, true)
	viewer := models.User{
		ID: ids.New(), Username: "viewer", Email: "viewer@example.com",
		WatchHistory: []ids.ID{v2.ID, v1.ID}, CreatedAt: f.tick(),
	}
	f.insert(store.Users.Collection, viewer)

	p, err := WatchHistory(viewer.ID)
	rows := run[models.WatchHistory](f, p, err)
	if len(rows) != 1 || len(rows[0].WatchHistory) != 2 {
		t.Fatalf("unexpected history: %+v", rows)
	}
	for _, card := range rows[0].WatchHistory {
		if card.OwnerDetails == nil || !ids.Equal(card.OwnerDetails.ID, owner.ID) {
			t.Fatalf("expected owner details on %q", card.Title)
		}
	}
}
