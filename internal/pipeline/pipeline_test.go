package pipeline

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vidtube/backend/internal/ids"
)

var (
	testUsers  = Schema{Collection: "users", Fields: []string{"username", "avatar", "createdAt"}}
	testVideos = Schema{Collection: "videos", Fields: []string{"owner", "title", "description", "views", "isPublished", "createdAt"}}
	testLikes  = Schema{Collection: "likes", Fields: []string{"likedBy", "targetType", "target", "createdAt"}}
)

type sliceSource map[string][]Document

func (s sliceSource) Documents(collection string) ([]Document, error) {
	return s[collection], nil
}

func TestBuildRejectsUnknownFieldInDerive(t *testing.T) {
	_, err := New(testVideos,
		Derive("likesCount", Count("likes")),
	)
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestBuildAcceptsDeriveAfterJoin(t *testing.T) {
	_, err := New(testVideos,
		Join{From: testLikes, LocalField: "_id", ForeignField: "target", As: "likes"},
		Derive("likesCount", Count("likes")),
		Derive("hasLikes", Cond(Equals(Field("likesCount"), Literal(0)), Literal(false), Literal(true))),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildValidation(t *testing.T) {
	id := ids.New()

	cases := []struct {
		name   string
		stages []Stage
		want   error
	}{
		{
			name:   "unwind without join",
			stages: []Stage{Unwind{Path: "owner"}},
			want:   ErrInvalidStage,
		},
		{
			name: "text search after another stage",
			stages: []Stage{
				Match(Eq("isPublished", true)),
				Match(TextSearch("cats", "title", "description")),
			},
			want: ErrInvalidStage,
		},
		{
			name: "sort on field dropped by project",
			stages: []Stage{
				Keep("title"),
				SortBy("views", Descending),
			},
			want: ErrUnknownField,
		},
		{
			name: "filter on unknown field",
			stages: []Stage{
				Match(IDEq("channel", id)),
			},
			want: ErrUnknownField,
		},
		{
			name: "join sub-pipeline validated against foreign schema",
			stages: []Stage{
				Join{From: testUsers, LocalField: "owner", ForeignField: "_id", As: "owner",
					Pipeline: []Stage{Keep("title")}},
			},
			want: ErrUnknownField,
		},
		{
			name: "group output replaces fields",
			stages: []Stage{
				Group{Accumulators: []Accumulator{SumOf("totalViews", Field("views"))}},
				SortBy("createdAt", Ascending),
			},
			want: ErrUnknownField,
		},
		{
			name:   "bad sort direction",
			stages: []Stage{Sort{Keys: []SortKey{{Field: "views"}}}},
			want:   ErrInvalidStage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(testVideos, tc.stages...)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCompileJoinWithSubPipeline(t *testing.T) {
	p, err := New(testVideos,
		Join{
			From: testUsers, LocalField: "owner", ForeignField: "_id", As: "ownerDetails",
			Pipeline: []Stage{Keep("username", "avatar.url")},
		},
		Unwind{Path: "ownerDetails"},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	compiled := p.BSON()
	if len(compiled) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(compiled))
	}

	lookup, ok := compiled[0][0].Value.(bson.D)
	if compiled[0][0].Key != "$lookup" || !ok {
		t.Fatalf("unexpected first stage %#v", compiled[0])
	}
	keys := map[string]any{}
	for _, e := range lookup {
		keys[e.Key] = e.Value
	}
	if keys["from"] != "users" || keys["as"] != "ownerDetails" {
		t.Fatalf("unexpected lookup %#v", lookup)
	}
	if _, ok := keys["pipeline"]; !ok {
		t.Fatal("expected nested pipeline in lookup")
	}
	if compiled[1][0].Key != "$unwind" || compiled[1][0].Value != "$ownerDetails" {
		t.Fatalf("unexpected unwind %#v", compiled[1])
	}
}

func TestCompileTextSearchFirst(t *testing.T) {
	p, err := New(testVideos, Match(TextSearch("go tutorial", "title", "description")))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	match := p.BSON()[0][0]
	if match.Key != "$match" {
		t.Fatalf("expected $match, got %s", match.Key)
	}
	text := match.Value.(bson.D)[0]
	if text.Key != "$text" {
		t.Fatalf("expected $text, got %s", text.Key)
	}
}

func fixture() (sliceSource, ids.ID, ids.ID, ids.ID) {
	alice, bob := ids.New(), ids.New()
	v1, v2 := ids.New(), ids.New()

	src := sliceSource{
		"users": {
			{"_id": alice, "username": "alice", "avatar": Document{"url": "a.png", "storageId": "a"}},
			{"_id": bob, "username": "bob", "avatar": Document{"url": "b.png", "storageId": "b"}},
		},
		"videos": {
			{"_id": v1, "owner": alice, "title": "Learning Go", "description": "channels", "views": int64(10), "isPublished": true, "createdAt": int64(1)},
			{"_id": v2, "owner": alice, "title": "Cooking", "description": "pasta night", "views": int64(5), "isPublished": false, "createdAt": int64(2)},
		},
		"likes": {
			{"_id": ids.New(), "likedBy": alice, "targetType": "video", "target": v1},
			{"_id": ids.New(), "likedBy": bob, "targetType": "video", "target": v1},
			{"_id": ids.New(), "likedBy": bob, "targetType": "comment", "target": v1},
		},
	}
	return src, alice, bob, v1
}

func TestEvaluateVideoWithLikes(t *testing.T) {
	src, alice, bob, v1 := fixture()

	p, err := New(testVideos,
		Match(IDEq("_id", v1)),
		Join{
			From: testLikes, LocalField: "_id", ForeignField: "target", As: "likes",
			Pipeline: []Stage{Match(Eq("targetType", "video"))},
		},
		Join{
			From: testUsers, LocalField: "owner", ForeignField: "_id", As: "owner",
			Pipeline: []Stage{Keep("username", "avatar.url")},
		},
		Derive("likesCount", Count("likes")),
		Derive("isLiked", ContainsID("likes.likedBy", bob)),
		Derive("owner", First("owner")),
		Keep("title", "likesCount", "isLiked", "owner"),
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	rows, err := p.Evaluate(src)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row["likesCount"] != int64(2) {
		t.Fatalf("expected 2 likes, got %v", row["likesCount"])
	}
	if row["isLiked"] != true {
		t.Fatalf("expected isLiked true")
	}
	owner := row["owner"].(Document)
	if owner["_id"] != alice || owner["username"] != "alice" {
		t.Fatalf("unexpected owner %#v", owner)
	}
	if avatar := owner["avatar"].(Document); avatar["url"] != "a.png" || avatar["storageId"] != nil {
		t.Fatalf("unexpected projected avatar %#v", avatar)
	}
	if _, ok := row["likes"]; ok {
		t.Fatal("likes should be projected away")
	}
}

func TestEvaluateUnwindVariants(t *testing.T) {
	src, _, _, _ := fixture()

	join := Join{From: testLikes, LocalField: "_id", ForeignField: "target", As: "likes",
		Pipeline: []Stage{Match(Eq("targetType", "video"))}}

	dropped, err := New(testVideos, join, Unwind{Path: "likes"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows, err := dropped.Evaluate(src)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per like, got %d", len(rows))
	}

	kept, err := New(testVideos, join, UnwindOrNull("likes"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows, err = kept.Evaluate(src)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected unliked video to be preserved, got %d rows", len(rows))
	}
	if _, ok := rows[2]["likes"]; ok {
		t.Fatalf("preserved row should have no likes field: %#v", rows[2])
	}
}

func TestEvaluateGroupTotals(t *testing.T) {
	src, alice, _, _ := fixture()

	p, err := New(testVideos,
		Match(IDEq("owner", alice)),
		Join{From: testLikes, LocalField: "_id", ForeignField: "target", As: "likes"},
		Derive("likesCount", Count("likes")),
		Group{Accumulators: []Accumulator{
			SumOf("totalLikes", Field("likesCount")),
			SumOf("totalViews", Field("views")),
			CountAs("totalVideos"),
		}},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows, err := p.Evaluate(src)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single group, got %d", len(rows))
	}
	got := rows[0]
	if got["totalLikes"] != int64(3) || got["totalViews"] != int64(15) || got["totalVideos"] != int64(2) {
		t.Fatalf("unexpected totals %#v", got)
	}
}

func TestEvaluateGroupOfNothing(t *testing.T) {
	p, err := New(testVideos,
		Match(IDEq("owner", ids.New())),
		Group{Accumulators: []Accumulator{CountAs("totalVideos")}},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows, err := p.Evaluate(sliceSource{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %#v", rows)
	}
}

func TestEvaluateTextSearchAndSort(t *testing.T) {
	src, _, _, _ := fixture()

	p, err := New(testVideos,
		Match(TextSearch("PASTA go", "title", "description")),
		SortBy("createdAt", Descending),
		Keep("title"),
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows, err := p.Evaluate(src)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both videos to match, got %d", len(rows))
	}
	if rows[0]["title"] != "Cooking" || rows[1]["title"] != "Learning Go" {
		t.Fatalf("unexpected order %v, %v", rows[0]["title"], rows[1]["title"])
	}
}

func TestEvaluateJoinOnListField(t *testing.T) {
	v1, v2, v3 := ids.New(), ids.New(), ids.New()
	src := sliceSource{
		"users": {{"_id": ids.New(), "watchHistory": []any{v3, v1}}},
		"videos": {
			{"_id": v1, "title": "one"},
			{"_id": v2, "title": "two"},
			{"_id": v3, "title": "three"},
		},
	}
	users := Schema{Collection: "users", Fields: []string{"watchHistory"}}

	p, err := New(users, Join{From: testVideos, LocalField: "watchHistory", ForeignField: "_id", As: "watchHistory"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows, err := p.Evaluate(src)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	history := rows[0]["watchHistory"].([]any)
	if len(history) != 2 {
		t.Fatalf("expected 2 joined videos, got %d", len(history))
	}
}

func TestEvaluateDoesNotMutateSource(t *testing.T) {
	src, _, _, _ := fixture()
	before := len(src["videos"][0])

	p, err := New(testVideos,
		Derive("stats.views", Field("views")),
		Derive("flag", Literal(true)),
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := p.Evaluate(src); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(src["videos"][0]) != before {
		t.Fatalf("source document was mutated: %#v", src["videos"][0])
	}
}
