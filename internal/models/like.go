package models

import (
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/ids"
)

// TargetType names the kind of entity a like points at.
type TargetType string

const (
	TargetVideo   TargetType = "video"
	TargetComment TargetType = "comment"
	TargetTweet   TargetType = "tweet"
)

// LikeTarget is exactly one of a video, a comment or a tweet. Build it with
// VideoTarget, CommentTarget or TweetTarget.
type LikeTarget struct {
	kind TargetType
	id   ids.ID
}

func VideoTarget(id ids.ID) LikeTarget   { return LikeTarget{kind: TargetVideo, id: id} }
func CommentTarget(id ids.ID) LikeTarget { return LikeTarget{kind: TargetComment, id: id} }
func TweetTarget(id ids.ID) LikeTarget   { return LikeTarget{kind: TargetTweet, id: id} }

// Type is the variant of the target.
func (t LikeTarget) Type() TargetType { return t.kind }

// ID is the identifier of the targeted entity.
func (t LikeTarget) ID() ids.ID { return t.id }

func (t LikeTarget) String() string { return fmt.Sprintf("%s:%s", t.kind, t.id.Hex()) }

// Like is a user's like of a target. TargetType and TargetID are the stored
// form of the target and are always set together.
type Like struct {
	ID         ids.ID     `bson:"_id" json:"_id"`
	LikedBy    ids.ID     `bson:"likedBy" json:"likedBy"`
	TargetType TargetType `bson:"targetType" json:"targetType"`
	TargetID   ids.ID     `bson:"target" json:"target"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
}

// NewLike records that user likes target.
func NewLike(user ids.ID, target LikeTarget, now time.Time) Like {
	return Like{
		ID:         ids.New(),
		LikedBy:    user,
		TargetType: target.kind,
		TargetID:   target.id,
		CreatedAt:  now,
	}
}

// Target rebuilds the tagged target from the stored fields.
func (l Like) Target() LikeTarget {
	return LikeTarget{kind: l.TargetType, id: l.TargetID}
}
