package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/pipeline"
)

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore wraps a connected database handle.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

var _ Store = (*MongoStore)(nil)

func (s *MongoStore) FindByID(ctx context.Context, collection string, id ids.ID, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(out)
	return translate(fmt.Sprintf("find %s by id", collection), err)
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, where pipeline.Predicate, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, pipeline.FilterDocument(where)).Decode(out)
	return translate(fmt.Sprintf("find one %s", collection), err)
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc any) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, doc)
	return translate(fmt.Sprintf("insert %s", collection), err)
}

func (s *MongoStore) UpdateByID(ctx context.Context, collection string, id ids.ID, update Update) error {
	if update.empty() {
		return nil
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, compileUpdate(update))
	if err != nil {
		return translate(fmt.Sprintf("update %s", collection), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, collection string, id ids.ID) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return translate(fmt.Sprintf("delete %s", collection), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteMany(ctx context.Context, collection string, where pipeline.Predicate) (int64, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, pipeline.FilterDocument(where))
	if err != nil {
		return 0, translate(fmt.Sprintf("delete many %s", collection), err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) RunPipeline(ctx context.Context, p pipeline.Pipeline, out any) error {
	cur, err := s.db.Collection(p.Collection).Aggregate(ctx, p.BSON())
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", p.Collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s rows: %w", p.Collection, err)
	}
	return nil
}

// EnsureIndexes creates every index declared in Indexes. Existing indexes
// with the same definition are left untouched.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	for collection, indexes := range Indexes {
		models := make([]mongo.IndexModel, 0, len(indexes))
		for _, idx := range indexes {
			keys := bson.D{}
			for _, k := range idx.Keys {
				var dir any = 1
				if idx.Text {
					dir = "text"
				}
				keys = append(keys, bson.E{Key: k, Value: dir})
			}
			opts := options.Index().SetName(idx.Name)
			if idx.Unique {
				opts.SetUnique(true)
			}
			models = append(models, mongo.IndexModel{Keys: keys, Options: opts})
		}
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}

func compileUpdate(u Update) bson.D {
	doc := bson.D{}
	if len(u.Set) > 0 {
		doc = append(doc, bson.E{Key: "$set", Value: bson.M(u.Set)})
	}
	if len(u.Inc) > 0 {
		inc := bson.M{}
		for k, v := range u.Inc {
			inc[k] = v
		}
		doc = append(doc, bson.E{Key: "$inc", Value: inc})
	}
	if len(u.AddToSet) > 0 {
		doc = append(doc, bson.E{Key: "$addToSet", Value: bson.M(u.AddToSet)})
	}
	if len(u.Pull) > 0 {
		doc = append(doc, bson.E{Key: "$pull", Value: bson.M(u.Pull)})
	}
	if len(u.Unset) > 0 {
		unset := bson.M{}
		for _, k := range u.Unset {
			unset[k] = ""
		}
		doc = append(doc, bson.E{Key: "$unset", Value: unset})
	}
	return doc
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
