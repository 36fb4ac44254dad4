package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"technews/metrics"
	"technews/model"
)

type BlogStore struct {
	coll *mongo.Collection
}

func NewBlogStore(db *mongo.Database) *BlogStore {
	return &BlogStore{coll: db.Collection(blogCollection)}
}

func (s *BlogStore) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, s.coll, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "published", Value: 1},
				{Key: "publishedDate", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
}

func (s *BlogStore) ListPublished(ctx context.Context, limit int) ([]model.BlogPost, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedDate", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, "find", bson.M{"published": true}, opts)
}

func (s *BlogStore) ListAll(ctx context.Context) ([]model.BlogPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.find(ctx, "findAll", bson.M{}, opts)
}

func (s *BlogStore) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]model.BlogPost, error) {
	start := time.Now()
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		metrics.ObserveMongo(op, blogCollection, start, err)
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []model.BlogPost{}
	err = cursor.All(ctx, &posts)
	metrics.ObserveMongo(op, blogCollection, start, err)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Get returns a post whether or not it is published.
func (s *BlogStore) Get(ctx context.Context, id primitive.ObjectID) (model.BlogPost, error) {
	start := time.Now()
	var p model.BlogPost
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.ObserveMongo("findById", blogCollection, start, nil)
		return model.BlogPost{}, ErrNotFound
	}
	metrics.ObserveMongo("findById", blogCollection, start, err)
	return p, err
}

func (s *BlogStore) Create(ctx context.Context, post model.BlogPost) (model.BlogPost, error) {
	start := time.Now()
	res, err := s.coll.InsertOne(ctx, post)
	metrics.ObserveMongo("insertOne", blogCollection, start, err)
	if err != nil {
		return model.BlogPost{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = id
	}
	return post, nil
}

func (s *BlogStore) Replace(ctx context.Context, post model.BlogPost) error {
	start := time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	metrics.ObserveMongo("replace", blogCollection, start, err)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BlogStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	start := time.Now()
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	metrics.ObserveMongo("delete", blogCollection, start, err)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BlogStore) CountByPublished(ctx context.Context, published bool) (int64, error) {
	start := time.Now()
	n, err := s.coll.CountDocuments(ctx, bson.M{"published": published})
	metrics.ObserveMongo("count", blogCollection, start, err)
	return n, err
}
