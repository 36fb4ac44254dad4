package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"technews/metrics"
	"technews/model"
)

const maxPending = 100

type ArticleStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewArticleStore(db *mongo.Database) *ArticleStore {
	return &ArticleStore{
		coll: db.Collection(articlesCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *ArticleStore) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, s.coll, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sourceUrl", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "approved", Value: 1},
				{Key: "publishedDate", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "approved", Value: 1},
				{Key: "featured", Value: -1},
				{Key: "publishedDate", Value: -1},
			},
		},
	})
}

func (s *ArticleStore) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	start := time.Now()
	err := s.coll.FindOne(ctx, bson.M{"sourceUrl": sourceURL},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.ObserveMongo("findOne", articlesCollection, start, nil)
		return false, nil
	}
	metrics.ObserveMongo("findOne", articlesCollection, start, err)
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertMany stores articles with an unordered insert. Articles rejected by
// the unique sourceUrl index are skipped; the rest of the batch is kept. The
// stored articles are returned with their new ids.
func (s *ArticleStore) InsertMany(ctx context.Context, articles []model.Article) ([]model.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	now := s.now()
	batch := make([]model.Article, len(articles))
	docs := make([]interface{}, len(articles))
	for i, a := range articles {
		a.CreatedAt = now
		a.UpdatedAt = now
		batch[i] = a
		docs[i] = a
	}

	start := time.Now()
	res, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	rejected, err := splitDuplicates(err)
	metrics.ObserveMongo("insertMany", articlesCollection, start, err)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		log.Printf("[INFO] Skipped %d duplicate articles", len(rejected))
	}

	stored := make([]model.Article, 0, len(batch)-len(rejected))
	for i, a := range batch {
		if _, dup := rejected[i]; dup {
			continue
		}
		if res != nil && i < len(res.InsertedIDs) {
			if id, ok := res.InsertedIDs[i].(primitive.ObjectID); ok {
				a.ID = id
			}
		}
		stored = append(stored, a)
	}
	return stored, nil
}

// splitDuplicates separates duplicate-key write errors, which are expected,
// from anything else. It returns the batch indexes that were rejected as
// duplicates.
func splitDuplicates(err error) (map[int]struct{}, error) {
	if err == nil {
		return nil, nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return nil, err
	}
	rejected := make(map[int]struct{}, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		if !isDuplicateKeyCode(we.Code) {
			return nil, err
		}
		rejected[we.Index] = struct{}{}
	}
	return rejected, nil
}

func isDuplicateKeyCode(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}

func (s *ArticleStore) CountByApproval(ctx context.Context, approved bool) (int64, error) {
	start := time.Now()
	n, err := s.coll.CountDocuments(ctx, bson.M{"approved": approved})
	metrics.ObserveMongo("count", articlesCollection, start, err)
	return n, err
}

// ListApproved returns approved articles, featured first, newest first. An
// empty category means all categories.
func (s *ArticleStore) ListApproved(ctx context.Context, category model.Category, limit int) ([]model.Article, error) {
	filter := bson.M{"approved": true}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "publishedDate", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, "find", filter, opts)
}

func (s *ArticleStore) ListPending(ctx context.Context) ([]model.Article, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "fetchedDate", Value: -1}}).
		SetLimit(maxPending)
	return s.find(ctx, "findPending", bson.M{"approved": false}, opts)
}

func (s *ArticleStore) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]model.Article, error) {
	start := time.Now()
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		metrics.ObserveMongo(op, articlesCollection, start, err)
		return nil, err
	}
	defer cursor.Close(ctx)

	articles := []model.Article{}
	err = cursor.All(ctx, &articles)
	metrics.ObserveMongo(op, articlesCollection, start, err)
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// Featured returns the newest approved featured article.
func (s *ArticleStore) Featured(ctx context.Context) (model.Article, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "publishedDate", Value: -1}})
	return s.findOne(ctx, "findFeatured", bson.M{"approved": true, "featured": true}, opts)
}

func (s *ArticleStore) GetApproved(ctx context.Context, id primitive.ObjectID) (model.Article, error) {
	return s.findOne(ctx, "findById", bson.M{"_id": id, "approved": true}, options.FindOne())
}

func (s *ArticleStore) findOne(ctx context.Context, op string, filter bson.M, opts *options.FindOneOptions) (model.Article, error) {
	start := time.Now()
	var a model.Article
	err := s.coll.FindOne(ctx, filter, opts).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.ObserveMongo(op, articlesCollection, start, nil)
		return model.Article{}, ErrNotFound
	}
	metrics.ObserveMongo(op, articlesCollection, start, err)
	return a, err
}

func (s *ArticleStore) Approve(ctx context.Context, id primitive.ObjectID) (model.Article, error) {
	update := bson.M{"$set": bson.M{"approved": true, "updatedAt": s.now()}}
	return s.findOneAndUpdate(ctx, "approve", id, update)
}

// ToggleFeatured flips the featured flag in a single round trip.
func (s *ArticleStore) ToggleFeatured(ctx context.Context, id primitive.ObjectID) (model.Article, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "featured", Value: bson.D{{Key: "$not", Value: bson.A{"$featured"}}}},
			{Key: "updatedAt", Value: s.now()},
		}}},
	}
	return s.findOneAndUpdate(ctx, "toggleFeatured", id, update)
}

func (s *ArticleStore) findOneAndUpdate(ctx context.Context, op string, id primitive.ObjectID, update interface{}) (model.Article, error) {
	start := time.Now()
	var a model.Article
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.ObserveMongo(op, articlesCollection, start, nil)
		return model.Article{}, ErrNotFound
	}
	metrics.ObserveMongo(op, articlesCollection, start, err)
	if err != nil {
		return model.Article{}, fmt.Errorf("%s %s: %w", op, id.Hex(), err)
	}
	return a, nil
}

func (s *ArticleStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	start := time.Now()
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	metrics.ObserveMongo("delete", articlesCollection, start, err)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
