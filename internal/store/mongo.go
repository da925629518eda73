package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/newsflow-kr/newsflow/internal/config"
	"github.com/newsflow-kr/newsflow/internal/types"
)

const mongoOpTimeout = 10 * time.Second

// MongoStore persists records in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// mongoRecord pairs the ObjectID with the wire-level record fields.
type mongoRecord struct {
	OID              primitive.ObjectID `bson:"_id,omitempty"`
	types.NewsRecord `bson:",inline"`
}

func (m mongoRecord) record() types.NewsRecord {
	rec := m.NewsRecord
	rec.ID = m.OID.Hex()
	return rec
}

// NewMongoStore connects and pings before returning, so a bad URI fails
// at startup rather than on first use.
func NewMongoStore(ctx context.Context, cfg *config.StoreConfig, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.StoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &types.StoreError{Op: "ping", Err: err}
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) List(ctx context.Context, limit int64) ([]types.NewsRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &types.StoreError{Op: "list", Err: err}
	}
	defer cursor.Close(ctx)

	var records []types.NewsRecord
	for cursor.Next(ctx) {
		var doc mongoRecord
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn("undecodable record skipped", "error", err)
			continue
		}
		records = append(records, doc.record())
	}
	if err := cursor.Err(); err != nil {
		return nil, &types.StoreError{Op: "list", Err: err}
	}
	return records, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (types.NewsRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.NewsRecord{}, types.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var doc mongoRecord
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.NewsRecord{}, types.ErrNotFound
	}
	if err != nil {
		return types.NewsRecord{}, &types.StoreError{Op: "get", Err: err}
	}
	return doc.record(), nil
}

func (s *MongoStore) Create(ctx context.Context, rec types.NewsRecord) (types.NewsRecord, error) {
	now := time.Now().UTC()
	if rec.Status == "" {
		rec.Status = types.StatusNew
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := s.collection.InsertOne(ctx, mongoRecord{NewsRecord: rec})
	if err != nil {
		return types.NewsRecord{}, &types.StoreError{Op: "create", Err: err}
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return rec, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, fields map[string]any) (types.NewsRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.NewsRecord{}, types.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		if _, ok := v.(string); ok && updatable[k] {
			set[k] = v
		}
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoRecord
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.NewsRecord{}, types.ErrNotFound
	}
	if err != nil {
		return types.NewsRecord{}, &types.StoreError{Op: "update", Err: err}
	}
	return doc.record(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return &types.StoreError{Op: "delete", Err: err}
	}
	if res.DeletedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, rec types.NewsRecord) (types.NewsRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	for _, filter := range upsertFilters(rec) {
		var existing mongoRecord
		err := s.collection.FindOne(ctx, filter).Decode(&existing)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return types.NewsRecord{}, false, &types.StoreError{Op: "upsert", Err: err}
		}

		set := refreshFields(rec)
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var updated mongoRecord
		err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": existing.OID}, bson.M{"$set": set}, opts).Decode(&updated)
		if err != nil {
			return types.NewsRecord{}, false, &types.StoreError{Op: "upsert", Err: err}
		}
		return updated.record(), false, nil
	}

	created, err := s.Create(ctx, rec)
	return created, err == nil, err
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// upsertFilters returns the dedup filters in priority order. Records
// with neither key always insert.
func upsertFilters(rec types.NewsRecord) []bson.M {
	var filters []bson.M
	if rec.SourceURL != "" {
		filters = append(filters, bson.M{"source_url": rec.SourceURL})
	}
	if rec.Title != "" {
		filters = append(filters, bson.M{"title": rec.Title})
	}
	return filters
}

// refreshFields is the $set document for re-crawled records: article
// fields refresh, publish state stays untouched.
func refreshFields(rec types.NewsRecord) bson.M {
	return bson.M{
		"title":          rec.Title,
		"content":        rec.Content,
		"published_at":   rec.PublishedAt,
		"reporter_name":  rec.ReporterName,
		"reporter_email": rec.ReporterEmail,
		"category":       rec.Category,
		"phone":          rec.Phone,
		"source_url":     rec.SourceURL,
		"updated_at":     time.Now().UTC(),
	}
}

var _ Store = (*MongoStore)(nil)
