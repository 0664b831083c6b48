package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoDatabase is used when the URI names no database.
const DefaultMongoDatabase = "fogon_test"

// MongoStore is a Store backed by a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri and pings the server. The database is taken from the URI path.
func OpenMongo(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", Redact(uri), err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging %s: %w", Redact(uri), err)
	}
	return &MongoStore{
		client: client,
		db:     client.Database(mongoDatabaseName(uri)),
	}, nil
}

func mongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultMongoDatabase
}

func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc Document) (InsertResult, error) {
	res, err := s.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return InsertResult{}, fmt.Errorf("inserting into %s: %w", collection, err)
	}
	return InsertResult{InsertedID: idString(res.InsertedID)}, nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter Document) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bsonFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter Document) (Document, bool, error) {
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bsonFilter(filter)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying %s: %w", collection, err)
	}
	return fromBSON(m), true, nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, collection string, filter, set Document) (UpdateResult, error) {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bsonFilter(filter), bson.M{"$set": bson.M(set)})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("updating %s: %w", collection, err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *MongoStore) DeleteMany(ctx context.Context, collection string, filter Document) (DeleteResult, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, bsonFilter(filter))
	if err != nil {
		return DeleteResult{}, fmt.Errorf("deleting from %s: %w", collection, err)
	}
	return DeleteResult{Deleted: res.DeletedCount}, nil
}

func (s *MongoStore) Clear(ctx context.Context, collection string) (DeleteResult, error) {
	return s.DeleteMany(ctx, collection, nil)
}

func (s *MongoStore) Count(ctx context.Context, collection string, filter Document) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, bsonFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", collection, err)
	}
	return n, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// bsonFilter turns a nil filter into an empty one; the driver rejects nil documents.
func bsonFilter(filter Document) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}

// fromBSON converts driver values to the plain types of Document. Object ids become
// their hex string.
func fromBSON(m bson.M) Document {
	doc := make(Document, len(m))
	for k, v := range m {
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v any) any {
	switch value := v.(type) {
	case bson.M:
		return fromBSON(value)
	case bson.D:
		return fromBSON(value.Map())
	case primitive.A:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = fromBSONValue(item)
		}
		return out
	case primitive.ObjectID:
		return value.Hex()
	case primitive.DateTime:
		return value.Time().UTC()
	case int32:
		return float64(value)
	case int64:
		return float64(value)
	default:
		return v
	}
}

func idString(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
