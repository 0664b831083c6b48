// Package docstore gives the database steps a document store. Collections hold schemaless
// JSON-like documents and are addressed by name. MongoDB is used for remote stores and a
// SQLite table for local runs.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Document is a schemaless record. Values are normalized to JSON types: numbers are
// float64, nested objects map[string]any and arrays []any.
type Document = map[string]any

// IDField holds the id of a stored document.
const IDField = "_id"

type InsertResult struct {
	InsertedID string
}

type UpdateResult struct {
	Matched  int64
	Modified int64
}

type DeleteResult struct {
	Deleted int64
}

// Store is the set of operations the database steps need. A filter matches documents
// whose fields (top level or dotted path) equal all filter values; an empty filter
// matches every document.
type Store interface {
	InsertOne(ctx context.Context, collection string, doc Document) (InsertResult, error)
	Find(ctx context.Context, collection string, filter Document) ([]Document, error)
	// FindOne returns the first matching document; ok is false when none matches.
	FindOne(ctx context.Context, collection string, filter Document) (doc Document, ok bool, err error)
	// UpdateOne sets the fields of set on the first matching document.
	UpdateOne(ctx context.Context, collection string, filter, set Document) (UpdateResult, error)
	DeleteMany(ctx context.Context, collection string, filter Document) (DeleteResult, error)
	// Clear deletes all documents of collection.
	Clear(ctx context.Context, collection string) (DeleteResult, error)
	Count(ctx context.Context, collection string, filter Document) (int64, error)
	Close(ctx context.Context) error
}

// ErrUnsupportedFilter is returned for query operators a store cannot evaluate.
var ErrUnsupportedFilter = errors.New("unsupported filter")

const (
	schemeMongo    = "mongodb://"
	schemeMongoSRV = "mongodb+srv://"
	schemeSQLite   = "sqlite://"
)

// Open connects to the store at uri. mongodb:// and mongodb+srv:// URIs connect to
// MongoDB, sqlite://<dsn> opens a SQLite database.
func Open(ctx context.Context, uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, schemeMongo), strings.HasPrefix(uri, schemeMongoSRV):
		store, err := OpenMongo(ctx, uri)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(uri, schemeSQLite):
		store, err := OpenSQLite(ctx, strings.TrimPrefix(uri, schemeSQLite))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database uri %q", Redact(uri))
	}
}

// Redact removes credentials from uri for error messages and logs.
func Redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.LastIndex(rest, "@")
	slash := strings.Index(rest, "/")
	if at < 0 || (slash >= 0 && at > slash) {
		return uri
	}
	return scheme + "://***@" + rest[at+1:]
}
