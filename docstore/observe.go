package docstore

import (
	"context"
	"time"
)

// Operation describes one store call.
type Operation struct {
	// Name of the store method, e.g. "InsertOne"
	Name       string
	Collection string
	Filter     Document
	// Set holds inserted fields for InsertOne and updated fields for UpdateOne
	Set Document
	// Affected is the number of returned, inserted, modified or deleted documents
	Affected  int64
	Timestamp time.Time
	Duration  time.Duration
	Error     error
}

// Observe wraps store so that collect is called after every operation. Close is not
// reported.
func Observe(store Store, collect func(ctx context.Context, op Operation)) Store {
	return &observed{store: store, collect: collect}
}

type observed struct {
	store   Store
	collect func(ctx context.Context, op Operation)
}

func (o *observed) report(ctx context.Context, op Operation, start time.Time, err error) {
	op.Timestamp = start
	op.Duration = time.Since(start)
	op.Error = err
	o.collect(ctx, op)
}

func (o *observed) InsertOne(ctx context.Context, collection string, doc Document) (InsertResult, error) {
	start := time.Now()
	res, err := o.store.InsertOne(ctx, collection, doc)
	op := Operation{Name: "InsertOne", Collection: collection, Set: doc}
	if err == nil {
		op.Affected = 1
	}
	o.report(ctx, op, start, err)
	return res, err
}

func (o *observed) Find(ctx context.Context, collection string, filter Document) ([]Document, error) {
	start := time.Now()
	docs, err := o.store.Find(ctx, collection, filter)
	o.report(ctx, Operation{Name: "Find", Collection: collection, Filter: filter, Affected: int64(len(docs))}, start, err)
	return docs, err
}

func (o *observed) FindOne(ctx context.Context, collection string, filter Document) (Document, bool, error) {
	start := time.Now()
	doc, ok, err := o.store.FindOne(ctx, collection, filter)
	op := Operation{Name: "FindOne", Collection: collection, Filter: filter}
	if ok {
		op.Affected = 1
	}
	o.report(ctx, op, start, err)
	return doc, ok, err
}

func (o *observed) UpdateOne(ctx context.Context, collection string, filter, set Document) (UpdateResult, error) {
	start := time.Now()
	res, err := o.store.UpdateOne(ctx, collection, filter, set)
	o.report(ctx, Operation{Name: "UpdateOne", Collection: collection, Filter: filter, Set: set, Affected: res.Modified}, start, err)
	return res, err
}

func (o *observed) DeleteMany(ctx context.Context, collection string, filter Document) (DeleteResult, error) {
	start := time.Now()
	res, err := o.store.DeleteMany(ctx, collection, filter)
	o.report(ctx, Operation{Name: "DeleteMany", Collection: collection, Filter: filter, Affected: res.Deleted}, start, err)
	return res, err
}

func (o *observed) Clear(ctx context.Context, collection string) (DeleteResult, error) {
	start := time.Now()
	res, err := o.store.Clear(ctx, collection)
	o.report(ctx, Operation{Name: "Clear", Collection: collection, Affected: res.Deleted}, start, err)
	return res, err
}

func (o *observed) Count(ctx context.Context, collection string, filter Document) (int64, error) {
	start := time.Now()
	n, err := o.store.Count(ctx, collection, filter)
	o.report(ctx, Operation{Name: "Count", Collection: collection, Filter: filter, Affected: n}, start, err)
	return n, err
}

func (o *observed) Close(ctx context.Context) error {
	return o.store.Close(ctx)
}

var _ Store = &observed{}
