package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cucumber/godog"

	"github.com/networkteam/fogonqa/docstore"
)

func (s *scenario) registerDatabaseSteps(r Registrar) {
	r.Step(`^the database collection "([^"]*)" is empty$`, s.collectionIsEmpty)
	r.Step(`^the database collection "([^"]*)" contains:$`, s.collectionContains)
	r.Step(`^I have a document with:$`, s.haveDocument)
	r.Step(`^I insert the document into collection "([^"]*)"$`, s.insertDocument)
	r.Step(`^I query collection "([^"]*)" for:$`, s.queryCollection)
	r.Step(`^I query collection "([^"]*)" for all documents$`, s.queryAll)
	r.Step(`^I update documents in collection "([^"]*)" matching:$`, s.updateDocuments)
	r.Step(`^I delete documents from collection "([^"]*)" matching:$`, s.deleteDocuments)
	r.Step(`^I count documents in collection "([^"]*)"$`, s.countDocuments)
	r.Step(`^the collection "([^"]*)" should have (\d+) document(?:s|\(s\))?$`, s.collectionShouldHave)
	r.Step(`^the document count should be (\d+)$`, s.documentCountShouldBe)
	r.Step(`^the query should return (\d+) document(?:s|\(s\))?$`, s.queryShouldReturn)
	r.Step(`^the query result should contain a document with "([^"]*)" equal to "([^"]*)"$`, s.queryResultContains)
	r.Step(`^the insert should succeed$`, s.insertShouldSucceed)
	r.Step(`^the update should modify (\d+) document(?:s|\(s\))?$`, s.updateShouldModify)
	r.Step(`^the delete should remove (\d+) document(?:s|\(s\))?$`, s.deleteShouldRemove)
	r.Step(`^the database operation should have failed$`, s.databaseOperationShouldHaveFailed)
}

// store returns the document store. Without one the database steps are skipped.
func (s *scenario) store(ctx context.Context) (docstore.Store, error) {
	if s.opts.Store == nil {
		s.stepLogger().WarnContext(ctx, "No document store connected, skipping")
		return nil, godog.ErrSkip
	}
	return s.opts.Store, nil
}

func (s *scenario) collectionIsEmpty(ctx context.Context, collection string) error {
	store, err := s.store(ctx)
	if err != nil {
		return err
	}
	if _, err := store.Clear(ctx, collection); err != nil {
		return storeError("Clear", collection, err)
	}
	s.collection = collection
	return nil
}

func (s *scenario) collectionContains(ctx context.Context, collection string, doc *godog.DocString) error {
	docs, err := parseDocuments(doc)
	if err != nil {
		return err
	}
	store, err := s.store(ctx)
	if err != nil {
		return err
	}

	if _, err := store.Clear(ctx, collection); err != nil {
		return storeError("Clear", collection, err)
	}
	for _, d := range docs {
		if _, err := store.InsertOne(ctx, collection, d); err != nil {
			return storeError("InsertOne", collection, err)
		}
	}
	s.collection = collection

	s.stepLogger().DebugContext(ctx, "Collection seeded", slog.String("collection", collection), slog.Int("documents", len(docs)))
	return nil
}

func (s *scenario) haveDocument(doc *godog.DocString) error {
	parsed, err := parseObject(doc)
	if err != nil {
		return err
	}
	s.document = parsed
	return nil
}

// The When steps below keep store failures in the scenario instead of failing.

func (s *scenario) insertDocument(ctx context.Context, collection string) error {
	if s.document == nil {
		return fmt.Errorf("no document given in this scenario")
	}
	store, err := s.store(ctx)
	if err != nil {
		return err
	}

	s.collection = collection
	result, err := store.InsertOne(ctx, collection, s.document)
	if err != nil {
		s.fail(ctx, storeError("InsertOne", collection, err))
		return nil
	}
	s.insertResult = &result
	s.lastErr = nil
	return nil
}

func (s *scenario) queryCollection(ctx context.Context, collection string, doc *godog.DocString) error {
	filter, err := parseObject(doc)
	if err != nil {
		return err
	}
	return s.find(ctx, collection, filter)
}

func (s *scenario) queryAll(ctx context.Context, collection string) error {
	return s.find(ctx, collection, docstore.Document{})
}

func (s *scenario) find(ctx context.Context, collection string, filter docstore.Document) error {
	store, err := s.store(ctx)
	if err != nil {
		return err
	}

	s.collection = collection
	docs, err := store.Find(ctx, collection, filter)
	if err != nil {
		s.fail(ctx, storeError("Find", collection, err))
		return nil
	}
	s.queryResult = docs
	s.lastErr = nil
	return nil
}

// updateDocuments expects a doc string with "query" and "update" objects. The fields of
// update are set on the first matching document.
func (s *scenario) updateDocuments(ctx context.Context, collection string, doc *godog.DocString) error {
	parsed, err := parseObject(doc)
	if err != nil {
		return err
	}
	filter, err := subDocument(parsed, "query")
	if err != nil {
		return err
	}
	set, err := subDocument(parsed, "update")
	if err != nil {
		return err
	}
	if len(set) == 0 {
		return fmt.Errorf(`doc string has no "update" fields`)
	}
	store, err := s.store(ctx)
	if err != nil {
		return err
	}

	s.collection = collection
	result, err := store.UpdateOne(ctx, collection, filter, set)
	if err != nil {
		s.fail(ctx, storeError("UpdateOne", collection, err))
		return nil
	}
	s.updateResult = &result
	s.lastErr = nil
	return nil
}

func (s *scenario) deleteDocuments(ctx context.Context, collection string, doc *godog.DocString) error {
	filter, err := parseObject(doc)
	if err != nil {
		return err
	}
	store, err := s.store(ctx)
	if err != nil {
		return err
	}

	s.collection = collection
	result, err := store.DeleteMany(ctx, collection, filter)
	if err != nil {
		s.fail(ctx, storeError("DeleteMany", collection, err))
		return nil
	}
	s.deleteResult = &result
	s.lastErr = nil
	return nil
}

func (s *scenario) countDocuments(ctx context.Context, collection string) error {
	store, err := s.store(ctx)
	if err != nil {
		return err
	}

	s.collection = collection
	count, err := store.Count(ctx, collection, nil)
	if err != nil {
		s.fail(ctx, storeError("Count", collection, err))
		return nil
	}
	s.documentCount = &count
	s.lastErr = nil
	return nil
}

func (s *scenario) fail(ctx context.Context, err *ExternalServiceError) {
	s.lastErr = err
	s.stepLogger().WarnContext(ctx, "Store operation failed", slog.String("operation", err.Operation), slog.Any("error", err.Err))
}

func (s *scenario) collectionShouldHave(ctx context.Context, collection string, expected int) error {
	store, err := s.store(ctx)
	if err != nil {
		return err
	}
	count, err := store.Count(ctx, collection, nil)
	if err != nil {
		return storeError("Count", collection, err)
	}
	if count != int64(expected) {
		return &AssertionFailure{Expected: expected, Actual: count, Message: fmt.Sprintf("documents in %q", collection)}
	}
	return nil
}

func (s *scenario) documentCountShouldBe(expected int) error {
	if err := s.storeFailure(expected, "document count"); err != nil {
		return err
	}
	if s.documentCount == nil {
		return &AssertionFailure{Expected: expected, Actual: s.lastErrOr("not counted"), Message: "document count"}
	}
	if *s.documentCount != int64(expected) {
		return &AssertionFailure{Expected: expected, Actual: *s.documentCount, Message: "document count"}
	}
	return nil
}

func (s *scenario) queryShouldReturn(expected int) error {
	if err := s.storeFailure(expected, "documents returned by the query"); err != nil {
		return err
	}
	if len(s.queryResult) != expected {
		return &AssertionFailure{Expected: expected, Actual: len(s.queryResult), Message: "documents returned by the query"}
	}
	return nil
}

// queryResultContains compares the string form of the field, so "3" matches a stored 3.
func (s *scenario) queryResultContains(field, expected string) error {
	for _, doc := range s.queryResult {
		value, ok := docstore.Lookup(doc, field)
		if ok && value != nil && fmt.Sprint(value) == expected {
			return nil
		}
	}
	return &AssertionFailure{
		Expected: fmt.Sprintf("%s = %q", field, expected),
		Actual:   fmt.Sprintf("%d documents without a match", len(s.queryResult)),
		Message:  "query result",
	}
}

func (s *scenario) insertShouldSucceed() error {
	if s.lastErr != nil {
		return &AssertionFailure{Expected: "inserted document", Actual: s.lastErr.Error(), Message: "insert"}
	}
	if s.insertResult == nil || s.insertResult.InsertedID == "" {
		return &AssertionFailure{Expected: "inserted id", Actual: "none", Message: "insert"}
	}
	return nil
}

func (s *scenario) updateShouldModify(expected int) error {
	if err := s.storeFailure(expected, "modified documents"); err != nil {
		return err
	}
	var modified int64
	if s.updateResult != nil {
		modified = s.updateResult.Modified
	}
	if modified != int64(expected) {
		return &AssertionFailure{Expected: expected, Actual: modified, Message: "modified documents"}
	}
	return nil
}

func (s *scenario) deleteShouldRemove(expected int) error {
	if err := s.storeFailure(expected, "deleted documents"); err != nil {
		return err
	}
	var deleted int64
	if s.deleteResult != nil {
		deleted = s.deleteResult.Deleted
	}
	if deleted != int64(expected) {
		return &AssertionFailure{Expected: expected, Actual: deleted, Message: "deleted documents"}
	}
	return nil
}

func (s *scenario) databaseOperationShouldHaveFailed() error {
	if s.storeErr() == nil {
		return &AssertionFailure{Expected: "store failure", Actual: "operation succeeded", Message: "database operation"}
	}
	return nil
}

// storeFailure fails a result assertion when the last store operation failed, so a
// failed operation is never read as an empty result.
func (s *scenario) storeFailure(expected any, message string) error {
	if err := s.storeErr(); err != nil {
		return &AssertionFailure{Expected: expected, Actual: err.Error(), Message: message}
	}
	return nil
}

func (s *scenario) storeErr() *ExternalServiceError {
	var serviceErr *ExternalServiceError
	if errors.As(s.lastErr, &serviceErr) && serviceErr.Service == "store" {
		return serviceErr
	}
	return nil
}

func (s *scenario) lastErrOr(fallback string) string {
	if s.lastErr != nil {
		return s.lastErr.Error()
	}
	return fallback
}
