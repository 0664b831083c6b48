package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	UNIQUE (collection, id)
)`

// SQLiteStore keeps all collections in one table. Filters are evaluated in Go on the
// decoded documents, so only equality filters are supported.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the SQLite database at dsn and creates the documents table.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, errors.New("empty sqlite dsn")
	}

	// modernc.org/sqlite uses "sqlite" driver name
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// Every connection to ":memory:" is its own database
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", sqliteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("preparing sqlite: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertOne(ctx context.Context, collection string, doc Document) (InsertResult, error) {
	normalized, err := Normalize(doc)
	if err != nil {
		return InsertResult{}, err
	}

	id := ""
	if v, ok := normalized[IDField]; ok && v != nil {
		id = fmt.Sprint(v)
	} else {
		id = uuid.Must(uuid.NewV7()).String()
		normalized[IDField] = id
	}

	body, err := json.Marshal(normalized)
	if err != nil {
		return InsertResult{}, fmt.Errorf("encoding document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`,
		collection, id, string(body),
	); err != nil {
		return InsertResult{}, fmt.Errorf("inserting into %s: %w", collection, err)
	}
	return InsertResult{InsertedID: id}, nil
}

type storedDocument struct {
	id  string
	doc Document
}

// scan returns the documents of collection matching filter in insertion order.
func (s *SQLiteStore) scan(ctx context.Context, collection string, filter Document) ([]storedDocument, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}
	normalizedFilter, err := Normalize(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY seq`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var result []storedDocument
	for rows.Next() {
		var (
			id   string
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", collection, err)
		}
		var doc Document
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("decoding document %s: %w", id, err)
		}
		if matches(doc, normalizedFilter) {
			result = append(result, storedDocument{id: id, doc: doc})
		}
	}
	return result, rows.Err()
}

func (s *SQLiteStore) Find(ctx context.Context, collection string, filter Document) ([]Document, error) {
	stored, err := s.scan(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(stored))
	for _, sd := range stored {
		docs = append(docs, sd.doc)
	}
	return docs, nil
}

func (s *SQLiteStore) FindOne(ctx context.Context, collection string, filter Document) (Document, bool, error) {
	stored, err := s.scan(ctx, collection, filter)
	if err != nil || len(stored) == 0 {
		return nil, false, err
	}
	return stored[0].doc, true, nil
}

func (s *SQLiteStore) UpdateOne(ctx context.Context, collection string, filter, set Document) (UpdateResult, error) {
	stored, err := s.scan(ctx, collection, filter)
	if err != nil || len(stored) == 0 {
		return UpdateResult{}, err
	}
	normalizedSet, err := Normalize(set)
	if err != nil {
		return UpdateResult{}, err
	}

	target := stored[0]
	if !applySet(target.doc, normalizedSet) {
		return UpdateResult{Matched: 1}, nil
	}
	body, err := json.Marshal(target.doc)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("encoding document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`,
		string(body), collection, target.id,
	); err != nil {
		return UpdateResult{}, fmt.Errorf("updating %s: %w", collection, err)
	}
	return UpdateResult{Matched: 1, Modified: 1}, nil
}

func (s *SQLiteStore) DeleteMany(ctx context.Context, collection string, filter Document) (DeleteResult, error) {
	if len(filter) == 0 {
		return s.Clear(ctx, collection)
	}

	stored, err := s.scan(ctx, collection, filter)
	if err != nil || len(stored) == 0 {
		return DeleteResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sd := range stored {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`,
			collection, sd.id,
		); err != nil {
			return DeleteResult{}, fmt.Errorf("deleting from %s: %w", collection, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return DeleteResult{}, fmt.Errorf("committing delete: %w", err)
	}
	return DeleteResult{Deleted: int64(len(stored))}, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, collection string) (DeleteResult, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("clearing %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return DeleteResult{}, fmt.Errorf("clearing %s: %w", collection, err)
	}
	return DeleteResult{Deleted: n}, nil
}

func (s *SQLiteStore) Count(ctx context.Context, collection string, filter Document) (int64, error) {
	if len(filter) == 0 {
		var n int64
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("counting %s: %w", collection, err)
		}
		return n, nil
	}
	stored, err := s.scan(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(stored)), nil
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
