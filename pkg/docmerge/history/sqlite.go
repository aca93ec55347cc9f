package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists history to SQLite.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens or creates the history database at path.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			document_id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			record_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			missing_fields TEXT NOT NULL,
			fallback INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_created_at
		ON history(created_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(e Entry) error {
	e, err := prepare(e)
	if err != nil {
		return err
	}
	missing, err := json.Marshal(e.MissingFields)
	if err != nil {
		return fmt.Errorf("encode missing fields: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err = s.db.Exec(`
		INSERT INTO history (document_id, template_id, record_id, filename, missing_fields, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			template_id = excluded.template_id,
			record_id = excluded.record_id,
			filename = excluded.filename,
			missing_fields = excluded.missing_fields,
			fallback = excluded.fallback,
			created_at = excluded.created_at
	`, e.DocumentID, e.TemplateID, e.RecordID, e.Filename, string(missing), e.Fallback, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save history entry: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(documentID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Entry{}, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT document_id, template_id, record_id, filename, missing_fields, fallback, created_at
		FROM history
		WHERE document_id = ?
	`, documentID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	return e, nil
}

// List implements Store.
func (s *SQLiteStore) List(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
		SELECT document_id, template_id, record_id, filename, missing_fields, fallback, created_at
		FROM history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// DeleteBefore implements Store.
func (s *SQLiteStore) DeleteBefore(t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	res, err := s.db.Exec(`DELETE FROM history WHERE created_at < ?`, t.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e       Entry
		missing string
		created int64
	)
	if err := sc.Scan(&e.DocumentID, &e.TemplateID, &e.RecordID, &e.Filename, &missing, &e.Fallback, &created); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(missing), &e.MissingFields); err != nil {
		return Entry{}, fmt.Errorf("decode missing fields: %w", err)
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}
