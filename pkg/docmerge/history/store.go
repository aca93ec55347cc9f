// Package history records which documents were exported, for auditing.
// It stores export metadata only; template text and employee data are
// never persisted.
package history

import (
	"errors"
	"slices"
	"time"

	"github.com/randalmurphal/docmerge/pkg/docmerge/document"
)

// Store persists history entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores an entry, replacing any entry with the same DocumentID.
	Save(e Entry) error

	// Get returns the entry for a document.
	// Returns ErrNotFound if there is none.
	Get(documentID string) (Entry, error)

	// List returns entries newest first. limit <= 0 returns all.
	List(limit int) ([]Entry, error)

	// DeleteBefore removes entries created before t and returns how many
	// were removed.
	DeleteBefore(t time.Time) (int64, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Entry describes one exported document.
type Entry struct {
	DocumentID    string    `json:"documentId"`
	TemplateID    string    `json:"templateId"`
	RecordID      string    `json:"recordId"`
	Filename      string    `json:"filename"`
	MissingFields []string  `json:"missingFields"`
	Fallback      bool      `json:"fallback"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EntryFor builds the entry for doc exported under filename.
func EntryFor(doc *document.Document, filename string) Entry {
	return Entry{
		DocumentID:    doc.ID.String(),
		TemplateID:    doc.TemplateID,
		RecordID:      doc.RecordID,
		Filename:      filename,
		MissingFields: slices.Clone(doc.MissingFields),
		Fallback:      doc.Fallback,
		CreatedAt:     doc.CreatedAt,
	}
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates an entry doesn't exist.
	ErrNotFound = errors.New("history entry not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")

	// ErrMissingID indicates an entry without a DocumentID.
	ErrMissingID = errors.New("history entry has no document id")
)

// prepare validates e and fills in CreatedAt.
func prepare(e Entry) (Entry, error) {
	if e.DocumentID == "" {
		return Entry{}, ErrMissingID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.MissingFields = slices.Clone(e.MissingFields)
	if e.MissingFields == nil {
		e.MissingFields = []string{}
	}
	return e, nil
}
