// Package memory implements an in-memory document persister for development
// and testing.
package memory

import (
	"context"
	"sync"

	"weightduel/internal/domain"
)

// DB keeps the last saved document in encoded form, so every Load returns an
// independent copy exactly as a disk-backed persister would.
type DB struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// New creates a new, empty in-memory persister.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.DocumentPersister = (*DB)(nil)

// Load decodes the last saved document.
func (db *DB) Load(ctx context.Context) (*domain.Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.data == nil {
		return nil, domain.ErrDocumentNotFound
	}
	return domain.DecodeDocument(db.data)
}

// Save replaces the stored document.
func (db *DB) Save(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.data = data
	db.saves++
	return nil
}

// Saves returns how many times Save has succeeded.
func (db *DB) Saves() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.saves
}
