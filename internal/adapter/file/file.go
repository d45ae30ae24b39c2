// Package file persists the challenge document as a JSON file on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"weightduel/internal/domain"
)

// Persister reads and atomically rewrites a single JSON document.
type Persister struct {
	path string
}

// New returns a Persister for the document at path.
func New(path string) *Persister {
	return &Persister{path: path}
}

var _ domain.DocumentPersister = (*Persister)(nil)

// Path returns the document location.
func (p *Persister) Path() string {
	return p.path
}

// Load reads the document, returning domain.ErrDocumentNotFound when the file
// does not exist yet.
func (p *Persister) Load(ctx context.Context) (*domain.Document, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.path, err)
	}
	return doc, nil
}

// Save writes doc to a temp file in the same directory, syncs it and renames
// it over the previous document. A crash at any point leaves either the old
// or the new document on disk, never a partial one.
func (p *Persister) Save(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	success = true

	// Persist the rename itself; not every platform allows syncing a dir.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
