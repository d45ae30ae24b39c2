// Package badgerstore persists the challenge document in an embedded
// BadgerDB key-value store.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"weightduel/internal/domain"
)

var documentKey = []byte("challenge/document")

// Config controls how the database is opened.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in memory; used by tests.
	InMemory bool
	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Persister stores the document under a single key.
type Persister struct {
	db *badger.DB
}

var _ domain.DocumentPersister = (*Persister)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Persister, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Persister{db: db}, nil
}

// Close closes the database.
func (p *Persister) Close() error {
	return p.db.Close()
}

// Load reads the document.
func (p *Persister) Load(ctx context.Context) (*domain.Document, error) {
	var data []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger read: %w", err)
	}
	return domain.DecodeDocument(data)
}

// Save replaces the document in one transaction.
func (p *Persister) Save(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return err
	}
	if err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey, data)
	}); err != nil {
		return fmt.Errorf("badger write: %w", err)
	}
	return nil
}
