package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"weightduel/internal/adapter/badgerstore"
	"weightduel/internal/adapter/file"
	"weightduel/internal/adapter/memory"
	"weightduel/internal/adapter/postgres"
	"weightduel/internal/config"
	"weightduel/internal/domain"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openPersister builds the document persister selected by cfg.
func openPersister(cfg config.StorageConfig, logger *slog.Logger) (domain.DocumentPersister, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return file.New(cfg.DataPath), nopCloser{}, nil
	case config.BackendMemory:
		return memory.New(), nopCloser{}, nil
	case config.BackendPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.BackendBadger:
		p, err := badgerstore.Open(badgerstore.Config{Path: cfg.BadgerPath, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// onDemandPersister opens the backend for each Load and closes it again.
// The supervisor reads the document only after the child has exited, which
// matters for backends that lock their files while open.
type onDemandPersister struct {
	cfg    config.StorageConfig
	logger *slog.Logger
}

func (p onDemandPersister) Load(ctx context.Context) (*domain.Document, error) {
	inner, closer, err := openPersister(p.cfg, p.logger)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return inner.Load(ctx)
}

func (p onDemandPersister) Save(context.Context, *domain.Document) error {
	return errors.New("read-only persister")
}
