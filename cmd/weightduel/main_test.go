package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"weightduel/internal/adapter/file"
	"weightduel/internal/adapter/memory"
	"weightduel/internal/config"
	"weightduel/internal/domain"
)

func TestOpenPersister(t *testing.T) {
	dir := t.TempDir()

	p, closer, err := openPersister(config.StorageConfig{Backend: config.BackendFile, DataPath: filepath.Join(dir, "data.json")}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &file.Persister{}, p)
	require.NoError(t, closer.Close())

	p, closer, err = openPersister(config.StorageConfig{Backend: config.BackendMemory}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &memory.DB{}, p)
	require.NoError(t, closer.Close())

	p, closer, err = openPersister(config.StorageConfig{Backend: config.BackendBadger, BadgerPath: filepath.Join(dir, "badger")}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Save(context.Background(), domain.NewDocument(nil, "2024-01-10")))
	require.NoError(t, closer.Close())

	_, _, err = openPersister(config.StorageConfig{Backend: "floppy"}, slog.Default())
	assert.ErrorContains(t, err, "floppy")
}

func TestOnDemandPersister_ReadsAndReleases(t *testing.T) {
	cfg := config.StorageConfig{Backend: config.BackendBadger, BadgerPath: filepath.Join(t.TempDir(), "badger")}
	ctx := context.Background()

	p, closer, err := openPersister(cfg, nil)
	require.NoError(t, err)
	doc := domain.NewDocument([]domain.Role{{Key: "sergeant", Name: "Сержант"}}, "2024-01-10")
	id := domain.Identity(7)
	b := doc.Roles["sergeant"]
	b.Identity = &id
	doc.Roles["sergeant"] = b
	require.NoError(t, p.Save(ctx, doc))
	require.NoError(t, closer.Close())

	od := onDemandPersister{cfg: cfg}
	for range 2 {
		got, err := od.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, got.Roles["sergeant"].Identity)
		assert.Equal(t, id, *got.Roles["sergeant"].Identity)
	}
	assert.Error(t, od.Save(ctx, doc))
}

func TestHashToken(t *testing.T) {
	var out bytes.Buffer
	hashTokenCmd.SetOut(&out)
	hashTokenCmd.SetIn(strings.NewReader("s3cret\n"))
	require.NoError(t, hashTokenCmd.RunE(hashTokenCmd, nil))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestHashToken_Empty(t *testing.T) {
	hashTokenCmd.SetIn(strings.NewReader("\n"))
	assert.Error(t, hashTokenCmd.RunE(hashTokenCmd, nil))
}
