package postgres

import (
	"context"
	"database/sql"
	"errors"

	"weightduel/internal/domain"
)

var _ domain.DocumentPersister = (*DB)(nil)

// Load returns the stored document.
func (d *DB) Load(ctx context.Context) (*domain.Document, error) {
	var body []byte
	err := d.sql.QueryRowContext(ctx, "SELECT body FROM challenge_document WHERE id = 1;").Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.DecodeDocument(body)
}

// Save upserts the document in a single statement.
func (d *DB) Save(ctx context.Context, doc *domain.Document) error {
	body, err := domain.EncodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		"INSERT INTO challenge_document(id, body, updated_at) VALUES(1, $1, now()) ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at;",
		string(body),
	)
	return err
}
