// Package notes provides the PostgreSQL-backed repository for encrypted
// note rows.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/server/models"
)

// PostgresRepository implements note storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.EncryptedNote, error) {
	query := `
		SELECT id, heading, heading_iv, heading_tag, content, content_iv, content_tag, created_at, updated_at
		FROM notes WHERE id = $1;
	`
	var note models.EncryptedNote
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.Heading.Ciphertext, &note.Heading.IV, &note.Heading.Tag,
		&note.Content.Ciphertext, &note.Content.IV, &note.Content.Tag,
		&note.CreatedAt, &note.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &note, nil
}

// Upsert inserts a note row by id or rewrites its encrypted fields and
// updated_at. created_at is never modified on update.
func (r *PostgresRepository) Upsert(ctx context.Context, note *models.EncryptedNote) error {
	query := `
		INSERT INTO notes (id, heading, heading_iv, heading_tag, content, content_iv, content_tag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			heading = EXCLUDED.heading,
			heading_iv = EXCLUDED.heading_iv,
			heading_tag = EXCLUDED.heading_tag,
			content = EXCLUDED.content,
			content_iv = EXCLUDED.content_iv,
			content_tag = EXCLUDED.content_tag,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.Heading.Ciphertext, note.Heading.IV, note.Heading.Tag,
		note.Content.Ciphertext, note.Content.IV, note.Content.Tag,
		note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.EncryptedNote, error) {
	query := `
		SELECT id, heading, heading_iv, heading_tag, content, content_iv, content_tag, created_at, updated_at
		FROM notes ORDER BY updated_at DESC;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	var result []*models.EncryptedNote
	for rows.Next() {
		var note models.EncryptedNote
		if err := rows.Scan(
			&note.ID,
			&note.Heading.Ciphertext, &note.Heading.IV, &note.Heading.Tag,
			&note.Content.Ciphertext, &note.Content.IV, &note.Content.Tag,
			&note.CreatedAt, &note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
