package notes

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/server/models"
)

// Repository is durable storage for encrypted note rows.
type Repository interface {
	// GetByID returns the row for id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.EncryptedNote, error)

	// Upsert inserts the row or, if id already exists, updates every field
	// except created_at.
	Upsert(ctx context.Context, note *models.EncryptedNote) error

	// Delete removes the row for id, returning common.ErrNotFound when no
	// row was deleted.
	Delete(ctx context.Context, id string) error

	// ListAll returns every row ordered by updated_at descending.
	ListAll(ctx context.Context) ([]*models.EncryptedNote, error)
}
