// Package notes implements the note store service. All encryption and
// decryption happens at this boundary: callers above it work with plaintext
// and never see ciphertext.
package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	repo "github.com/dmitrijs2005/notesync/internal/server/repositories/notes"
)

// SummaryContentLimit is the maximum content length of a listing entry.
const SummaryContentLimit = 100

// UntitledHeading replaces a heading that fails authentication on listing.
const UntitledHeading = "Untitled"

type Service struct {
	repo   repo.Repository
	cipher *cryptox.Cipher
	logger logging.Logger
}

func NewService(r repo.Repository, cipher *cryptox.Cipher, logger logging.Logger) *Service {
	return &Service{
		repo:   r,
		cipher: cipher,
		logger: logger.With("module", "notes"),
	}
}

// Get fetches and decrypts the note with the given id. It returns
// common.ErrNotFound when no row exists and cryptox.ErrAuthentication when a
// field fails to decrypt.
func (s *Service) Get(ctx context.Context, id string) (*models.Note, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decrypt(row)
}

// Save encrypts both fields and upserts the row. createdAt is used only when
// the row does not exist yet; a zero createdAt means "now". Updates always
// rewrite both fields with the full current values.
func (s *Service) Save(ctx context.Context, id, heading, content string, createdAt time.Time) error {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	encHeading, err := s.cipher.Encrypt(heading)
	if err != nil {
		return fmt.Errorf("encrypting heading: %w", err)
	}
	encContent, err := s.cipher.Encrypt(content)
	if err != nil {
		return fmt.Errorf("encrypting content: %w", err)
	}

	return s.repo.Upsert(ctx, &models.EncryptedNote{
		ID:        id,
		Heading:   encHeading,
		Content:   encContent,
		CreatedAt: createdAt,
		UpdatedAt: now,
	})
}

// Delete removes the note row. The caller decides how to treat
// common.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns summaries of every stored note, most recently updated first.
// A note whose fields fail authentication degrades to an "Untitled" entry
// with empty content instead of failing the whole listing.
func (s *Service) List(ctx context.Context) ([]*models.NoteSummary, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.NoteSummary, 0, len(rows))
	for _, row := range rows {
		note, err := s.decrypt(row)
		if err != nil {
			if errors.Is(err, cryptox.ErrAuthentication) {
				s.logger.Warn(ctx, "note failed authentication, degrading to placeholder", "id", row.ID)
				summaries = append(summaries, &models.NoteSummary{
					ID:        row.ID,
					Heading:   UntitledHeading,
					Content:   "",
					UpdatedAt: row.UpdatedAt,
				})
				continue
			}
			return nil, err
		}
		summaries = append(summaries, &models.NoteSummary{
			ID:        note.ID,
			Heading:   note.Heading,
			Content:   Summarize(note.Content),
			UpdatedAt: note.UpdatedAt,
		})
	}
	return summaries, nil
}

func (s *Service) decrypt(row *models.EncryptedNote) (*models.Note, error) {
	heading, err := s.cipher.Decrypt(row.Heading)
	if err != nil {
		return nil, fmt.Errorf("decrypting heading of %s: %w", row.ID, err)
	}
	content, err := s.cipher.Decrypt(row.Content)
	if err != nil {
		return nil, fmt.Errorf("decrypting content of %s: %w", row.ID, err)
	}
	return &models.Note{
		ID:        row.ID,
		Heading:   heading,
		Content:   content,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Summarize truncates content to SummaryContentLimit runes, appending an
// ellipsis when anything was cut off.
func Summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= SummaryContentLimit {
		return content
	}
	return string(runes[:SummaryContentLimit]) + "…"
}
