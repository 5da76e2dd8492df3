// Package models defines the note entities passed between layers.
package models

import (
	"time"

	"github.com/dmitrijs2005/notesync/internal/cryptox"
)

// Note is the decrypted note as seen above the store boundary.
type Note struct {
	ID        string
	Heading   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EncryptedNote is the at-rest row shape: each text field is stored as a
// (ciphertext, iv, tag) triple. Layers above the store never see this type.
type EncryptedNote struct {
	ID        string
	Heading   cryptox.EncryptedField
	Content   cryptox.EncryptedField
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteSummary is one entry of the note listing, with truncated content.
type NoteSummary struct {
	ID        string
	Heading   string
	Content   string
	UpdatedAt time.Time
}
