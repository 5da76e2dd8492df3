// Package repomanager wires repositories to one shared database handle and
// runs schema migrations at startup.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notesync/internal/server/repositories/notes"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Notes() notes.Repository
	Close() error
}
