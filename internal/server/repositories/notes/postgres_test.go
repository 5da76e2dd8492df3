package notes

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleNote() *models.EncryptedNote {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.EncryptedNote{
		ID:        "ab12CD34",
		Heading:   cryptox.EncryptedField{Ciphertext: []byte("hc"), IV: []byte("hi"), Tag: []byte("ht")},
		Content:   cryptox.EncryptedField{Ciphertext: []byte("cc"), IV: []byte("ci"), Tag: []byte("ct")},
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}
}

var noteColumns = []string{
	"id",
	"heading", "heading_iv", "heading_tag",
	"content", "content_iv", "content_tag",
	"created_at", "updated_at",
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n := sampleNote()
	rows := sqlmock.NewRows(noteColumns).AddRow(
		n.ID,
		n.Heading.Ciphertext, n.Heading.IV, n.Heading.Tag,
		n.Content.Ciphertext, n.Content.IV, n.Content.Tag,
		n.CreatedAt, n.UpdatedAt,
	)

	mock.ExpectQuery(`SELECT .* FROM notes WHERE id = \$1;`).
		WithArgs("ab12CD34").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "ab12CD34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != n.ID || string(got.Heading.Ciphertext) != "hc" || !got.CreatedAt.Equal(n.CreatedAt) {
		t.Fatalf("unexpected note: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM notes WHERE id = \$1;`).
		WithArgs("missing1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing1")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n := sampleNote()

	q := regexp.MustCompile(`INSERT INTO notes .* ON CONFLICT \(id\) DO UPDATE SET .* updated_at = EXCLUDED\.updated_at;`)
	mock.ExpectExec(q.String()).
		WithArgs(
			n.ID,
			n.Heading.Ciphertext, n.Heading.IV, n.Heading.Tag,
			n.Content.Ciphertext, n.Content.IV, n.Content.Tag,
			n.CreatedAt, n.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO notes`).
		WillReturnError(errors.New("db is down"))

	err := repo.Upsert(context.Background(), sampleNote())
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1;`).
		WithArgs("ab12CD34").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "ab12CD34"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1;`).
		WithArgs("missing1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing1"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListAll_OrderedRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	newer := sampleNote()
	older := sampleNote()
	older.ID = "zz98XY76"
	older.UpdatedAt = newer.UpdatedAt.Add(-time.Hour)

	rows := sqlmock.NewRows(noteColumns)
	for _, n := range []*models.EncryptedNote{newer, older} {
		rows.AddRow(
			n.ID,
			n.Heading.Ciphertext, n.Heading.IV, n.Heading.Tag,
			n.Content.Ciphertext, n.Content.IV, n.Content.Tag,
			n.CreatedAt, n.UpdatedAt,
		)
	}

	mock.ExpectQuery(`SELECT .* FROM notes ORDER BY updated_at DESC;`).
		WillReturnRows(rows)

	got, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "ab12CD34" || got[1].ID != "zz98XY76" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestListAll_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM notes ORDER BY updated_at DESC;`).
		WillReturnError(errors.New("db is down"))

	if _, err := repo.ListAll(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
