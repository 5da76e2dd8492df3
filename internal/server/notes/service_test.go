package notes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	mu   sync.Mutex
	rows map[string]*models.EncryptedNote
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]*models.EncryptedNote)}
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*models.EncryptedNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeRepo) Upsert(_ context.Context, note *models.EncryptedNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.rows[note.ID]; ok {
		// created_at is immutable on update
		note.CreatedAt = existing.CreatedAt
	}
	cp := *note
	f.rows[note.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]*models.EncryptedNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.EncryptedNote, 0, len(f.rows))
	for _, row := range f.rows {
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	cipher, err := cryptox.New(bytes.Repeat([]byte{0x42}, cryptox.KeySize))
	require.NoError(t, err)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	repo := newFakeRepo()
	return NewService(repo, cipher, logger), repo
}

func TestService_SaveAndGet_RoundTrip(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "ab12CD34", "Todo", "Buy milk", time.Time{}))

	// the stored row is ciphertext, not plaintext
	row := repo.rows["ab12CD34"]
	require.NotNil(t, row)
	assert.NotContains(t, string(row.Heading.Ciphertext), "Todo")
	assert.NotContains(t, string(row.Content.Ciphertext), "Buy milk")

	note, err := svc.Get(ctx, "ab12CD34")
	require.NoError(t, err)
	assert.Equal(t, "Todo", note.Heading)
	assert.Equal(t, "Buy milk", note.Content)
	assert.False(t, note.CreatedAt.After(note.UpdatedAt))
}

func TestService_Get_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing1")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestService_Save_PreservesCreatedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "ab12CD34", "v1", "first", time.Time{}))
	first, err := svc.Get(ctx, "ab12CD34")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.Save(ctx, "ab12CD34", "v2", "second", time.Time{}))
	second, err := svc.Get(ctx, "ab12CD34")
	require.NoError(t, err)

	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, "second", second.Content)
}

func TestService_List_TruncatesContent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	long := "Buy milk" + strings.Repeat("x", 200)
	require.NoError(t, svc.Save(ctx, "ab12CD34", "Todo", long, time.Time{}))

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	got := summaries[0].Content
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, SummaryContentLimit, len([]rune(strings.TrimSuffix(got, "…"))))
	assert.Equal(t, string([]rune(long)[:SummaryContentLimit]), strings.TrimSuffix(got, "…"))

	// a full fetch still returns the whole content
	note, err := svc.Get(ctx, "ab12CD34")
	require.NoError(t, err)
	assert.Equal(t, long, note.Content)
}

func TestService_List_OrderedByRecency(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "older111", "old", "", time.Time{}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.Save(ctx, "newer222", "new", "", time.Time{}))

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "newer222", summaries[0].ID)
	assert.Equal(t, "older111", summaries[1].ID)
}

func TestService_List_DegradesToUntitledOnAuthFailure(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "goodnote", "Fine", "intact", time.Time{}))
	require.NoError(t, svc.Save(ctx, "badnote1", "Broken", "corrupted", time.Time{}))

	// corrupt the stored heading ciphertext
	repo.mu.Lock()
	repo.rows["badnote1"].Heading.Ciphertext[0] ^= 0x01
	repo.mu.Unlock()

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]*models.NoteSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.Equal(t, UntitledHeading, byID["badnote1"].Heading)
	assert.Equal(t, "", byID["badnote1"].Content)
	assert.Equal(t, "Fine", byID["goodnote"].Heading)
}

func TestService_Get_PropagatesAuthFailure(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "badnote1", "Broken", "data", time.Time{}))
	repo.mu.Lock()
	repo.rows["badnote1"].Content.Ciphertext[0] ^= 0x01
	repo.mu.Unlock()

	_, err := svc.Get(ctx, "badnote1")
	assert.True(t, errors.Is(err, cryptox.ErrAuthentication))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short", Summarize("short"))

	exact := strings.Repeat("a", SummaryContentLimit)
	assert.Equal(t, exact, Summarize(exact))

	over := exact + "b"
	assert.Equal(t, exact+"…", Summarize(over))

	// rune-aware, not byte-aware
	cyrillic := strings.Repeat("ж", SummaryContentLimit+1)
	assert.Equal(t, strings.Repeat("ж", SummaryContentLimit)+"…", Summarize(cyrillic))
}
