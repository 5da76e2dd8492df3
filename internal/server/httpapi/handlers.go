package httpapi

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/server/notes"
)

type newNoteResponse struct {
	NoteURL string `json:"noteUrl"`
}

type noteResponse struct {
	NoteID      string     `json:"noteId"`
	Heading     string     `json:"heading"`
	Content     string     `json:"content"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	IsLocalData bool       `json:"isLocalData,omitempty"`
}

type saveRequest struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type summaryResponse struct {
	NoteID      string    `json:"noteId"`
	Heading     string    `json:"heading"`
	Content     string    `json:"content"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IsLocalData bool      `json:"isLocalData,omitempty"`
}

// newNote hands out a fresh random note id. Nothing is persisted until the
// note is first fetched or saved.
func (s *Server) newNote(c echo.Context) error {
	id, err := common.MakeRandAlphanumString(common.NoteIDLength)
	if err != nil {
		s.logger.Error(c.Request().Context(), "id generation failed", "error", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Could not create note"})
	}
	return c.JSON(http.StatusOK, newNoteResponse{NoteURL: id})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getNote serves the pending in-memory record when one exists, so readers
// never see a staler value than the latest edit. Otherwise it reads the
// store, creating an empty note on first fetch of an unknown id.
func (s *Server) getNote(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if p, ok := s.autosave.Get(id); ok {
		return c.JSON(http.StatusOK, noteResponse{
			NoteID:      id,
			Heading:     p.Heading,
			Content:     p.Content,
			UpdatedAt:   p.StartedAt,
			IsLocalData: true,
		})
	}

	note, err := s.notes.Get(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		if err := s.notes.Save(ctx, id, "", "", time.Time{}); err != nil {
			s.logger.Error(ctx, "creating empty note failed", "id", id, "error", err)
			return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Could not load note"})
		}
		note, err = s.notes.Get(ctx, id)
	}
	if err != nil {
		s.logger.Error(ctx, "fetching note failed", "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Could not load note"})
	}

	createdAt := note.CreatedAt
	return c.JSON(http.StatusOK, noteResponse{
		NoteID:    note.ID,
		Heading:   note.Heading,
		Content:   note.Content,
		CreatedAt: &createdAt,
		UpdatedAt: note.UpdatedAt,
	})
}

// saveNote records a coalesced edit; the durable write happens when the
// auto-save window elapses.
func (s *Server) saveNote(c echo.Context) error {
	id := c.Param("id")

	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "Invalid request body"})
	}

	s.autosave.RecordEdit(id, req.Heading, req.Content)
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "Changes scheduled"})
}

// forceSaveNote writes immediately, bypassing the auto-save window.
func (s *Server) forceSaveNote(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "Invalid request body"})
	}

	if err := s.autosave.ForceFlush(ctx, id, req.Heading, req.Content); err != nil {
		s.logger.Error(ctx, "force save failed", "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Could not save note"})
	}
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "Note saved"})
}

// deleteNote drops any pending edits and removes the stored row. Deleting an
// id that was never persisted still reports success.
func (s *Server) deleteNote(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	s.autosave.Discard(id)

	err := s.notes.Delete(ctx, id)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "deleting note failed", "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Could not delete note"})
	}
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "Note deleted"})
}

// listNotes merges stored summaries with pending in-memory records. Pending
// entries come first, newest edit session first, and shadow their stale
// stored counterparts.
func (s *Server) listNotes(c echo.Context) error {
	ctx := c.Request().Context()

	stored, err := s.notes.List(ctx)
	if err != nil {
		s.logger.Error(ctx, "listing notes failed", "error", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Could not list notes"})
	}

	pending := s.autosave.All()

	out := make([]summaryResponse, 0, len(stored)+len(pending))
	for id, p := range pending {
		out = append(out, summaryResponse{
			NoteID:      id,
			Heading:     p.Heading,
			Content:     notes.Summarize(p.Content),
			UpdatedAt:   p.StartedAt,
			IsLocalData: true,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	for _, n := range stored {
		if _, ok := pending[n.ID]; ok {
			continue
		}
		out = append(out, summaryResponse{
			NoteID:    n.ID,
			Heading:   n.Heading,
			Content:   n.Content,
			UpdatedAt: n.UpdatedAt,
		})
	}

	return c.JSON(http.StatusOK, out)
}
