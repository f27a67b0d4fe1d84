package update

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	authMiddleware "github.com/wenliang8102/Entropy-Notes-backend/internal/middleware"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/models"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/storage"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/api/response"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/logger/sl"
)

const conflictMessage = "Conflict: The note has been updated by another source."

// Request distinguishes absent fields from explicit nulls: a nil Title or
// nil Content means "leave unchanged", while a literal JSON null for
// content clears it.
type Request struct {
	Title              *string         `json:"title"`
	Content            json.RawMessage `json:"content"`
	LastKnownUpdatedAt *string         `json:"lastKnownUpdatedAt"`
}

type NoteUpdater interface {
	GetNoteByID(id uuid.UUID) (*models.Note, error)
	UpdateNoteConditional(id uuid.UUID, expected *time.Time, title *string, content json.RawMessage, contentSet bool) (*models.Note, error)
}

func New(log *slog.Logger, noteUpdater NoteUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.update.New"
		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		identity, ok := authMiddleware.GetIdentity(r.Context())
		if !ok {
			log.Error("unauthorized: no identity in context")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Not authorized"))
			return
		}
		noteID, err := uuid.Parse(chi.URLParam(r, "note_id"))
		if err != nil {
			log.Info("malformed note id", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Note not found"))
			return
		}
		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		var expected *time.Time
		if req.LastKnownUpdatedAt != nil {
			t, err := time.Parse(time.RFC3339Nano, *req.LastKnownUpdatedAt)
			if err != nil {
				log.Info("malformed lastKnownUpdatedAt", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid lastKnownUpdatedAt timestamp"))
				return
			}
			expected = &t
		}

		note, err := noteUpdater.GetNoteByID(noteID)
		if errors.Is(err, storage.ErrNoteNotFound) {
			log.Info("note not found", slog.String("note_id", noteID.String()))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Note not found"))
			return
		}
		if err != nil {
			log.Error("failed to get note", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		// Ownership is checked before the conflict comparison and before
		// any mutation.
		if note.OwnerID != identity.UserID {
			log.Warn("unauthorized update attempt",
				slog.String("note_id", noteID.String()),
				slog.String("caller_id", identity.UserID.String()),
			)
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Not authorized"))
			return
		}

		if expected != nil && !expected.Equal(note.UpdatedAt) {
			log.Info("stale update rejected",
				slog.String("note_id", noteID.String()),
				slog.Time("expected", *expected),
				slog.Time("current", note.UpdatedAt),
			)
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Conflict{Message: conflictMessage, LatestNote: note})
			return
		}

		// An explicit "content": null clears the content; an absent field
		// leaves it untouched.
		content := req.Content
		contentSet := content != nil
		if contentSet && bytes.Equal(bytes.TrimSpace(content), []byte("null")) {
			content = nil
		}

		updated, err := noteUpdater.UpdateNoteConditional(noteID, expected, req.Title, content, contentSet)
		if errors.Is(err, storage.ErrNoteConflict) {
			// Lost the compare-and-swap race: the rejection carries the
			// freshly stored note, same as a stale client mismatch.
			log.Info("concurrent update rejected", slog.String("note_id", noteID.String()))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Conflict{Message: conflictMessage, LatestNote: updated})
			return
		}
		if errors.Is(err, storage.ErrNoteNotFound) {
			log.Info("note not found", slog.String("note_id", noteID.String()))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Note not found"))
			return
		}
		if err != nil {
			log.Error("failed to update note", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}

		log.Info("note successfully updated", slog.String("note_id", noteID.String()))
		render.JSON(w, r, updated)
	}
}
