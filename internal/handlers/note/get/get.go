package get

import (
	"errors"
	"log/slog"
	"net/http"

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

type NoteGetter interface {
	GetNoteByID(id uuid.UUID) (*models.Note, error)
}

func New(log *slog.Logger, noteGetter NoteGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.get.New"

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

		// A malformed id is indistinguishable from a missing note;
		// the id format never leaks.
		noteID, err := uuid.Parse(chi.URLParam(r, "note_id"))
		if err != nil {
			log.Info("malformed note id", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Note not found"))
			return
		}
		note, err := noteGetter.GetNoteByID(noteID)
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

		if note.OwnerID != identity.UserID {
			log.Warn("unauthorized access to note",
				slog.String("note_id", noteID.String()),
				slog.String("owner_id", note.OwnerID.String()),
				slog.String("caller_id", identity.UserID.String()),
			)
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Not authorized"))
			return
		}
		log.Info("note was delivered successfully", slog.String("note_id", noteID.String()))
		render.JSON(w, r, note)
	}
}
