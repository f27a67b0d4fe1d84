package delete

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

type NoteDeleter interface {
	GetNoteByID(id uuid.UUID) (*models.Note, error)
	DeleteNote(id uuid.UUID) error
}

func New(log *slog.Logger, noteDeleter NoteDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.delete.New"

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
		note, err := noteDeleter.GetNoteByID(noteID)
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
			log.Warn("unauthorized delete attempt",
				slog.String("note_id", noteID.String()),
				slog.String("caller_id", identity.UserID.String()),
			)
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Not authorized"))
			return
		}

		err = noteDeleter.DeleteNote(noteID)
		if errors.Is(err, storage.ErrNoteNotFound) {
			log.Info("note not found", slog.String("note_id", noteID.String()))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Note not found"))
			return
		}
		if err != nil {
			log.Error("failed to delete note", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}

		log.Info("note successfully deleted", slog.String("note_id", noteID.String()))
		render.JSON(w, r, response.OK("Note removed successfully"))
	}
}
