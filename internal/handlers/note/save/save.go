package save

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	authMiddleware "github.com/wenliang8102/Entropy-Notes-backend/internal/middleware"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/models"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/api/response"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/logger/sl"
)

type NoteSaver interface {
	SaveNote(ownerID uuid.UUID) (*models.Note, error)
}

// New creates an empty note owned by the caller. The request body is
// ignored; the note starts with the default title and null content.
func New(log *slog.Logger, noteSaver NoteSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.save.New"
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

		note, err := noteSaver.SaveNote(identity.UserID)
		if err != nil {
			log.Error("failed to create note", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		log.Info("note successfully created", slog.String("note_id", note.ID.String()))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, note)
	}
}
