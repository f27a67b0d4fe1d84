package getall

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	authMiddleware "github.com/wenliang8102/Entropy-Notes-backend/internal/middleware"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/models"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/api/response"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/logger/sl"
)

type AllNotesGetter interface {
	GetAllNotes(ownerID uuid.UUID, limit, offset int) ([]models.Note, error)
}

// New lists the caller's notes ordered by updatedAt descending. Optional
// limit/offset query params paginate; absent or invalid values mean no
// pagination.
func New(log *slog.Logger, allNotesGetter AllNotesGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.getall.New"

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

		limit := 0
		offset := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				limit = v
			}
		}
		if o := r.URL.Query().Get("offset"); o != "" {
			if v, err := strconv.Atoi(o); err == nil && v > 0 {
				offset = v
			}
		}

		notes, err := allNotesGetter.GetAllNotes(identity.UserID, limit, offset)
		if err != nil {
			log.Error("failed to get notes", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		log.Info("notes were delivered successfully", slog.Int("count", len(notes)))
		render.JSON(w, r, notes)
	}
}
