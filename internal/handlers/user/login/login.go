package login

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wenliang8102/Entropy-Notes-backend/internal/models"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/storage"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/api/response"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/hasher"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/logger/sl"
)

type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Response struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type UserProvider interface {
	GetUserByUsername(username string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, username string) (string, error)
}

func New(log *slog.Logger, userProvider UserProvider, tokens TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Please provide both username and password."))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		// Unknown user and wrong password answer identically so the
		// response never reveals which half of the pair was wrong.
		user, err := userProvider.GetUserByUsername(req.Username)
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", slog.String("username", req.Username))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid credentials."))
			return
		}
		if err != nil {
			log.Error("failed to get user", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		if !hasher.Verify(req.Password, user.PasswordHash) {
			log.Warn("invalid password", slog.String("username", req.Username))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid credentials."))
			return
		}
		token, err := tokens.GenerateToken(user.ID, user.Username)
		if err != nil {
			log.Error("failed to generate token", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		log.Info("user successfully logged in", slog.String("username", req.Username))

		render.JSON(w, r, Response{
			Message: "Login successful!",
			Token:   token,
		})
	}
}
