package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/wenliang8102/Entropy-Notes-backend/internal/config"
	noteDelete "github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/note/delete"
	noteGet "github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/note/get"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/note/getall"
	noteSave "github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/note/save"
	noteUpdate "github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/note/update"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/user/login"
	userSave "github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/user/save"
	authMiddleware "github.com/wenliang8102/Entropy-Notes-backend/internal/middleware"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/storage/postgres"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/auth"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/logger/handlers/slogpretty"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/logger/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}
	log := setupLogger(cfg.Env)

	log.Info("starting notes service", slog.String("env", cfg.Env))
	log.Debug("debug log enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	if err := storage.RunMigrations(context.Background()); err != nil {
		log.Error("failed to run migrations", sl.Err(err))
		os.Exit(1)
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", userSave.New(log, storage))
		r.Post("/auth/login", login.New(log, storage, tokens))

		r.Route("/notes", func(r chi.Router) {
			r.Use(authMiddleware.Auth(tokens))
			r.Post("/", noteSave.New(log, storage))
			r.Get("/", getall.New(log, storage))
			r.Get("/{note_id}", noteGet.New(log, storage))
			r.Put("/{note_id}", noteUpdate.New(log, storage))
			r.Delete("/{note_id}", noteDelete.New(log, storage))
		})
	})

	log.Info("starting server", slog.String("address", cfg.Address))
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Error("failed to start server", sl.Err(err))
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}
	handler := opts.NewPrettyHandler(os.Stdout)
	return slog.New(handler)
}
