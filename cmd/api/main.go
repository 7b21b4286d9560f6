package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"dialogues/internal/accounts"
	"dialogues/internal/config"
	"dialogues/internal/dialogues"
	transporthttp "dialogues/internal/http"
	"dialogues/internal/platform/database"
	"dialogues/internal/platform/logging"
	"dialogues/internal/platform/migrate"
	"dialogues/internal/profiles"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	accountRepo, profileRepo, dialogueRepo, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repositories", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	accountService := accounts.NewService(accountRepo, cfg.TokenSecret, cfg.TokenTTL)
	dialogueService := dialogues.NewService(dialogueRepo)

	if cfg.UseInMemoryStore() {
		seedDemoData(ctx, accountService, profileRepo, dialogueService, logger)
	}

	svcs := transporthttp.Services{
		Accounts:  accountService,
		Profiles:  profileRepo,
		Dialogues: dialogueService,
	}

	if cfg.GoogleEnabled() {
		google, err := accounts.NewGoogleAuthenticator(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.GoogleDomains)
		if err != nil {
			logger.Error("failed to initialize Google OAuth", "error", err)
			os.Exit(1)
		}
		svcs.Google = google
		logger.Info("Google OAuth enabled")
	}

	router := transporthttp.NewRouter(cfg, svcs, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Dialogues API listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go sessionJanitor(ctx, accountService, logger)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (accounts.Repository, profiles.Repository, dialogues.Repository, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repositories")
		return accounts.NewInMemoryRepository(), profiles.NewInMemoryRepository(), dialogues.NewInMemoryRepository(nil), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	}

	logger.Info("connected to postgres")
	return accounts.NewPostgresRepository(db), profiles.NewPostgresRepository(db), dialogues.NewPostgresRepository(db), cleanup, nil
}

// sessionJanitor periodically removes expired session rows.
func sessionJanitor(ctx context.Context, accountService *accounts.Service, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := accountService.CleanupExpiredSessions(ctx)
			if err != nil {
				logger.Error("session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
