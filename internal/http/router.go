package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dialogues/internal/accounts"
	"dialogues/internal/config"
	"dialogues/internal/dialogues"
	"dialogues/internal/profiles"
)

// Services bundles the application services the router exposes.
type Services struct {
	Accounts  *accounts.Service
	Profiles  profiles.Repository
	Dialogues *dialogues.Service
	Google    googleAuthenticator
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, svcs Services, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	authHandler := NewAuthHandler(svcs.Accounts, logger)
	profileHandler := NewProfileHandler(svcs.Profiles, logger)
	dialogueHandler := NewDialogueHandler(svcs.Dialogues, svcs.Profiles, logger)

	requireAuth := newAuthMiddleware(svcs.Accounts, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/token", authHandler.Token)
			r.Post("/signout", authHandler.SignOut)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/user", authHandler.User)
			})

			if svcs.Google != nil {
				oauthHandler := NewOAuthHandler(svcs.Google, svcs.Accounts, cfg.FrontendURL, cfg.Environment, logger)
				r.Get("/google", oauthHandler.InitiateGoogle)
				r.Get("/google/callback", oauthHandler.CallbackGoogle)
			}
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", profileHandler.Find)
			r.Get("/{username}/dialogues", dialogueHandler.ListByUsername)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", profileHandler.Create)
				r.Patch("/{userID}", profileHandler.Update)
			})
		})

		r.Route("/dialogues", func(r chi.Router) {
			r.Get("/", dialogueHandler.List)
			r.Get("/{id}", dialogueHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", dialogueHandler.Create)
				r.Get("/export", dialogueHandler.Export)
			})
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
