package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"dialogues/internal/accounts"
)

// AuthHandler exposes the password-credential session endpoints.
type AuthHandler struct {
	accounts *accounts.Service
	logger   *slog.Logger
}

// NewAuthHandler creates a handler.
func NewAuthHandler(accountService *accounts.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accountService, logger: logger}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionView struct {
	User        userView  `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newSessionView(user *accounts.User, token string, expiresAt time.Time) sessionView {
	return sessionView{
		User:        userView{ID: user.ID.String(), Email: user.Email},
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}
}

// SignUp handles POST /api/auth/signup. Accounts are usable immediately: the
// response carries the first session token.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	email := strings.TrimSpace(payload.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(payload.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := h.accounts.Register(r.Context(), email, payload.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("sign up failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	token, expiresAt, err := h.accounts.IssueToken(r.Context(), user)
	if err != nil {
		h.logger.Error("token issue failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	h.logger.Info("account created", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, newSessionView(user, token, expiresAt))
}

// Token handles POST /api/auth/token, exchanging credentials for a session.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("sign in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not sign in")
		return
	}

	token, expiresAt, err := h.accounts.IssueToken(r.Context(), user)
	if err != nil {
		h.logger.Error("token issue failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusOK, newSessionView(user, token, expiresAt))
}

// SignOut handles POST /api/auth/signout, revoking the presented token.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		unauthorized(w)
		return
	}

	if err := h.accounts.RevokeToken(r.Context(), token); err != nil {
		h.logger.Error("sign out failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not sign out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// User handles GET /api/auth/user, revalidating the presented token.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userView{ID: user.ID.String(), Email: user.Email},
	})
}
