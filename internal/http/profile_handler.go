package http

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dialogues/internal/profiles"
)

// ProfileHandler exposes profile row endpoints. Reads are public; writes are
// restricted to the profile's own account.
type ProfileHandler struct {
	repo   profiles.Repository
	logger *slog.Logger
}

// NewProfileHandler creates a handler.
func NewProfileHandler(repo profiles.Repository, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{repo: repo, logger: logger}
}

// Find handles GET /api/profiles?user_id=|username=. Exactly one selector is
// required; an absent row is a 404, which clients treat as "no profile yet".
func (h *ProfileHandler) Find(w http.ResponseWriter, r *http.Request) {
	rawUserID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	username := strings.TrimSpace(r.URL.Query().Get("username"))

	if (rawUserID == "") == (username == "") {
		writeError(w, http.StatusBadRequest, "exactly one of user_id or username is required")
		return
	}

	var (
		profile *profiles.Profile
		err     error
	)
	if rawUserID != "" {
		userID, parseErr := uuid.Parse(rawUserID)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		profile, err = h.repo.FindByUserID(r.Context(), userID)
	} else {
		profile, err = h.repo.FindByUsername(r.Context(), username)
	}

	if err != nil {
		h.logger.Error("find profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to look up profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Create handles POST /api/profiles. The profile is always created for the
// authenticated account, regardless of the user_id in the payload.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload profiles.Profile
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	payload.UserID = user.ID
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	created, err := h.repo.Insert(r.Context(), payload)
	if err != nil {
		if errors.Is(err, profiles.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		h.logger.Error("create profile", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Update handles PATCH /api/profiles/{userID}. Accounts may only modify their
// own profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if userID != user.ID {
		writeError(w, http.StatusForbidden, "cannot modify another account's profile")
		return
	}

	var update profiles.Update
	if err := decodeJSONBody(w, r, &update); err != nil {
		writeJSONError(w, err)
		return
	}
	if update.IsEmpty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if update.Username != nil && strings.TrimSpace(*update.Username) == "" {
		writeError(w, http.StatusBadRequest, "username cannot be empty")
		return
	}

	if err := h.repo.Update(r.Context(), userID, update); err != nil {
		switch {
		case errors.Is(err, profiles.ErrNotFound):
			writeError(w, http.StatusNotFound, "profile not found")
		case errors.Is(err, profiles.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "username already taken")
		default:
			h.logger.Error("update profile", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	profile, err := h.repo.FindByUserID(r.Context(), userID)
	if err != nil || profile == nil {
		h.logger.Error("reload profile after update", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load updated profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
