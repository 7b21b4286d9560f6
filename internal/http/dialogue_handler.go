package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dialogues/internal/dialogues"
	"dialogues/internal/exporter"
	"dialogues/internal/profiles"
)

// DialogueHandler exposes the published-dialogue endpoints.
type DialogueHandler struct {
	service  *dialogues.Service
	profiles profiles.Repository
	logger   *slog.Logger
}

// NewDialogueHandler creates a handler.
func NewDialogueHandler(service *dialogues.Service, profileRepo profiles.Repository, logger *slog.Logger) *DialogueHandler {
	return &DialogueHandler{service: service, profiles: profileRepo, logger: logger}
}

// List handles GET /api/dialogues, newest first. An author filter narrows the
// listing to one profile.
func (h *DialogueHandler) List(w http.ResponseWriter, r *http.Request) {
	if rawAuthor := strings.TrimSpace(r.URL.Query().Get("author_id")); rawAuthor != "" {
		authorID, err := strconv.ParseInt(rawAuthor, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid author_id")
			return
		}

		list, err := h.service.ListByAuthor(r.Context(), authorID)
		if err != nil {
			h.logger.Error("list dialogues by author", "author_id", authorID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list dialogues")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"dialogues": list})
		return
	}

	limit := 0
	if rawLimit := strings.TrimSpace(r.URL.Query().Get("limit")); rawLimit != "" {
		value, err := strconv.Atoi(rawLimit)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = value
	}

	list, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list dialogues", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list dialogues")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"dialogues": list})
}

// Get handles GET /api/dialogues/{id}.
func (h *DialogueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	dialogue, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, dialogues.ErrNotFound) {
			writeError(w, http.StatusNotFound, "dialogue not found")
			return
		}
		h.logger.Error("get dialogue", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dialogue")
		return
	}

	writeJSON(w, http.StatusOK, dialogue)
}

// ListByUsername handles GET /api/profiles/{username}/dialogues, resolving
// the username to its profile before listing.
func (h *DialogueHandler) ListByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.profiles.FindByUsername(r.Context(), username)
	if err != nil {
		h.logger.Error("resolve profile by username", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to look up profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	list, err := h.service.ListByAuthor(r.Context(), profile.ID)
	if err != nil {
		h.logger.Error("list dialogues by author", "author_id", profile.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list dialogues")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"dialogues": list})
}

// Export handles GET /api/dialogues/export, streaming the authenticated
// account's own dialogues as a CSV backup.
func (h *DialogueHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	profile, err := h.profiles.FindByUserID(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("resolve author profile", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusForbidden, "a profile is required to export")
		return
	}

	list, err := h.service.ListByAuthor(r.Context(), profile.ID)
	if err != nil {
		h.logger.Error("export dialogues", "author_id", profile.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export dialogues")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dialogues.csv"`)
	if err := exporter.NewCSVExporter().Export(w, list); err != nil {
		h.logger.Error("write csv export", "author_id", profile.ID, "error", err)
	}
}

// Create handles POST /api/dialogues. The author is resolved from the
// authenticated account's profile; accounts without a profile cannot publish.
func (h *DialogueHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	profile, err := h.profiles.FindByUserID(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("resolve author profile", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusForbidden, "a profile is required to publish")
		return
	}

	var payload struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	dialogue, err := h.service.Create(r.Context(), profile.ID, payload.Title, payload.Content)
	if err != nil {
		if errors.Is(err, dialogues.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create dialogue", "author_id", profile.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create dialogue")
		return
	}

	writeJSON(w, http.StatusCreated, dialogue)
}
