package handlers

import (
	"net/http"
	"strings"

	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/models"
)

// DirectoryHandler exposes the member directory.
type DirectoryHandler struct {
	Directory Directory
}

// List handles GET /api/v1/skills.
func (h DirectoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if h.Directory == nil {
		logging.FromContext(ctx).Error("directory unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "directory unavailable"})
		return
	}

	profiles := h.Directory.List()
	if profiles == nil {
		profiles = []models.Profile{}
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"skills": profiles})
}

// GetUser handles GET /api/v1/users/{userID}.
func (h DirectoryHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if h.Directory == nil {
		logging.FromContext(ctx).Error("directory unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "directory unavailable"})
		return
	}

	id := strings.TrimSpace(r.PathValue("userID"))
	profile, ok := h.Directory.Get(id)
	if !ok {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"id": profile.ID, "name": profile.Name})
}
