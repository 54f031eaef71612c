package handlers

import (
	"errors"
	"net/http"

	"github.com/skillswap/backend/internal/chat"
	"github.com/skillswap/backend/internal/logging"
)

// ChatHandler upgrades signed-in members into the chat room.
type ChatHandler struct {
	Chat      ChatServer
	Directory Directory
}

// Connect handles GET /api/v1/chat.
func (h ChatHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Chat == nil {
		logger.Error("chat hub unavailable")
		respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"error": "chat unavailable"})
		return
	}

	userID := currentUserID(ctx)
	if userID == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "user not logged in"})
		return
	}

	participant := chat.Participant{ID: userID, Name: userID}
	if h.Directory != nil {
		if profile, ok := h.Directory.Get(userID); ok {
			participant.Name = profile.Name
		}
	}

	if err := h.Chat.ServeWS(w, r, participant); err != nil {
		if errors.Is(err, chat.ErrHubClosed) {
			respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"error": "chat unavailable"})
			return
		}
		// The upgrader has already written the handshake error.
		logger.Warn("chat upgrade failed", "error", err, "userId", userID)
	}
}
