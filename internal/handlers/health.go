package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/adventure-engine/internal/services"
)

// HealthHandler reports readiness of the store and the collaborator
// backend, plus the degraded-durability flag.
type HealthHandler struct {
	game   *services.GameService
	chat   services.ChatService
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(game *services.GameService, chat services.ChatService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{game: game, chat: chat, logger: logger}
}

type healthResponse struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	Collaborators string `json:"collaborators"`
	Degraded      bool   `json:"degraded"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	resp := healthResponse{
		Status:        "ok",
		Store:         "ok",
		Collaborators: "ok",
		Degraded:      h.game.Degraded(),
	}
	status := http.StatusOK

	if err := h.game.Ping(r.Context()); err != nil {
		h.logger.Warn("Store health check failed", "error", err)
		resp.Store = "unavailable"
		resp.Status = "degraded"
	}
	if h.chat != nil {
		if err := h.chat.Ping(r.Context()); err != nil {
			h.logger.Warn("Collaborator health check failed", "error", err)
			resp.Collaborators = "unavailable"
			resp.Status = "degraded"
		}
	}
	if resp.Degraded {
		resp.Status = "degraded"
	}

	writeJSON(w, h.logger, status, resp)
}
