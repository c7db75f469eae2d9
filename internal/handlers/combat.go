package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/store"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// CombatHandler starts encounters and lists enemy types:
//
//	POST /v1/sessions/{id}/combat
//	GET  /v1/enemies
type CombatHandler struct {
	game   *services.GameService
	logger *slog.Logger
}

// NewCombatHandler creates a new combat handler.
func NewCombatHandler(game *services.GameService, logger *slog.Logger) *CombatHandler {
	return &CombatHandler{game: game, logger: logger}
}

type startCombatRequest struct {
	EnemyType string `json:"enemy_type"`
}

type startCombatResponse struct {
	Session    *session.State            `json:"session"`
	Initiative []combat.InitiativeResult `json:"initiative"`
}

func (h *CombatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/enemies" {
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, actor.ListEnemyTypes())
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	id, subpath, hasID := sessionIDFromPath(r.URL.Path, "/v1/sessions")
	if !hasID || subpath != "combat" {
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
		return
	}

	var req startCombatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EnemyType == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'enemy_type' field.")
		return
	}

	state, initiative, err := h.game.StartCombat(r.Context(), id, req.EnemyType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, startCombatResponse{
		Session:    state,
		Initiative: initiative,
	})
}
