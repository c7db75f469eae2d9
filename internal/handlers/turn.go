package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/store"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
)

// TurnHandler processes player turns:
//
//	POST /v1/sessions/{id}/turn
type TurnHandler struct {
	game   *services.GameService
	logger *slog.Logger
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(game *services.GameService, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{game: game, logger: logger}
}

type turnRequest struct {
	Action string `json:"action"`
}

type turnResponse struct {
	Narrative string            `json:"narrative"`
	Options   []string          `json:"options"`
	Errored   bool              `json:"errored,omitempty"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	id, subpath, hasID := sessionIDFromPath(r.URL.Path, "/v1/sessions")
	if !hasID || subpath != "turn" {
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'action' field.")
		return
	}
	if req.Action == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Action cannot be empty.")
		return
	}

	result, err := h.game.ProcessTurn(r.Context(), id, req.Action)
	if err != nil {
		var invalid *combat.ErrInvalidAction
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
		case errors.As(err, &invalid):
			writeError(w, h.logger, http.StatusBadRequest, invalid.Error())
		default:
			h.logger.Error("Turn processing failed", "session_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn.")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, turnResponse{
		Narrative: result.Narrative,
		Options:   result.Options,
		Errored:   result.Errored,
		Outputs:   result.Outputs,
		Reason:    result.Decision.Reason,
	})
}
