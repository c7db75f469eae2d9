package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/store"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
)

// SessionHandler manages session lifecycle:
//
//	POST   /v1/sessions                     create (optional id for get-or-create)
//	GET    /v1/sessions/{id}                load
//	DELETE /v1/sessions/{id}                delete
//	POST   /v1/sessions/{id}/character      attach character sheet
//	POST   /v1/sessions/{id}/quest          set active quest
//	POST   /v1/sessions/{id}/quest/complete complete active quest
type SessionHandler struct {
	game   *services.GameService
	logger *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(game *services.GameService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{game: game, logger: logger}
}

type createSessionRequest struct {
	SessionID uuid.UUID `json:"session_id,omitempty"`
}

type characterRequest struct {
	Name  string      `json:"name"`
	Race  string      `json:"race"`
	Class string      `json:"class"`
	Stats actor.Stats `json:"stats"`
	MaxHP int         `json:"max_hp"`
	AC    int         `json:"ac"`
}

type questRequest struct {
	Quest string `json:"quest"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, subpath, hasID := sessionIDFromPath(r.URL.Path, "/v1/sessions")

	switch {
	case !hasID && r.Method == http.MethodPost:
		h.create(w, r)
	case hasID && subpath == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case hasID && subpath == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case hasID && subpath == "character" && r.Method == http.MethodPost:
		h.setCharacter(w, r, id)
	case hasID && subpath == "quest" && r.Method == http.MethodPost:
		h.setQuest(w, r, id)
	case hasID && subpath == "quest/complete" && r.Method == http.MethodPost:
		h.completeQuest(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	// An empty body means a plain create.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.SessionID = uuid.Nil
	}

	state, err := h.game.GetOrCreateSession(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session.")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, state)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	state, err := h.game.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, state)
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	deleted, err := h.game.DeleteSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session.")
		return
	}
	if !deleted {
		writeError(w, h.logger, http.StatusNotFound, "Session not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) setCharacter(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	sheet, err := actor.NewCharacterSheet(req.Name, req.Race, req.Class, req.Stats, req.MaxHP, req.AC)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.game.SetCharacter(r.Context(), id, sheet)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		h.logger.Error("Failed to set character", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to set character.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, state)
}

func (h *SessionHandler) setQuest(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req questRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quest == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'quest' field.")
		return
	}

	state, err := h.game.SetQuest(r.Context(), id, req.Quest)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to set quest.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, state)
}

func (h *SessionHandler) completeQuest(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	state, err := h.game.CompleteQuest(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, state)
}
