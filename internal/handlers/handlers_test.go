package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/store"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/director"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

type stubCollab func(ctx context.Context, action, contextText string) (string, error)

func (s stubCollab) Respond(ctx context.Context, action, contextText string) (string, error) {
	return s(ctx, action, contextText)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestGame(t *testing.T) *services.GameService {
	t.Helper()

	canned := stubCollab(func(ctx context.Context, action, contextText string) (string, error) {
		return "The road winds on.", nil
	})
	collaborators := map[string]director.Collaborator{
		director.CollaboratorNarrator: canned,
		director.CollaboratorGuide:    canned,
		director.CollaboratorMechanic: canned,
	}

	policy := director.NewPolicy(rand.New(rand.NewSource(1)))
	policy.CommentaryChance = 0

	game, err := services.NewGameService(services.GameConfig{
		Store:        store.NewMemoryStore(),
		Orchestrator: director.NewOrchestrator(collaborators, time.Second, testLogger()),
		Policy:       policy,
		Engine:       combat.NewEngine(nil),
		Narrator:     canned,
		Logger:       testLogger(),
	})
	require.NoError(t, err)
	return game
}

func createSession(t *testing.T, game *services.GameService) *session.State {
	t.Helper()
	state, err := game.CreateSession(context.Background())
	require.NoError(t, err)
	return state
}

func attachCharacter(t *testing.T, game *services.GameService, id uuid.UUID) {
	t.Helper()
	sheet, err := actor.NewCharacterSheet("Brynn", "Human", "Fighter", actor.Stats{
		Strength: 14, Dexterity: 12, Constitution: 13,
		Intelligence: 10, Wisdom: 11, Charisma: 9,
	}, 12, 13)
	require.NoError(t, err)
	_, err = game.SetCharacter(context.Background(), id, sheet)
	require.NoError(t, err)
}

func TestSessionHandler_CreateAndGet(t *testing.T) {
	game := newTestGame(t)
	handler := NewSessionHandler(game, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created session.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, session.PhaseOnboarding, created.Phase)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+created.ID.String(), nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	game := newTestGame(t)
	handler := NewSessionHandler(game, testLogger())
	state := createSession(t, game)

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+state.ID.String(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+state.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_SetCharacter(t *testing.T) {
	game := newTestGame(t)
	handler := NewSessionHandler(game, testLogger())
	state := createSession(t, game)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid character",
			body:           `{"name":"Brynn","race":"Human","class":"Fighter","stats":{"strength":14,"dexterity":12,"constitution":13,"intelligence":10,"wisdom":11,"charisma":9},"max_hp":12,"ac":13}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing name",
			body:           `{"race":"Human","class":"Fighter","stats":{"strength":14,"dexterity":12,"constitution":13,"intelligence":10,"wisdom":11,"charisma":9},"max_hp":12,"ac":13}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "out of range stats",
			body:           `{"name":"Brynn","stats":{"strength":25,"dexterity":12,"constitution":13,"intelligence":10,"wisdom":11,"charisma":9},"max_hp":12,"ac":13}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost,
				"/v1/sessions/"+state.ID.String()+"/character",
				bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestTurnHandler(t *testing.T) {
	game := newTestGame(t)
	handler := NewTurnHandler(game, testLogger())
	state := createSession(t, game)
	attachCharacter(t, game, state.ID)

	t.Run("successful turn", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost,
			"/v1/sessions/"+state.ID.String()+"/turn",
			bytes.NewBufferString(`{"action":"walk north"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp turnResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "The road winds on.", resp.Narrative)
		assert.Len(t, resp.Options, 3)
	})

	t.Run("empty action", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost,
			"/v1/sessions/"+state.ID.String()+"/turn",
			bytes.NewBufferString(`{"action":""}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost,
			"/v1/sessions/"+uuid.NewString()+"/turn",
			bytes.NewBufferString(`{"action":"look"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/v1/sessions/"+state.ID.String()+"/turn", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCombatHandler(t *testing.T) {
	game := newTestGame(t)
	handler := NewCombatHandler(game, testLogger())
	state := createSession(t, game)
	attachCharacter(t, game, state.ID)

	t.Run("list enemy types", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/enemies", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var types []string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&types))
		assert.GreaterOrEqual(t, len(types), 5)
	})

	t.Run("start combat", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost,
			"/v1/sessions/"+state.ID.String()+"/combat",
			bytes.NewBufferString(`{"enemy_type":"bandit"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp startCombatResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.Initiative, 2)
		assert.Equal(t, session.PhaseCombat, resp.Session.Phase)
	})

	t.Run("unknown enemy type", func(t *testing.T) {
		other := createSession(t, game)
		attachCharacter(t, game, other.ID)
		req := httptest.NewRequest(http.MethodPost,
			"/v1/sessions/"+other.ID.String()+"/combat",
			bytes.NewBufferString(`{"enemy_type":"dragon"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	game := newTestGame(t)

	t.Run("healthy", func(t *testing.T) {
		chat := services.NewMockChatService()
		handler := NewHealthHandler(game, chat, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Status)
		assert.False(t, resp.Degraded)
	})

	t.Run("collaborator backend down", func(t *testing.T) {
		chat := services.NewMockChatService()
		chat.PingFunc = func(ctx context.Context) error {
			return context.DeadlineExceeded
		}
		handler := NewHealthHandler(game, chat, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var resp healthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Collaborators)
	})
}
