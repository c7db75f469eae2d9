package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// ErrorResponse matches the API error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TurnResponse matches the API turn result.
type TurnResponse struct {
	Narrative string            `json:"narrative"`
	Options   []string          `json:"options"`
	Errored   bool              `json:"errored,omitempty"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// CharacterRequest matches the API character creation body.
type CharacterRequest struct {
	Name  string         `json:"name"`
	Race  string         `json:"race"`
	Class string         `json:"class"`
	Stats map[string]int `json:"stats"`
	MaxHP int            `json:"max_hp"`
	AC    int            `json:"ac"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeOrError(body []byte, status, want int, out interface{}) error {
	if status != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", status, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func postJSON(client *http.Client, url string, payload interface{}, want int, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	return decodeOrError(body, resp.StatusCode, want, out)
}

func getJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	return decodeOrError(body, resp.StatusCode, http.StatusOK, out)
}

func createSession(client *http.Client, baseURL string) (*session.State, error) {
	var state session.State
	if err := postJSON(client, baseURL+"/v1/sessions", map[string]string{}, http.StatusCreated, &state); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &state, nil
}

func getSession(client *http.Client, baseURL string, id uuid.UUID) (*session.State, error) {
	var state session.State
	url := fmt.Sprintf("%s/v1/sessions/%s", baseURL, id)
	if err := getJSON(client, url, &state); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &state, nil
}

func setCharacter(client *http.Client, baseURL string, id uuid.UUID, req CharacterRequest) (*session.State, error) {
	var state session.State
	url := fmt.Sprintf("%s/v1/sessions/%s/character", baseURL, id)
	if err := postJSON(client, url, req, http.StatusOK, &state); err != nil {
		return nil, fmt.Errorf("failed to set character: %w", err)
	}
	return &state, nil
}

func sendTurn(client *http.Client, baseURL string, id uuid.UUID, action string) (*TurnResponse, error) {
	var turn TurnResponse
	url := fmt.Sprintf("%s/v1/sessions/%s/turn", baseURL, id)
	if err := postJSON(client, url, map[string]string{"action": action}, http.StatusOK, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func listEnemies(client *http.Client, baseURL string) ([]string, error) {
	var types []string
	if err := getJSON(client, baseURL+"/v1/enemies", &types); err != nil {
		return nil, fmt.Errorf("failed to list enemies: %w", err)
	}
	return types, nil
}

func startCombat(client *http.Client, baseURL string, id uuid.UUID, enemyType string) (*session.State, error) {
	var resp struct {
		Session *session.State `json:"session"`
	}
	url := fmt.Sprintf("%s/v1/sessions/%s/combat", baseURL, id)
	if err := postJSON(client, url, map[string]string{"enemy_type": enemyType}, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}
