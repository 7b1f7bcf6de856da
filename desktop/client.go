package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Cell is a board coordinate as sent by the server.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot mirrors the server's board snapshot.
type Snapshot struct {
	Pile         []Cell `json:"pile"`
	Active       []Cell `json:"active"`
	Score        int    `json:"score"`
	Kind         string `json:"kind"`
	Anchor       Cell   `json:"anchor"`
	Rotation     int    `json:"rotation"`
	Intent       string `json:"intent"`
	Landed       bool   `json:"landed"`
	GameOver     bool   `json:"game_over"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Ticks        int    `json:"ticks"`
	LinesCleared int    `json:"lines_cleared"`
	PiecesLocked int    `json:"pieces_locked"`
}

// WSMessage is a server push. Snapshot is set for state updates.
type WSMessage struct {
	SessionID string    `json:"session_id"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
	Event     string    `json:"event,omitempty"`
}

// ClientMessage is a player input sent over the socket.
type ClientMessage struct {
	Action string `json:"action"`
	Count  int    `json:"count,omitempty"`
}

// SessionInfo is a session as returned by the sessions endpoints.
type SessionInfo struct {
	ID         string    `json:"id"`
	ConfigName string    `json:"config_name"`
	Snapshot   *Snapshot `json:"snapshot"`
}

// ConfigListItem is a preset as listed by the configs endpoint.
type ConfigListItem struct {
	ConfigID       string `json:"config_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	TickIntervalMS int    `json:"tick_interval_ms"`
	AutoLock       bool   `json:"auto_lock"`
}

// apiClient talks to the Blockfall REST API.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %v (body: %s)", err, string(data))
	}
	return nil
}

func (c *apiClient) createSession(configID string) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do(http.MethodPost, "/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *apiClient) getSession(id string) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do(http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *apiClient) listConfigs() ([]ConfigListItem, error) {
	var configs []ConfigListItem
	if err := c.do(http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// start runs the server-side clock for a session. An already running clock
// is not an error.
func (c *apiClient) start(id string) error {
	err := c.do(http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/start", nil, nil)
	if err != nil && strings.Contains(err.Error(), "already running") {
		return nil
	}
	return err
}

func (c *apiClient) stop(id string) error {
	return c.do(http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/stop", nil, nil)
}

// wsURL derives the WebSocket endpoint for a session from the API base URL.
func wsURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := url.Values{}
	q.Set("session", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func dialSession(baseURL, sessionID string) (*websocket.Conn, error) {
	target, err := wsURL(baseURL, sessionID)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	return conn, err
}
