package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

// Client drives one session through the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// snapshotResponse matches every action response; they all carry the
// snapshot after the action.
type snapshotResponse struct {
	ID       string           `json:"id,omitempty"`
	Locked   bool             `json:"locked,omitempty"`
	NextKind string           `json:"next_kind,omitempty"`
	Snapshot *engine.Snapshot `json:"snapshot"`
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.Snapshot, error) {
	var resp snapshotResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]string{"config_id": configID}, &resp); err != nil {
		return nil, err
	}
	c.sessionID = resp.ID
	return resp.Snapshot, nil
}

// UseSession points the client at an existing session.
func (c *Client) UseSession(ctx context.Context, id string) (*engine.Snapshot, error) {
	c.sessionID = id
	return c.State(ctx)
}

func (c *Client) State(ctx context.Context) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := c.do(ctx, http.MethodGet, c.path("state"), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) SetIntent(ctx context.Context, intent engine.Intent) (*engine.Snapshot, error) {
	return c.action(ctx, "intent", map[string]string{"intent": intent.String()})
}

func (c *Client) Rotate(ctx context.Context) (*engine.Snapshot, error) {
	return c.action(ctx, "rotate", nil)
}

func (c *Client) Tick(ctx context.Context, count int) (*engine.Snapshot, error) {
	return c.action(ctx, "tick", map[string]int{"count": count})
}

// Lock reports whether the server accepted the lock.
func (c *Client) Lock(ctx context.Context) (*engine.Snapshot, bool, error) {
	var resp snapshotResponse
	if err := c.do(ctx, http.MethodPost, c.path("lock"), nil, &resp); err != nil {
		return nil, false, err
	}
	return resp.Snapshot, resp.Locked, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.Snapshot, error) {
	return c.action(ctx, "reset", nil)
}

func (c *Client) action(ctx context.Context, name string, body interface{}) (*engine.Snapshot, error) {
	var resp snapshotResponse
	if err := c.do(ctx, http.MethodPost, c.path(name), body, &resp); err != nil {
		return nil, err
	}
	if resp.Snapshot == nil {
		return nil, fmt.Errorf("%s: response has no snapshot", name)
	}
	return resp.Snapshot, nil
}

func (c *Client) path(action string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
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
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, result)
}
