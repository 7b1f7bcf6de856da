package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/blockfall/api"
	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/service"
	"github.com/wricardo/mcp-training/blockfall/game/session"
)

// newBackend serves the real REST API over an in-memory session store.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	configs, err := config.NewManager(t.TempDir())
	require.NoError(t, err)
	svc := service.NewGameService(session.NewManager(), configs)
	ts := httptest.NewServer(api.NewServer(svc, nil, nil, zerolog.Nop()))
	t.Cleanup(ts.Close)
	return ts
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	return tc.Text
}

var sessionIDPattern = regexp.MustCompile(`Created session: ([0-9a-f]{4})`)

func createSession(t *testing.T, c *Client) string {
	t.Helper()
	result, err := c.handleCreateSession(context.Background(), call("create_session", nil))
	require.NoError(t, err)
	require.False(t, result.IsError, text(t, result))
	m := sessionIDPattern.FindStringSubmatch(text(t, result))
	require.Len(t, m, 2)
	return m[1]
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080")

	require.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
	assert.NotNil(t, client.HTTPHandler())
}

func TestClient_apiCall_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "game is over"})
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall(context.Background(), http.MethodPost, "/api/sessions/x/lock", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "game is over", err.Error())
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall(context.Background(), http.MethodGet, "/api", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	err := NewClient("http://127.0.0.1:1").apiCall(context.Background(), http.MethodGet, "/api", nil, nil)
	assert.Error(t, err)
}

func TestClient_PlayThroughTools(t *testing.T) {
	c := NewClient(newBackend(t).URL)
	ctx := context.Background()
	id := createSession(t, c)

	result, err := c.handleGameState(ctx, call("game_state", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	out := text(t, result)
	assert.Contains(t, out, "Piece: J rotation 0 at (7,0)")
	assert.Contains(t, out, columnRuler)

	result, err = c.handleSetIntent(ctx, call("set_intent", map[string]interface{}{"session_id": id, "intent": "diagonal"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = c.handleSetIntent(ctx, call("set_intent", map[string]interface{}{
		"session_id": id, "intent": "left", "reason": "make room",
	}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Intent: left")

	result, err = c.handleTick(ctx, call("tick", map[string]interface{}{"session_id": id, "count": float64(2)}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Ran 2 of 2 ticks")
	assert.Contains(t, text(t, result), "at (5,0)")

	result, err = c.handleRotate(ctx, call("rotate", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Intent: none")

	result, err = c.handleLock(ctx, call("lock", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "not landed")

	c.handleSetIntent(ctx, call("set_intent", map[string]interface{}{"session_id": id, "intent": "down"}))
	result, err = c.handleTick(ctx, call("tick", map[string]interface{}{"session_id": id, "count": float64(30)}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "landed, ready to lock")

	result, err = c.handleLock(ctx, call("lock", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Piece locked")

	result, err = c.handleEventHistory(ctx, call("event_history", map[string]interface{}{"session_id": id, "type": "lock"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "total events: 1")
	assert.Contains(t, text(t, result), "[lock]")

	result, err = c.handleReset(ctx, call("reset_game", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Pieces: 0")
}

func TestClient_SessionTools(t *testing.T) {
	c := NewClient(newBackend(t).URL)
	ctx := context.Background()
	id := createSession(t, c)

	result, err := c.handleListSessions(ctx, call("list_sessions", nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Active Sessions (1)")
	assert.Contains(t, text(t, result), id)

	result, err = c.handleGetSession(ctx, call("get_session", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Session: "+id)

	result, err = c.handleGetSession(ctx, call("get_session", map[string]interface{}{"session_id": "ffff"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = c.handleGetSession(ctx, call("get_session", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError, "session_id is required")

	result, err = c.handleListConfigs(ctx, call("list_configs", nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Available Presets")
}

func TestClient_DescribeCell(t *testing.T) {
	c := NewClient(newBackend(t).URL)
	ctx := context.Background()
	id := createSession(t, c)

	result, err := c.handleDescribeCell(ctx, call("describe_cell", map[string]interface{}{
		"session_id": id, "x": float64(engine.SpawnPoint.X), "y": float64(engine.SpawnPoint.Y),
	}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "active piece (J)")

	result, err = c.handleDescribeCell(ctx, call("describe_cell", map[string]interface{}{
		"session_id": id, "x": float64(0), "y": float64(engine.MaxY),
	}))
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Cell (0,15): empty")
	assert.Contains(t, text(t, result), "Below: floor")

	result, err = c.handleDescribeCell(ctx, call("describe_cell", map[string]interface{}{
		"session_id": id, "x": float64(engine.Width), "y": float64(0),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClient_handleGameInstructions(t *testing.T) {
	c := NewClient("http://localhost:8080")

	result, err := c.handleGameInstructions(context.Background(), call("game_instructions", nil))
	require.NoError(t, err)

	out := text(t, result)
	for _, want := range []string{"OBJECTIVE", "1000 points", "set_intent", "lock"} {
		assert.Contains(t, out, want)
	}
}

func TestClient_InProcess(t *testing.T) {
	c := NewClient(newBackend(t).URL)
	ctx := context.Background()

	client, err := mcpclient.NewInProcessClient(c.GetMCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Start(ctx))

	_, err = client.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "blockfall-test", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)

	tools, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"create_session", "list_sessions", "get_session", "game_state", "set_intent",
		"rotate", "tick", "lock", "reset_game", "event_history", "list_configs",
		"game_instructions", "describe_cell",
	}, names)

	result, err := client.CallTool(ctx, call("create_session", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text(t, result), "Created session: "))
}

func TestFormatSnapshot(t *testing.T) {
	snap := &engine.Snapshot{
		Pile:   []engine.Cell{{X: 0, Y: 15}, {X: 1, Y: 15}},
		Active: []engine.Cell{{X: 6, Y: 0}, {X: 7, Y: 0}, {X: 8, Y: 0}, {X: 9, Y: 0}},
		Kind:   engine.KindI,
		Anchor: engine.SpawnPoint,
		Intent: engine.IntentDown,
		Score:  2000,
		Width:  engine.Width,
		Height: engine.Height,
	}

	out := formatSnapshot(snap)
	assert.Contains(t, out, "Score: 2000")
	assert.Contains(t, out, " 0 |......@@@@....|")
	assert.Contains(t, out, "15 |##............|")
	assert.Contains(t, out, "Status: falling")

	snap.GameOver = true
	assert.Contains(t, formatSnapshot(snap), "Status: GAME OVER")

	assert.Equal(t, "No game state available", formatSnapshot(nil))
}

func TestDescribeCellAlmostFullRow(t *testing.T) {
	snap := &engine.Snapshot{}
	for x := 0; x < engine.Width-1; x++ {
		snap.Pile = append(snap.Pile, engine.Cell{X: x, Y: engine.MaxY})
	}

	out := describeCell(snap, engine.Cell{X: engine.MaxX, Y: engine.MaxY - 1})
	assert.Contains(t, out, "Row 14: 0/14")
	assert.Contains(t, out, "Below: empty")

	out = describeCell(snap, engine.Cell{X: 0, Y: engine.MaxY - 1})
	assert.Contains(t, out, "Below: pile")

	out = describeCell(snap, engine.Cell{X: engine.MaxX, Y: engine.MaxY})
	assert.Contains(t, out, "13/14 pile cells, one more clears it")
}
