package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/service"
)

// Client is a thin MCP server whose tools proxy to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

const serverInstructions = `Blockfall - MCP Interface

Every tool proxies to the Blockfall REST API.

The board is 14 columns by 16 rows, (0,0) at the top left, y grows downward.
A piece falls only when the game ticks. Set an intent, request rotations,
then tick. Once the piece has landed, lock it to merge it into the pile and
get the next piece. Full rows clear for 1000 points each.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage sessions
- game_state: the board as text plus piece details
- set_intent: none, down, left or right, applied on every following tick
- rotate: rotate the piece on the next tick (also sets intent to none)
- tick: advance 1 to 100 ticks
- lock: lock a landed piece
- reset_game: start the session over
- event_history: locks, line clears and game over events
- list_configs: available presets
- game_instructions: full rules
- describe_cell: what occupies one cell and how full its row is`

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Blockfall",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	c.registerTools()
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session with optional preset selection"),
		mcp.WithString("config_id", mcp.Description("Preset to use (optional, see list_configs)")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active game sessions"),
		mcp.WithReadOnlyHintAnnotation(true),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionArg(),
	), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get the board as text with the active piece, score and status"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionArg(),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("set_intent",
		mcp.WithDescription("Set the direction the piece moves on each following tick"),
		sessionArg(),
		mcp.WithString("intent",
			mcp.Required(),
			mcp.Enum("none", "down", "left", "right"),
			mcp.Description("Direction applied on the next ticks"),
		),
		mcp.WithString("reason",
			mcp.Description("Brief explanation of why you chose this intent"),
		),
	), c.handleSetIntent)

	c.mcpServer.AddTool(mcp.NewTool("rotate",
		mcp.WithDescription("Rotate the active piece clockwise on the next tick and hold it in place"),
		sessionArg(),
	), c.handleRotate)

	c.mcpServer.AddTool(mcp.NewTool("tick",
		mcp.WithDescription("Advance the game by one or more ticks"),
		sessionArg(),
		mcp.WithNumber("count",
			mcp.Description("Number of ticks, 1 to 100 (default 1)"),
			mcp.Min(1),
			mcp.Max(service.MaxTicksPerCall),
		),
	), c.handleTick)

	c.mcpServer.AddTool(mcp.NewTool("lock",
		mcp.WithDescription("Lock a landed piece into the pile and spawn the next piece"),
		sessionArg(),
	), c.handleLock)

	c.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Reset the game to its initial state"),
		sessionArg(),
	), c.handleReset)

	c.mcpServer.AddTool(mcp.NewTool("event_history",
		mcp.WithDescription("Get paginated game events (lock, line_clear, game_over, reset)"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionArg(),
		mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Events per page (default 20)")),
		mcp.WithString("order", mcp.Enum("asc", "desc"), mcp.Description("Sort order (default desc)")),
		mcp.WithString("type", mcp.Enum(service.EventLock, service.EventLineClear, service.EventGameOver, service.EventReset),
			mcp.Description("Only return events of this type")),
	), c.handleEventHistory)

	// Configuration and help
	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available game presets"),
		mcp.WithReadOnlyHintAnnotation(true),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get the complete rules of the game"),
		mcp.WithReadOnlyHintAnnotation(true),
	), c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.NewTool("describe_cell",
		mcp.WithDescription("Describe what occupies a cell and how full its row is"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionArg(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column, 0 to 13")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row, 0 to 15")),
	), c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for stdio serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves the tools over streamable HTTP.
func (c *Client) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(c.mcpServer, server.WithStateLess(true))
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
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

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if configID := request.GetString("config_id", ""); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatSnapshot(session.Snapshot))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionList(response.Count, response.Sessions)), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleSetIntent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	intent, err := request.RequireString("intent")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// reason is for the caller's benefit only

	var result service.ActionResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/intent"), map[string]string{"intent": intent}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result.Message + "\n\n" + formatSnapshot(result.Snapshot)), nil
}

func (c *Client) handleRotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/rotate"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result.Message + "\n\n" + formatSnapshot(result.Snapshot)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := request.GetInt("count", 1)

	var result service.TickResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/tick"), map[string]int{"count": count}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handleLock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.LockResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/lock"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatLockResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result struct {
		Message  string           `json:"message"`
		Snapshot *engine.Snapshot `json:"snapshot"`
	}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/reset"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result.Message + "\n\n" + formatSnapshot(result.Snapshot)), nil
}

func (c *Client) handleEventHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(request.GetInt("page", 1)))
	query.Set("limit", strconv.Itoa(request.GetInt("limit", 20)))
	query.Set("order", request.GetString("order", "desc"))
	if typ := request.GetString("type", ""); typ != "" {
		query.Set("type", typ)
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/history?"+query.Encode()), nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*config.PresetInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatConfigs(configs)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := request.RequireInt("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireInt("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cell := engine.Cell{X: x, Y: y}
	if !cell.InBounds() || y < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. The board is %dx%d (x 0-%d, y 0-%d)",
			x, y, engine.Width, engine.Height, engine.MaxX, engine.MaxY)), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(describeCell(&snap, cell)), nil
}
