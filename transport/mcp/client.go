package mcp

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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Warehouse Robot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Warehouse Robot - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
A robot (@) walks a walled warehouse and pushes boxes (O, or [] pairs on wide maps).
Each puzzle ships a scripted instruction stream; the score is the sum of
100*row + column over every box (left half for [] pairs).

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: session management
- game_state: current map, robot position and score
- move: one instruction (up/down/left/right or ^ v < >) - requires intent explanation
- bulk_move: several instructions at once - requires intent explanation
- run_script: advance the puzzle's own scripted instructions
- reset_game: restore the initial layout
- move_history: past instructions with outcomes
- list_configs: puzzle library
- simulate: run any puzzle to completion without a session
- game_instructions: full rules
- describe_cell: what occupies a given cell

NOTE: A blocked push is not an error. The robot simply stays put.`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

var directionEnum = []string{"up", "down", "left", "right", "^", "v", "<", ">"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new puzzle session with optional puzzle selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Puzzle ID from list_configs (optional, defaults to the library default)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active puzzle sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current warehouse map, robot position and score",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the robot one cell, pushing any boxes in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionEnum,
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Apply several instructions in order. Blocked instructions do not stop the batch.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": directionEnum,
					},
					"description": "Array of moves",
				},
				"script": map[string]interface{}{
					"type":        "string",
					"description": "Instruction string such as \"<^^>vv\" (alternative to moves)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_script",
		Description: "Advance the puzzle's scripted instruction stream",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum instructions to apply (0 runs to the end)",
				},
				"trace": map[string]interface{}{
					"type":        "boolean",
					"description": "Include a per-step trace",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunScript)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the puzzle to its initial layout",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type": "string",
					"enum": []string{"asc", "desc"},
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List puzzles in the library",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulate",
		Description: "Run a puzzle to completion and report the final map and score. No session is created.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Puzzle ID from the library",
				},
				"input": map[string]interface{}{
					"type":        "string",
					"description": "Raw puzzle text: map rows, a blank line, then instructions",
				},
				"moves": map[string]interface{}{
					"type":        "string",
					"description": "Override the puzzle's instructions",
				},
				"wide": map[string]interface{}{
					"type":        "boolean",
					"description": "Widen the map first (boxes become [] pairs)",
				},
				"both": map[string]interface{}{
					"type":        "boolean",
					"description": "Also report the widened result",
				},
			},
		},
	}, c.handleSimulate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the full puzzle rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell of the map: wall, floor, box or box half, or the robot.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
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
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Argument helpers. JSON numbers arrive as float64.

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func argString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func argBool(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	id := strings.TrimSpace(argString(args, "session_id"))
	if id == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return id, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]string{}
	if configID := argString(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nPuzzle: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score := 0
		if s.GameState != nil {
			score = s.GameState.Score
		}
		fmt.Fprintf(&b, "- %s (Puzzle: %s, Score: %d, Created: %s)\n",
			s.ID, s.ConfigName, score, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireSession(arguments(request))
	if bad != nil {
		return bad, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireSession(arguments(request))
	if bad != nil {
		return bad, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, bad := requireSession(args)
	if bad != nil {
		return bad, nil
	}

	// intent is only for the caller's reasoning
	body := map[string]interface{}{
		"direction": argString(args, "direction"),
		"reset":     argBool(args, "reset"),
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, bad := requireSession(args)
	if bad != nil {
		return bad, nil
	}

	movesRaw, _ := args["moves"].([]interface{})
	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": argBool(args, "reset"),
	}
	if script := argString(args, "script"); script != "" {
		body["script"] = script
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, bad := requireSession(args)
	if bad != nil {
		return bad, nil
	}

	body := map[string]interface{}{"trace": argBool(args, "trace")}
	if limit, ok := argInt(args, "limit"); ok {
		body["limit"] = limit
	}

	var result service.RunScriptResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/run"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunScriptResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireSession(arguments(request))
	if bad != nil {
		return bad, nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, bad := requireSession(args)
	if bad != nil {
		return bad, nil
	}

	params := url.Values{}
	if page, ok := argInt(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := argInt(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := argString(args, "order"); order != "" {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err == nil {
		result += "\n" + formatCurrentSegment(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Puzzles:\n\n")
	for _, cfg := range configs {
		kind := "narrow"
		if cfg.Wide {
			kind = "wide"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Map: %dx%d %s, Boxes: %d, Script: %d instructions\n\n",
			cfg.ConfigID, cfg.Format, cfg.Description, cfg.Width, cfg.Height, kind, cfg.Boxes, cfg.ScriptLength)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	req := service.SimulateRequest{
		ConfigName: argString(args, "config_name"),
		Input:      argString(args, "input"),
		Moves:      argString(args, "moves"),
		Wide:       argBool(args, "wide"),
		Both:       argBool(args, "both"),
	}

	var result service.SimulateResult
	if err := c.apiCall(ctx, http.MethodPost, "/api/simulate", req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSimulateResult(&result)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Warehouse Robot - Complete Instructions

OBJECTIVE:
Drive the robot around the warehouse, pushing boxes. The puzzle's score is
the sum of GPS coordinates of every box: 100 * row + column, counted from the
top-left corner of the map (walls included).

MAP LEGEND:
  @  robot
  #  wall (never moves)
  .  empty floor
  O  box (narrow maps)
  [] left and right halves of one wide box (wide maps)

MOVEMENT:
• Instructions are up/down/left/right or the characters ^ v < >
• Moving into floor just moves the robot
• Moving into a box pushes it, and every box it touches in that direction
• If any box in the chain would hit a wall, nothing moves at all
• A blocked instruction is not an error; the robot stays where it is

WIDE MAPS:
• Widening doubles every column: # becomes ##, O becomes [], . becomes ..,
  and @ becomes @.
• Pushing a wide box left or right works like a row of narrow boxes
• Pushing up or down moves both halves, and each half can push further
  boxes, so a single push may move a whole pyramid of boxes
• The move only happens if every box in that pyramid has room

SCRIPTS:
Every puzzle carries its own instruction stream. run_script applies it
from the current cursor; reset_game rewinds both the map and the cursor.

STRATEGY:
• Use simulate to try an instruction string without touching a session
• Use describe_cell to check what sits next to the robot before pushing
• Boxes pushed into corners can never come back out

Good luck!`

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, bad := requireSession(args)
	if bad != nil {
		return bad, nil
	}
	x, okX := argInt(args, "x")
	y, okY := argInt(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if y < 0 || y >= len(state.Rows) || x < 0 || x >= len(state.Rows[y]) {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Map is %dx%d (x 0-%d, y 0-%d)",
			x, y, state.Width, state.Height, state.Width-1, state.Height-1)), nil
	}

	char := state.Rows[y][x]
	cellType, description := describeTile(char)

	var partner string
	switch char {
	case byte(engine.BoxLeft):
		partner = fmt.Sprintf("\nOther half: (%d, %d)", x+1, y)
	case byte(engine.BoxRight):
		partner = fmt.Sprintf("\nOther half: (%d, %d)", x-1, y)
	}
	var gps string
	if char == byte(engine.Box) || char == byte(engine.BoxLeft) {
		gps = fmt.Sprintf("\nGPS coordinate: %d", 100*y+x)
	}

	result := fmt.Sprintf(`Cell at position (%d, %d):
━━━━━━━━━━━━━━━━━━━━━━━━
Character: %c
Type: %s
Description: %s%s%s`,
		x, y, char, cellType, description, partner, gps)

	return mcp.NewToolResultText(result), nil
}

func describeTile(char byte) (string, string) {
	switch char {
	case engine.RobotChar:
		return "Robot", "The robot's current position"
	case byte(engine.Wall):
		return "Wall", "Fixed obstacle - nothing can enter it"
	case byte(engine.Empty):
		return "Floor", "Empty floor - the robot or a box can move here"
	case byte(engine.Box):
		return "Box", "Pushable box"
	case byte(engine.BoxLeft):
		return "Box (left half)", "Left half of a wide box - both halves move together"
	case byte(engine.BoxRight):
		return "Box (right half)", "Right half of a wide box - both halves move together"
	default:
		return "Unknown", "Unknown tile"
	}
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nPuzzle: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Robot: (%d,%d) | Score: %d | Boxes: %d | Moves: %d | Script: %d/%d\n\n",
		state.RobotPos.X, state.RobotPos.Y, state.Score, state.Boxes,
		state.TotalMoves, state.ScriptCursor, state.ScriptLength)

	if len(state.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, line := range state.LocalView3x3 {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	for _, row := range state.Rows {
		b.WriteString(row)
		b.WriteString("\n")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move accepted\n")
	} else {
		b.WriteString("✗ Move blocked\n")
	}

	if s := result.Step; s != nil {
		fmt.Fprintf(&b, "Step: %s (%d,%d)→(%d,%d) pushed=%d\n",
			s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Pushed)
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Blocked: attempted (%d,%d) tile=%s %s\n", a.X, a.Y, a.TileChar, a.TileType)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Puzzle: %s\n", sessionID, configName)
	fmt.Fprintf(&b, "Executed %d/%d moves (%d accepted, %d blocked)\n",
		result.MovesExecuted, result.RequestedMoves, result.Accepted, result.Rejected)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	fmt.Fprintf(&b, "Robot: (%d,%d)→(%d,%d) • Score: %d→%d (Δ %+d)\n",
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y,
		result.StartScore, result.EndScore, result.ScoreDelta)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	} else if result.GameState != nil && result.MovesExecuted > 0 {
		steps := getRecentSteps(result.GameState, result.MovesExecuted)
		if len(steps) > 0 {
			b.WriteString("\nRecent steps (this call):\n")
			for i, entry := range steps {
				b.WriteString(formatHistoryLine(i+1, entry))
			}
		}
	}

	if len(result.PossibleMoves) > 0 {
		b.WriteString("\nPossible moves: ")
		b.WriteString(strings.Join(result.PossibleMoves, ","))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatRunScriptResult(result *service.RunScriptResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Applied %d scripted instructions (%d accepted, %d blocked)\n",
		result.Applied, result.Accepted, result.Rejected)
	fmt.Fprintf(&b, "Script cursor: %d/%d", result.ScriptCursor, result.ScriptLength)
	if result.Finished {
		b.WriteString(" (finished)")
	}
	fmt.Fprintf(&b, "\nScore: %d\n", result.Score)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatSimulateResult(result *service.SimulateResult) string {
	var b strings.Builder
	mode := "narrow"
	if result.Wide {
		mode = "wide"
	}
	fmt.Fprintf(&b, "Simulated %d instructions on the %s map (%d accepted, %d blocked)\n",
		result.Moves, mode, result.Accepted, result.Rejected)
	fmt.Fprintf(&b, "Score: %d\n\n", result.Score)
	for _, row := range result.Rows {
		b.WriteString(row + "\n")
	}
	if result.WideScore != nil {
		fmt.Fprintf(&b, "\nWide score: %d\n\n", *result.WideScore)
		for _, row := range result.WideRows {
			b.WriteString(row + "\n")
		}
	}
	return b.String()
}

// getRecentSteps returns the last N entries from CurrentMoves
func getRecentSteps(state *engine.GameState, n int) []engine.MoveHistoryEntry {
	total := len(state.CurrentMoves)
	if total == 0 || n <= 0 {
		return nil
	}
	if n > total {
		n = total
	}
	return state.CurrentMoves[total-n:]
}

func statusMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func formatStepLine(s service.StepInfo) string {
	return fmt.Sprintf("%d. %s (%d,%d)→(%d,%d) pushed=%d %s\n",
		s.Idx, s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Pushed, statusMark(s.Success))
}

func formatHistoryLine(num int, move engine.MoveHistoryEntry) string {
	line := fmt.Sprintf("%d. %s %s", num, move.Action, statusMark(move.Success))
	if move.Pushed > 0 {
		line += fmt.Sprintf(" [pushed %d]", move.Pushed)
	}
	if move.Scripted {
		line += " (script)"
	}
	return line + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		b.WriteString(formatHistoryLine(move.MoveNumber, move))
	}

	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Current Move Segment, Moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves in current segment)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryLine(i+1, move))
	}
	return b.String()
}
