package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/warehouse/api"
	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
	"github.com/wricardo/mcp-training/warehouse/game/session"
)

const corridorPuzzle = `{
  "name": "example",
  "description": "Two boxes in a corridor",
  "layout": ["#######", "#@O.O.#", "#######"],
  "moves": ">>>>"
}`

// newBackend starts the real REST API over a one-puzzle library
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "example.json"), []byte(corridorPuzzle), 0644))
	configs, err := config.NewManager(dir)
	require.NoError(t, err)

	svc := service.NewGameService(session.NewManager(), configs)
	srv := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(srv.Close)
	return srv
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

var sessionIDPattern = regexp.MustCompile(`Created session: ([0-9a-f]{4})`)

func createSession(t *testing.T, c *Client) string {
	t.Helper()
	result, err := c.handleCreateSession(context.Background(), call("create_session", map[string]interface{}{}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	m := sessionIDPattern.FindStringSubmatch(resultText(t, result))
	require.Len(t, m, 2)
	return m[1]
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "abcd"})
		case "/json-error":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "session not found", "code": 404})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var response map[string]interface{}
	require.NoError(t, client.apiCall(ctx, http.MethodGet, "/ok", nil, &response))
	assert.Equal(t, "abcd", response["id"])

	err := client.apiCall(ctx, http.MethodGet, "/json-error", nil, nil)
	assert.EqualError(t, err, "session not found")

	err = client.apiCall(ctx, http.MethodGet, "/plain", nil, nil)
	assert.EqualError(t, err, "API error: 500")

	unreachable := NewClient("http://127.0.0.1:1")
	assert.Error(t, unreachable.apiCall(ctx, http.MethodGet, "/ok", nil, nil))
}

func TestClient_PlaySession(t *testing.T) {
	client := NewClient(newBackend(t).URL)
	ctx := context.Background()
	id := createSession(t, client)

	result, err := client.handleMove(ctx, call("move", map[string]interface{}{
		"session_id": id,
		"direction":  "right",
		"intent":     "push the first box",
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "✓ Move accepted")
	assert.Contains(t, text, "pushed=1")
	assert.Contains(t, text, "#.@OO.#")

	result, err = client.handleBulkMove(ctx, call("bulk_move", map[string]interface{}{
		"session_id": id,
		"moves":      []interface{}{"right", "right"},
	}))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Executed 2/2 moves (1 accepted, 1 blocked)")
	assert.Contains(t, text, "#..@OO#")

	result, err = client.handleGameState(ctx, call("game_state", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Score: 209")

	result, err = client.handleMoveHistory(ctx, call("move_history", map[string]interface{}{
		"session_id": id,
		"order":      "asc",
		"limit":      float64(10),
	}))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Total (cumulative): 3")
	assert.Contains(t, text, "1. right ✓ [pushed 1]")
	assert.Contains(t, text, "3. right ✗")

	result, err = client.handleReset(ctx, call("reset_game", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "#@O.O.#")

	result, err = client.handleRunScript(ctx, call("run_script", map[string]interface{}{
		"session_id": id,
		"trace":      true,
	}))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Applied 4 scripted instructions (2 accepted, 2 blocked)")
	assert.Contains(t, text, "Script cursor: 4/4 (finished)")
	assert.Contains(t, text, "Score: 209")
}

func TestClient_Sessions(t *testing.T) {
	client := NewClient(newBackend(t).URL)
	ctx := context.Background()
	id := createSession(t, client)

	result, err := client.handleListSessions(ctx, call("list_sessions", nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Active Sessions (1)")
	assert.Contains(t, text, id)

	result, err = client.handleGetSession(ctx, call("get_session", map[string]interface{}{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Puzzle: example")

	result, err = client.handleGetSession(ctx, call("get_session", map[string]interface{}{"session_id": "zzzz"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = client.handleGameState(ctx, call("game_state", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "session_id is required")

	result, err = client.handleCreateSession(ctx, call("create_session", map[string]interface{}{"config_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClient_BadMove(t *testing.T) {
	client := NewClient(newBackend(t).URL)
	ctx := context.Background()
	id := createSession(t, client)

	result, err := client.handleMove(ctx, call("move", map[string]interface{}{
		"session_id": id,
		"direction":  "sideways",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = client.handleMove(ctx, call("move", map[string]interface{}{
		"session_id": id,
		"direction":  "left",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "✗ Move blocked")
	assert.Contains(t, text, "Blocked: attempted (0,1) tile=# wall")
}

func TestClient_ConfigsAndSimulate(t *testing.T) {
	client := NewClient(newBackend(t).URL)
	ctx := context.Background()

	result, err := client.handleListConfigs(ctx, call("list_configs", nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "• example (json)")
	assert.Contains(t, text, "Map: 7x3 narrow, Boxes: 2, Script: 4 instructions")

	result, err = client.handleSimulate(ctx, call("simulate", map[string]interface{}{
		"input": "#####\n#@O.#\n#####\n\n>>",
	}))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Simulated 2 instructions on the narrow map (1 accepted, 1 blocked)")
	assert.Contains(t, text, "Score: 103")
	assert.Contains(t, text, "#.@O#")

	result, err = client.handleSimulate(ctx, call("simulate", map[string]interface{}{
		"config_name": "example",
		"both":        true,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Wide score:")

	result, err = client.handleSimulate(ctx, call("simulate", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClient_DescribeCell(t *testing.T) {
	client := NewClient(newBackend(t).URL)
	ctx := context.Background()
	id := createSession(t, client)

	tests := []struct {
		x, y int
		want []string
	}{
		{1, 1, []string{"Character: @", "Type: Robot"}},
		{0, 0, []string{"Type: Wall"}},
		{2, 1, []string{"Type: Box", "GPS coordinate: 102"}},
		{3, 1, []string{"Type: Floor"}},
	}
	for _, tt := range tests {
		result, err := client.handleDescribeCell(ctx, call("describe_cell", map[string]interface{}{
			"session_id": id,
			"x":          float64(tt.x),
			"y":          float64(tt.y),
		}))
		require.NoError(t, err)
		text := resultText(t, result)
		for _, w := range tt.want {
			assert.Contains(t, text, w)
		}
	}

	result, err := client.handleDescribeCell(ctx, call("describe_cell", map[string]interface{}{
		"session_id": id,
		"x":          float64(9),
		"y":          float64(0),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "out of bounds")
}

func TestDescribeTile_WideHalves(t *testing.T) {
	kind, _ := describeTile('[')
	assert.Equal(t, "Box (left half)", kind)
	kind, _ = describeTile(']')
	assert.Equal(t, "Box (right half)", kind)
	kind, _ = describeTile('?')
	assert.Equal(t, "Unknown", kind)
}

func TestFormatGameState(t *testing.T) {
	state := &engine.GameState{
		Rows:         []string{"#####", "#.@O#", "#####"},
		RobotPos:     engine.Position{X: 2, Y: 1},
		Score:        103,
		Boxes:        1,
		TotalMoves:   1,
		ScriptCursor: 1,
		ScriptLength: 2,
		Message:      "Pushed 1 box cells.",
	}

	text := formatGameState(state)
	assert.Contains(t, text, "Robot: (2,1) | Score: 103 | Boxes: 1 | Moves: 1 | Script: 1/2")
	assert.Contains(t, text, "#.@O#\n")
	assert.Contains(t, text, "Message: Pushed 1 box cells.")

	assert.Equal(t, "No game state available", formatGameState(nil))
}

func TestGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")
	result, err := client.handleGameInstructions(context.Background(), call("game_instructions", nil))
	require.NoError(t, err)
	text := resultText(t, result)
	for _, section := range []string{"OBJECTIVE:", "MAP LEGEND:", "MOVEMENT:", "WIDE MAPS:", "SCRIPTS:"} {
		assert.Contains(t, text, section)
	}
}
