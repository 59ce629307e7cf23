package service

import (
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// Event types reported in GameEvent.Type
const (
	EventMove    = "move"
	EventPush    = "push"
	EventBlocked = "blocked"
	EventReset   = "reset"
	EventScript  = "script"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	GameState      *engine.GameState    `json:"game_state"`
	GameConfig     *engine.PuzzleConfig `json:"game_config"`
}

// MoveResult contains the result of a single instruction
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of several instructions. Blocked
// instructions are recorded and the batch continues.
type BulkMoveResult struct {
	RequestedMoves int               `json:"requested_moves"`
	MovesExecuted  int               `json:"moves_executed"`
	Accepted       int               `json:"accepted"`
	Rejected       int               `json:"rejected"`
	Success        bool              `json:"success"` // true when every instruction was accepted
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos   engine.Position `json:"start_pos"`
	EndPos     engine.Position `json:"end_pos"`
	StartScore int             `json:"start_score"`
	EndScore   int             `json:"end_score"`
	ScoreDelta int             `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// RunScriptResult reports a run of the puzzle's own instruction stream
type RunScriptResult struct {
	Applied      int               `json:"applied"`
	Accepted     int               `json:"accepted"`
	Rejected     int               `json:"rejected"`
	ScriptCursor int               `json:"script_cursor"`
	ScriptLength int               `json:"script_length"`
	Finished     bool              `json:"finished"`
	Score        int               `json:"score"`
	GameState    *engine.GameState `json:"game_state"`
	Events       []GameEvent       `json:"events"`
	// Steps is only filled when requested; a full script can be long.
	Steps []StepInfo `json:"steps,omitempty"`
}

// StepInfo is a compact record for one instruction
type StepInfo struct {
	Idx      int             `json:"idx"`
	Dir      string          `json:"dir"`
	From     engine.Position `json:"from"`
	To       engine.Position `json:"to"`
	Pushed   int             `json:"pushed,omitempty"`
	Success  bool            `json:"success"`
	Scripted bool            `json:"scripted,omitempty"`
}

// AttemptInfo details the target cell of a rejected instruction
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "blocked", "reset", "script"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a puzzle in the library
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`      // Display name
	Description  string `json:"description"`
	Format       string `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Boxes        int    `json:"boxes"`
	Wide         bool   `json:"wide"`
	ScriptLength int    `json:"script_length"`
}

// SimulateRequest describes a stateless simulation. Either ConfigName or
// Input (raw puzzle text: map, blank line, instructions) must be set.
type SimulateRequest struct {
	ConfigName string `json:"config_name,omitempty"`
	Input      string `json:"input,omitempty"`
	// Moves overrides the puzzle's own instructions when non-empty.
	Moves string `json:"moves,omitempty"`
	Wide  bool   `json:"wide,omitempty"`
	// Both also runs the widened variant of a narrow puzzle.
	Both bool `json:"both,omitempty"`
}

// SimulateResult reports the outcome of a stateless simulation
type SimulateResult struct {
	Rows      []string `json:"rows"`
	Score     int      `json:"score"`
	Moves     int      `json:"moves"`
	Accepted  int      `json:"accepted"`
	Rejected  int      `json:"rejected"`
	Outcomes  string   `json:"outcomes"` // one '1' or '0' per instruction
	Wide      bool     `json:"wide"`
	WideRows  []string `json:"wide_rows,omitempty"`
	WideScore *int     `json:"wide_score,omitempty"`
}
