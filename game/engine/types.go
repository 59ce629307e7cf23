package engine

import (
	"fmt"
	"strings"
)

// Tile is the content of a single board cell. Its value is the map character.
type Tile byte

const (
	Empty    Tile = '.'
	Wall     Tile = '#'
	Box      Tile = 'O'
	BoxLeft  Tile = '['
	BoxRight Tile = ']'

	// RobotChar marks the robot in rendered rows. It is never stored as a Tile.
	RobotChar = '@'

	// Validation constants
	MinGridSize  = 1
	MaxGridSize  = 256
	MaxBulkMoves = 500
	// MaxScriptMoves bounds a single RunScript call.
	MaxScriptMoves      = 50000
	WebSocketBufferSize = 256
)

// ParseTile maps a layout character to its tile. The robot character is not a tile.
func ParseTile(ch rune) (Tile, bool) {
	switch Tile(ch) {
	case Empty, Wall, Box, BoxLeft, BoxRight:
		return Tile(ch), true
	}
	return 0, false
}

// IsBox reports whether the tile is part of an obstacle.
func (t Tile) IsBox() bool {
	return t == Box || t == BoxLeft || t == BoxRight
}

// Name returns a lowercase description used in API payloads.
func (t Tile) Name() string {
	switch t {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Box:
		return "box"
	case BoxLeft:
		return "box_left"
	case BoxRight:
		return "box_right"
	default:
		return "unknown"
	}
}

func (t Tile) String() string {
	return string(rune(t))
}

// Position represents x,y coordinates. It may lie outside the board while
// deltas are being applied; Board.TileAt checks it before dereferencing.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position one step away in the given direction.
func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.DX, Y: p.Y + d.DY}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is a unit delta along a single axis.
type Direction struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

var (
	Up    = Direction{DX: 0, DY: -1}
	Down  = Direction{DX: 0, DY: 1}
	Left  = Direction{DX: -1, DY: 0}
	Right = Direction{DX: 1, DY: 0}

	// Directions lists the four unit deltas in a fixed order.
	Directions = []Direction{Up, Down, Left, Right}
)

// ParseDirection accepts the word form (up, down, left, right) or the
// instruction characters used by puzzle files (^ v < >).
func ParseDirection(token string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "up", "^", "north":
		return Up, nil
	case "down", "v", "south":
		return Down, nil
	case "left", "<", "west":
		return Left, nil
	case "right", ">", "east":
		return Right, nil
	}
	return Direction{}, fmt.Errorf("%w: %q", ErrInvalidMove, token)
}

// IsVertical reports whether the direction moves along the y axis.
func (d Direction) IsVertical() bool {
	return d.DX == 0
}

// String returns the word form of the direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
	}
}

// Symbol returns the instruction character for the direction.
func (d Direction) Symbol() byte {
	switch d {
	case Up:
		return '^'
	case Down:
		return 'v'
	case Left:
		return '<'
	case Right:
		return '>'
	default:
		return '?'
	}
}

// PuzzleConfig represents a puzzle loaded from the puzzle library
type PuzzleConfig struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Layout      []string `json:"layout" yaml:"layout"`
	// Moves is the scripted instruction stream (^ v < >, whitespace ignored).
	Moves string `json:"moves,omitempty" yaml:"moves,omitempty"`
	// Wide doubles every map column before play, turning boxes into [] pairs.
	Wide     bool `json:"wide,omitempty" yaml:"wide,omitempty"`
	Messages struct {
		Welcome     string `json:"welcome,omitempty" yaml:"welcome,omitempty"`
		Moved       string `json:"moved,omitempty" yaml:"moved,omitempty"`
		Pushed      string `json:"pushed,omitempty" yaml:"pushed,omitempty"`
		Blocked     string `json:"blocked,omitempty" yaml:"blocked,omitempty"`
		ScriptDone  string `json:"script_done,omitempty" yaml:"script_done,omitempty"`
		ResetNotice string `json:"reset_notice,omitempty" yaml:"reset_notice,omitempty"`
	} `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// GameState represents the complete state of a puzzle session
type GameState struct {
	Board      *Board   `json:"board"`
	Rows       []string `json:"rows"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	RobotPos   Position `json:"robot_pos"`
	Score      int      `json:"score"`
	Boxes      int      `json:"boxes"`
	Message    string   `json:"message"`
	ConfigName string   `json:"config_name"`
	Wide       bool     `json:"wide"`

	// ScriptCursor is the index of the next unapplied scripted instruction.
	ScriptCursor int `json:"script_cursor"`
	ScriptLength int `json:"script_length"`

	MoveHistory   []MoveHistoryEntry `json:"move_history"`
	TotalMoves    int                `json:"total_moves"`
	AcceptedMoves int                `json:"accepted_moves"`
	RejectedMoves int                `json:"rejected_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper view (not required for core game logic)
	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
}

// Snapshot returns a deep copy of the state that stays valid while the
// engine keeps playing.
func (gs *GameState) Snapshot() *GameState {
	if gs == nil {
		return nil
	}
	snap := *gs
	if gs.Board != nil {
		snap.Board = gs.Board.Clone()
	}
	snap.Rows = append([]string(nil), gs.Rows...)
	snap.MoveHistory = append([]MoveHistoryEntry{}, gs.MoveHistory...)
	snap.CurrentMoves = append([]MoveHistoryEntry{}, gs.CurrentMoves...)
	snap.LocalView3x3 = append([]string(nil), gs.LocalView3x3...)
	return &snap
}

// MoveHistoryEntry represents a single instruction in the session history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Pushed       int      `json:"pushed"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
	Scripted     bool     `json:"scripted,omitempty"`
}
