package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	GetScore() int
	GetRobotPosition() Position

	// Movement operations
	Move(direction string) bool
	CanMove(direction string) bool
	GetPossibleMoves() []string
	RunScript(limit int) []StepResult

	// Configuration
	GetConfig() *PuzzleConfig
	SetConfig(config *PuzzleConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state  *GameState
	config *PuzzleConfig
	script []Direction
	sim    *Simulator
}

// NewEngine creates a new engine for the provided puzzle configuration
func NewEngine(config *PuzzleConfig) (*GameEngine, error) {
	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}
	config = withDefaultMessages(config)

	state, err := InitGameStateFromConfig(config)
	if err != nil {
		return nil, err
	}
	script, err := ParseMoves(config.Moves)
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		config: config,
		state:  state,
		script: script,
		sim:    NewSimulator(state.Board),
	}, nil
}

// NewEngineWithDefaults creates a new engine running DefaultPuzzleConfig
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultPuzzleConfig())
	if err != nil {
		// the built-in puzzle is always valid
		panic(err)
	}
	return engine
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Board == nil {
		return fmt.Errorf("state has no board")
	}
	if err := state.Board.Validate(); err != nil {
		return err
	}
	if state.ScriptCursor < 0 || state.ScriptCursor > len(e.script) {
		return fmt.Errorf("script cursor %d outside 0..%d", state.ScriptCursor, len(e.script))
	}
	state.ScriptLength = len(e.script)
	state.Refresh()
	e.state = state
	e.sim = NewSimulator(state.Board)
	return nil
}

// Reset resets the puzzle to its initial layout
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	state, err := InitGameStateFromConfig(e.config)
	if err != nil {
		// the config was validated when the engine was created
		panic(err)
	}
	state.MoveHistory = prevHistory
	state.TotalMoves = prevTotal
	state.Message = e.config.Messages.ResetNotice

	e.state = state
	e.sim = NewSimulator(state.Board)
	return e.state
}

// GetScore returns the current GPS score
func (e *GameEngine) GetScore() int {
	return Score(e.state.Board)
}

// GetRobotPosition returns the current robot position
func (e *GameEngine) GetRobotPosition() Position {
	return e.state.Board.Robot()
}

// Move applies one instruction given in word or symbol form. It returns
// false both for unknown directions and for blocked pushes.
func (e *GameEngine) Move(direction string) bool {
	dir, err := ParseDirection(direction)
	if err != nil {
		e.state.Message = fmt.Sprintf("Unknown direction %q", direction)
		return false
	}
	return e.apply(dir, false).Accepted
}

// MoveDirection applies one instruction and returns its full result.
func (e *GameEngine) MoveDirection(dir Direction) StepResult {
	return e.apply(dir, false)
}

// CanMove checks if the robot can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	dir, err := ParseDirection(direction)
	if err != nil {
		return false
	}
	return CanMove(e.state.Board, e.state.Board.Robot(), dir)
}

// GetPossibleMoves returns all directions whose push would be accepted
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if CanMove(e.state.Board, e.state.Board.Robot(), dir) {
			possible = append(possible, dir.String())
		}
	}
	return possible
}

// RunScript applies up to limit scripted instructions starting at the
// script cursor. A non-positive limit runs the remainder of the script.
func (e *GameEngine) RunScript(limit int) []StepResult {
	remaining := len(e.script) - e.state.ScriptCursor
	if limit <= 0 || limit > remaining {
		limit = remaining
	}

	results := make([]StepResult, 0, limit)
	for i := 0; i < limit; i++ {
		dir := e.script[e.state.ScriptCursor]
		results = append(results, e.apply(dir, true))
		e.state.ScriptCursor++
	}
	e.state.Refresh()
	if e.state.ScriptCursor == len(e.script) {
		e.state.Message = e.config.Messages.ScriptDone
	}
	return results
}

// RemainingScript returns the number of scripted instructions not yet applied.
func (e *GameEngine) RemainingScript() int {
	return len(e.script) - e.state.ScriptCursor
}

// GetConfig returns the current puzzle configuration
func (e *GameEngine) GetConfig() *PuzzleConfig {
	return e.config
}

// SetConfig sets a new puzzle configuration and resets the game
func (e *GameEngine) SetConfig(config *PuzzleConfig) error {
	fresh, err := NewEngine(config)
	if err != nil {
		return err
	}
	*e = *fresh
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple moves in sequence, returning acceptance for each.
// Blocked pushes do not stop the sequence.
func (e *GameEngine) BulkMove(moves []string) []bool {
	results := make([]bool, 0, len(moves))
	for _, direction := range moves {
		results = append(results, e.Move(direction))
	}
	return results
}

func (e *GameEngine) apply(dir Direction, scripted bool) StepResult {
	result := e.sim.Step(dir)
	result.Index = e.state.TotalMoves

	switch {
	case !result.Accepted:
		e.state.RejectedMoves++
		e.state.Message = e.config.Messages.Blocked
	case result.Pushed > 0:
		e.state.AcceptedMoves++
		e.state.Message = fmt.Sprintf(e.config.Messages.Pushed, result.Pushed)
	default:
		e.state.AcceptedMoves++
		e.state.Message = e.config.Messages.Moved
	}

	// scripted runs refresh once at the end
	if !scripted {
		e.state.Refresh()
	}
	e.state.AddMoveToHistory(result, scripted)
	return result
}

// AddMoveToHistory adds an instruction outcome to the move history
func (gs *GameState) AddMoveToHistory(result StepResult, scripted bool) {
	entry := MoveHistoryEntry{
		Action:       result.Direction.String(),
		FromPosition: result.From,
		ToPosition:   result.To,
		Pushed:       result.Pushed,
		Timestamp:    time.Now().Unix(),
		Success:      result.Accepted,
		MoveNumber:   gs.TotalMoves + 1,
		Scripted:     scripted,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
