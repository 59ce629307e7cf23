package engine

import (
	"fmt"
	"strings"
)

// ValidatePuzzleConfig validates a puzzle configuration for correctness
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	layout := config.Layout
	if config.Wide {
		for i, row := range layout {
			if strings.ContainsAny(row, "[]") {
				return fmt.Errorf("%w: row %d already contains box halves; wide puzzles use O in their layout", ErrInvalidConfig, i+1)
			}
		}
		layout = WidenLayout(layout)
	}
	if _, err := ParseBoard(layout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := ParseMoves(config.Moves); err != nil {
		return fmt.Errorf("%w: moves: %v", ErrInvalidConfig, err)
	}

	if config.Messages.Pushed != "" {
		if verbs := formatVerbs(config.Messages.Pushed); verbs != "d" {
			return fmt.Errorf("%w: messages.pushed must contain exactly one %%d for the pushed count", ErrInvalidConfig)
		}
	}
	return nil
}

// formatVerbs returns the verb of each directive in a printf format, in
// order. Escaped percent signs are skipped.
func formatVerbs(format string) string {
	var verbs strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		for i < len(format) && strings.IndexByte("+-# 0123456789.", format[i]) >= 0 {
			i++
		}
		if i == len(format) {
			verbs.WriteByte('!')
			break
		}
		if format[i] != '%' {
			verbs.WriteByte(format[i])
		}
	}
	return verbs.String()
}

// BuildBoard returns a fresh board for the configuration, widened if requested.
func BuildBoard(config *PuzzleConfig) (*Board, error) {
	layout := config.Layout
	if config.Wide {
		layout = WidenLayout(layout)
	}
	return ParseBoard(layout)
}

// DefaultPuzzleConfig returns the small example warehouse used when no
// puzzle library is available.
func DefaultPuzzleConfig() *PuzzleConfig {
	config := &PuzzleConfig{
		Name:        "example",
		Description: "Small warehouse from the puzzle statement",
		Layout: []string{
			"########",
			"#..O.O.#",
			"##@.O..#",
			"#...O..#",
			"#.#.O..#",
			"#...O..#",
			"#......#",
			"########",
		},
		Moves: "<^^>>>vv<v>>v<<",
	}
	applyDefaultMessages(config)
	return config
}

// withDefaultMessages returns a copy of config with every empty message
// filled in. The caller's config is never modified, so one cached puzzle
// can back many engines.
func withDefaultMessages(config *PuzzleConfig) *PuzzleConfig {
	c := *config
	c.Layout = append([]string(nil), config.Layout...)
	applyDefaultMessages(&c)
	return &c
}

func applyDefaultMessages(config *PuzzleConfig) {
	if config.Messages.Welcome == "" {
		config.Messages.Welcome = "Welcome to the warehouse! Push every box where it belongs."
	}
	if config.Messages.Moved == "" {
		config.Messages.Moved = "Robot moved."
	}
	if config.Messages.Pushed == "" {
		config.Messages.Pushed = "Pushed %d box cells."
	}
	if config.Messages.Blocked == "" {
		config.Messages.Blocked = "Blocked: the chain in front of the robot hits a wall."
	}
	if config.Messages.ScriptDone == "" {
		config.Messages.ScriptDone = "All scripted instructions applied."
	}
	if config.Messages.ResetNotice == "" {
		config.Messages.ResetNotice = "Warehouse reset to its initial layout."
	}
}

// InitGameStateFromConfig creates a new game state using the provided configuration.
// A nil config falls back to DefaultPuzzleConfig.
func InitGameStateFromConfig(config *PuzzleConfig) (*GameState, error) {
	if config == nil {
		config = DefaultPuzzleConfig()
	}
	config = withDefaultMessages(config)

	board, err := BuildBoard(config)
	if err != nil {
		return nil, err
	}
	moves, err := ParseMoves(config.Moves)
	if err != nil {
		return nil, err
	}

	state := &GameState{
		Board:             board,
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		Wide:              config.Wide,
		ScriptLength:      len(moves),
		MoveHistory:       []MoveHistoryEntry{},
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
	state.Refresh()
	return state, nil
}

// Refresh recomputes the derived fields from the board.
func (gs *GameState) Refresh() {
	if gs.Board == nil {
		return
	}
	gs.Rows = gs.Board.Rows()
	gs.Width = gs.Board.Width()
	gs.Height = gs.Board.Height()
	gs.RobotPos = gs.Board.Robot()
	gs.Score = Score(gs.Board)
	gs.Boxes = gs.Board.CountTiles(Box) + gs.Board.CountTiles(BoxLeft)
	gs.LocalView3x3 = gs.GenerateLocalView()
}
