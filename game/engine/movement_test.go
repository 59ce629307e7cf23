package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBoard(t *testing.T, rows ...string) *Board {
	t.Helper()
	board, err := ParseBoard(rows)
	require.NoError(t, err)
	return board
}

// push runs one instruction through the simulator, as the engine does.
func push(board *Board, dir Direction) bool {
	return NewSimulator(board).Step(dir).Accepted
}

func TestPush_SingleBoxThenWall(t *testing.T) {
	board := mustBoard(t, "@O.#.")

	assert.True(t, push(board, Right))
	assert.Equal(t, []string{".@O#."}, board.Rows())
	assert.Equal(t, Position{X: 1, Y: 0}, board.Robot())

	before := board.Clone()
	assert.False(t, push(board, Right), "box is now against the wall")
	assert.True(t, board.Equal(before), "rejected push must leave the board unchanged")
}

func TestPush_WideBoxVertical(t *testing.T) {
	board := mustBoard(t,
		".@.",
		".[]",
		"...",
	)

	assert.True(t, push(board, Down))
	assert.Equal(t, []string{
		"...",
		".@.",
		".[]",
	}, board.Rows())
	assert.Equal(t, Position{X: 1, Y: 1}, board.Robot())
}

func TestPush_WideBoxVerticalFromRightHalf(t *testing.T) {
	board := mustBoard(t,
		"...",
		"[].",
		".@.",
	)

	assert.True(t, push(board, Up))
	assert.Equal(t, []string{
		"[].",
		".@.",
		"...",
	}, board.Rows())
}

func TestPush_BlockedChain(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		dir  Direction
	}{
		{"two boxes right", []string{"@OO#"}, Right},
		{"two boxes left", []string{"#OO@"}, Left},
		{"two boxes down", []string{"@", "O", "O", "#"}, Down},
		{"two boxes up", []string{"#", "O", "O", "@"}, Up},
		{"chain to edge", []string{"@OO"}, Right},
		{"wide chain right", []string{"@[][]#"}, Right},
		{"wide chain left", []string{"#[][]@"}, Left},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			board := mustBoard(t, test.rows...)
			before := board.Clone()

			assert.False(t, CanMove(board, board.Robot(), test.dir))
			assert.False(t, push(board, test.dir))
			assert.True(t, board.Equal(before))
		})
	}
}

func TestPush_Horizontal(t *testing.T) {
	tests := []struct {
		name     string
		rows     []string
		dir      Direction
		expected []string
	}{
		{"walk into empty", []string{"@.."}, Right, []string{".@."}},
		{"box chain right", []string{"@OO.#"}, Right, []string{".@OO#"}},
		{"box chain left", []string{"#.OO@"}, Left, []string{"#OO@."}},
		{"wide pair right", []string{"@[].."}, Right, []string{".@[]."}},
		{"two wide pairs right", []string{"@[][]."}, Right, []string{".@[][]"}},
		{"two wide pairs left", []string{"..[][]@"}, Left, []string{".[][]@."}},
		{"mixed chain right", []string{"@O[]O."}, Right, []string{".@O[]O"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			board := mustBoard(t, test.rows...)
			require.True(t, push(board, test.dir))
			assert.Equal(t, test.expected, board.Rows())
			require.NoError(t, board.Validate())
		})
	}
}

func TestPush_VerticalPyramid(t *testing.T) {
	board := mustBoard(t,
		"......",
		"..[]..",
		".[][].",
		"..[]..",
		"..@...",
	)

	require.True(t, push(board, Up))
	assert.Equal(t, []string{
		"..[]..",
		".[][].",
		"..[]..",
		"..@...",
		"......",
	}, board.Rows())
}

func TestPush_VerticalPyramidBlocked(t *testing.T) {
	board := mustBoard(t,
		"...#..",
		"..[]..",
		".[][].",
		"..[]..",
		"..@...",
	)
	before := board.Clone()

	assert.False(t, push(board, Up))
	assert.True(t, board.Equal(before))
}

func TestPush_SharedDescendant(t *testing.T) {
	// both middle pairs rest on the same top pair; it must move exactly once
	board := mustBoard(t,
		"........",
		"...[]...",
		"..[][]..",
		"...[]...",
		"...@....",
	)

	require.True(t, push(board, Up))
	assert.Equal(t, []string{
		"...[]...",
		"..[][]..",
		"...[]...",
		"...@....",
		"........",
	}, board.Rows())
	require.NoError(t, board.Validate())
}

func TestPush_VerticalOffsetPairBlockedByPartner(t *testing.T) {
	// the right half of the lower pair drags a pair whose far half is under a wall
	board := mustBoard(t,
		"....#",
		"...[]",
		"..[].",
		"..@..",
	)
	before := board.Clone()

	assert.False(t, push(board, Up))
	assert.True(t, board.Equal(before))
}

func TestCanMove_OutOfBounds(t *testing.T) {
	board := mustBoard(t, "@")
	for _, dir := range Directions {
		assert.False(t, CanMove(board, board.Robot(), dir), dir.String())
	}
}

func TestCanMove_DoesNotMutate(t *testing.T) {
	board := mustBoard(t,
		"......",
		"..[]..",
		".[][].",
		"..[]..",
		"..@...",
	)
	before := board.Clone()

	assert.True(t, CanMove(board, board.Robot(), Up))
	assert.True(t, board.Equal(before))
}

func TestCommitMove_PreconditionViolation(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		dir  Direction
	}{
		{"into wall", []string{"@#"}, Right},
		{"off the board", []string{"@."}, Left},
		{"chain into wall", []string{"@O#"}, Right},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			board := mustBoard(t, test.rows...)

			var recovered any
			func() {
				defer func() { recovered = recover() }()
				CommitMove(board, board.Robot(), test.dir)
			}()

			err, ok := recovered.(error)
			require.True(t, ok, "expected an error panic, got %v", recovered)
			assert.True(t, errors.Is(err, ErrPreconditionViolation))
		})
	}
}

func TestCommitMove_DoesNotMoveRobot(t *testing.T) {
	board := mustBoard(t, "@O.")
	require.True(t, CanMove(board, board.Robot(), Right))

	CommitMove(board, board.Robot(), Right)

	assert.Equal(t, Position{X: 0, Y: 0}, board.Robot())
	tile, err := board.TileAt(Position{X: 2, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, Box, tile)
}

func TestCountPushed(t *testing.T) {
	tests := []struct {
		name     string
		rows     []string
		dir      Direction
		expected int
	}{
		{"nothing", []string{"@.."}, Right, 0},
		{"two boxes", []string{"@OO."}, Right, 2},
		{"wide pair horizontal", []string{"@[]."}, Right, 2},
		{"wide pair vertical", []string{"@.", "[]", ".."}, Down, 2},
		{"diamond", []string{"........", "...[]...", "..[][]..", "...[]...", "...@...."}, Up, 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			board := mustBoard(t, test.rows...)
			result := NewSimulator(board).Step(test.dir)
			require.True(t, result.Accepted)
			assert.Equal(t, test.expected, result.Pushed)
		})
	}
}

func TestGenerateLocalView(t *testing.T) {
	state := &GameState{Board: mustBoard(t,
		"@O",
		"#.",
	)}

	assert.Equal(t, []string{
		"###",
		"#@O",
		"##.",
	}, state.GenerateLocalView())
}
