package engine

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomLayout builds a walled narrow warehouse with scattered walls and boxes.
func randomLayout(rng *rand.Rand, width, height int) []string {
	grid := make([][]byte, height)
	for y := range grid {
		grid[y] = make([]byte, width)
		for x := range grid[y] {
			switch {
			case x == 0 || y == 0 || x == width-1 || y == height-1:
				grid[y][x] = '#'
			case rng.Intn(100) < 12:
				grid[y][x] = '#'
			case rng.Intn(100) < 30:
				grid[y][x] = 'O'
			default:
				grid[y][x] = '.'
			}
		}
	}
	rx := 1 + rng.Intn(width-2)
	ry := 1 + rng.Intn(height-2)
	grid[ry][rx] = '@'

	rows := make([]string, height)
	for y := range grid {
		rows[y] = string(grid[y])
	}
	return rows
}

func randomMoves(rng *rand.Rand, n int) []Direction {
	moves := make([]Direction, n)
	for i := range moves {
		moves[i] = Directions[rng.Intn(len(Directions))]
	}
	return moves
}

func positionsOf(b *Board, t Tile) map[Position]bool {
	found := make(map[Position]bool)
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			p := Position{X: x, Y: y}
			if tile, _ := b.TileAt(p); tile == t {
				found[p] = true
			}
		}
	}
	return found
}

// referencePush is the classic single-box rule: scan past the run of boxes
// and shift it when the first non-box cell is floor.
func referencePush(grid [][]byte, robot Position, dir Direction) (Position, bool) {
	target := robot.Add(dir)
	scan := target
	for grid[scan.Y][scan.X] == 'O' {
		scan = scan.Add(dir)
	}
	if grid[scan.Y][scan.X] != '.' {
		return robot, false
	}
	if scan != target {
		grid[scan.Y][scan.X] = 'O'
		grid[target.Y][target.X] = '.'
	}
	return target, true
}

func TestSimulator_MatchesSingleBoxReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		layout := randomLayout(rng, 6+rng.Intn(8), 5+rng.Intn(6))
		board := mustBoard(t, layout...)

		grid := make([][]byte, len(layout))
		for y, row := range layout {
			grid[y] = []byte(strings.Replace(row, "@", ".", 1))
		}
		robot := board.Robot()

		sim := NewSimulator(board)
		for step, dir := range randomMoves(rng, 200) {
			var accepted bool
			robot, accepted = referencePush(grid, robot, dir)
			result := sim.Step(dir)

			require.Equal(t, accepted, result.Accepted, "round %d step %d", round, step)
			require.Equal(t, robot, board.Robot(), "round %d step %d", round, step)
		}

		expected := make([]string, len(grid))
		for y := range grid {
			row := []byte(string(grid[y]))
			if y == robot.Y {
				row[robot.X] = '@'
			}
			expected[y] = string(row)
		}
		assert.Equal(t, expected, board.Rows(), "round %d", round)
	}
}

func TestSimulator_InvariantsHoldOnWideBoards(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		board := mustBoard(t, WidenLayout(randomLayout(rng, 5+rng.Intn(6), 5+rng.Intn(6)))...)
		walls := positionsOf(board, Wall)
		pairs := board.CountTiles(BoxLeft)

		sim := NewSimulator(board)
		for step, dir := range randomMoves(rng, 300) {
			before := board.Clone()
			result := sim.Step(dir)

			require.NoError(t, board.Validate(), "round %d step %d", round, step)
			require.Equal(t, pairs, board.CountTiles(BoxLeft), "pairs conserved")
			require.Equal(t, pairs, board.CountTiles(BoxRight), "pairs conserved")
			require.Equal(t, walls, positionsOf(board, Wall), "walls never move")

			if !result.Accepted {
				require.True(t, board.Equal(before), "round %d step %d: rejected push mutated the board", round, step)
				continue
			}
			require.Equal(t, before.Robot().Add(dir), board.Robot())
		}
	}
}

func TestSimulator_RejectedMovesAreNoOps(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	board := mustBoard(t, randomLayout(rng, 10, 8)...)

	sim := NewSimulator(board)
	for _, dir := range randomMoves(rng, 500) {
		snapshot := board.Clone()
		canMove := CanMove(board, board.Robot(), dir)
		result := sim.Step(dir)

		assert.Equal(t, canMove, result.Accepted)
		if !canMove {
			assert.True(t, board.Equal(snapshot))
		}
	}
}

func TestSimulate_IsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	board := mustBoard(t, WidenLayout(randomLayout(rng, 9, 9))...)
	moves := randomMoves(rng, 400)

	first, acceptedA, scoreA := Simulate(board, moves)
	second, acceptedB, scoreB := Simulate(board, moves)

	assert.True(t, first.Equal(second))
	assert.Equal(t, acceptedA, acceptedB)
	assert.Equal(t, scoreA, scoreB)
}

func TestSimulate_ChunkedRunMatchesSingleRun(t *testing.T) {
	config := DefaultPuzzleConfig()
	config.Wide = true
	whole, err := NewEngine(config)
	require.NoError(t, err)
	whole.RunScript(0)

	chunked, err := NewEngine(config)
	require.NoError(t, err)
	for chunked.RemainingScript() > 0 {
		chunked.RunScript(4)
	}

	assert.Equal(t, whole.GetState().Rows, chunked.GetState().Rows)
	assert.Equal(t, whole.GetScore(), chunked.GetScore())
}
