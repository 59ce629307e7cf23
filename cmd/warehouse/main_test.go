package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

const corridorPuzzle = "#######\n#@O.O.#\n#######\n\n>>>>\n"

func writePuzzle(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), append([]string{"warehouse"}, args...))
	return out.String(), err
}

func TestSolve(t *testing.T) {
	dir := t.TempDir()
	corridor := writePuzzle(t, dir, "corridor.txt", corridorPuzzle)

	out, err := runApp(t, "solve", corridor)
	require.NoError(t, err)
	assert.Equal(t, "corridor: 209\n", out)

	out, err = runApp(t, "solve", "--both", corridor)
	require.NoError(t, err)
	assert.Equal(t, "corridor: narrow 209, wide 216\n", out)

	out, err = runApp(t, "solve", "--wide", corridor)
	require.NoError(t, err)
	assert.Equal(t, "corridor: 216\n", out)

	out, err = runApp(t, "solve", "--render", corridor)
	require.NoError(t, err)
	assert.Contains(t, out, "#..@OO#")
}

func TestSolve_RepositoryExample(t *testing.T) {
	out, err := runApp(t, "solve", filepath.Join("..", "..", "configs", "example.json"))
	require.NoError(t, err)
	assert.Equal(t, "example: 2028\n", out)
}

func TestSolve_Errors(t *testing.T) {
	_, err := runApp(t, "solve")
	assert.Error(t, err)

	_, err = runApp(t, "solve", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	bad := writePuzzle(t, t.TempDir(), "bad.txt", "#####\n#.O.#\n#####\n")
	_, err = runApp(t, "solve", bad)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	writePuzzle(t, dir, "corridor.txt", corridorPuzzle)

	out, err := runApp(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "corridor.txt")
	assert.Contains(t, out, "✅ VALID")
	assert.Contains(t, out, "✓ Boxes: 2")
	assert.Contains(t, out, "✓ Script: 4 moves")
	assert.Contains(t, out, "✓ Reachable cells: 5/5")
	assert.Contains(t, out, "✅ All puzzles are valid!")

	writePuzzle(t, dir, "norobot.txt", "#####\n#.O.#\n#####\n")
	out, err = runApp(t, "check", dir)
	assert.Error(t, err)
	assert.Contains(t, out, "❌ INVALID")
	assert.Contains(t, out, "❌ Some puzzles have errors")
}

func TestCheck_NoFiles(t *testing.T) {
	_, err := runApp(t, "check")
	assert.Error(t, err)

	_, err = runApp(t, "check", t.TempDir())
	assert.Error(t, err)
}

func TestCheckPuzzle_Heuristics(t *testing.T) {
	dir := t.TempDir()
	path := writePuzzle(t, dir, "cornered.txt", "######\n#O...#\n#.@#.#\n###..#\n######\n")

	result := checkPuzzle(path)
	require.True(t, result.Valid, result.Notes)
	assert.Contains(t, result.Notes, "⚠ Box at (1,1) is wedged in a corner")
	assert.Contains(t, result.Notes, "✓ Reachable cells: 9/9")

	path = writePuzzle(t, dir, "sealed.txt", "#######\n#@.#..#\n#######\n")
	result = checkPuzzle(path)
	require.True(t, result.Valid)
	assert.Contains(t, result.Notes, "⚠ Reachable cells: 2/4 (walls enclose the rest)")
}

func TestReachableCells(t *testing.T) {
	board, err := engine.ParseBoard([]string{
		"#####",
		"#@O.#",
		"#####",
	})
	require.NoError(t, err)
	reached, floor := reachableCells(board)
	assert.Equal(t, 3, reached)
	assert.Equal(t, 3, floor)
}

func TestLoadEngine(t *testing.T) {
	dir := t.TempDir()
	path := writePuzzle(t, dir, "corridor.txt", corridorPuzzle)

	eng, err := loadEngine(path, false)
	require.NoError(t, err)
	assert.Equal(t, "#@O.O.#", eng.GetState().Rows[1])

	eng, err = loadEngine(path, true)
	require.NoError(t, err)
	assert.Equal(t, "##@.[]..[]..##", eng.GetState().Rows[1])

	_, err = loadEngine("", false)
	assert.Error(t, err)
}
