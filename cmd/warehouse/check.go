package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// CheckResult captures the outcome of checking a single puzzle file.
// Notes holds informational lines for valid files and the problems found
// for invalid ones.
type CheckResult struct {
	File  string
	Valid bool
	Notes []string
}

func checkCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "validate puzzle files and report layout heuristics",
		ArgsUsage: "FILE|DIR...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return errors.New("check: at least one puzzle file or directory is required")
			}
			files, err := expandPuzzlePaths(cmd.Args().Slice())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("check: no puzzle files found")
			}

			allValid := true
			for _, file := range files {
				result := checkPuzzle(file)
				printResult(out, result)
				allValid = allValid && result.Valid
			}

			fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
			if !allValid {
				fmt.Fprintln(out, "❌ Some puzzles have errors")
				return errors.New("check failed")
			}
			fmt.Fprintln(out, "✅ All puzzles are valid!")
			return nil
		},
	}
}

// expandPuzzlePaths replaces each directory argument with the puzzle files it holds.
func expandPuzzlePaths(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var found []string
		for _, ext := range config.Extensions {
			matches, err := filepath.Glob(filepath.Join(arg, "*"+ext))
			if err != nil {
				return nil, err
			}
			found = append(found, matches...)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func printResult(out io.Writer, result CheckResult) {
	fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)
	if result.Valid {
		fmt.Fprintln(out, "✅ VALID")
		for _, note := range result.Notes {
			fmt.Fprintln(out, "  "+note)
		}
		return
	}
	fmt.Fprintln(out, "❌ INVALID")
	for _, note := range result.Notes {
		fmt.Fprintln(out, "  ❌ "+note)
	}
}

// checkPuzzle loads a puzzle file and, when it parses, adds notes about its
// size, boxes that can never move again and floor the robot cannot reach.
func checkPuzzle(path string) CheckResult {
	result := CheckResult{File: filepath.Base(path), Valid: true}

	cfg, err := config.LoadFile(path)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, err.Error())
		return result
	}
	board, err := engine.BuildBoard(cfg)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, err.Error())
		return result
	}
	moves, _ := engine.ParseMoves(cfg.Moves)

	mode := "narrow"
	if cfg.Wide {
		mode = "wide"
	}
	result.Notes = append(result.Notes,
		fmt.Sprintf("✓ Name: %s", cfg.Name),
		fmt.Sprintf("✓ Grid: %dx%d (%s)", board.Width(), board.Height(), mode),
		fmt.Sprintf("✓ Boxes: %d", len(engine.BoxPositions(board))),
		fmt.Sprintf("✓ Script: %d moves", len(moves)),
	)

	reachable, floor := reachableCells(board)
	if reachable == floor {
		result.Notes = append(result.Notes, fmt.Sprintf("✓ Reachable cells: %d/%d", reachable, floor))
	} else {
		result.Notes = append(result.Notes, fmt.Sprintf("⚠ Reachable cells: %d/%d (walls enclose the rest)", reachable, floor))
	}
	for _, p := range cornerBoxes(board) {
		result.Notes = append(result.Notes, fmt.Sprintf("⚠ Box at %s is wedged in a corner", p))
	}
	return result
}

// reachableCells flood-fills from the robot over every non-wall cell and
// returns how many cells were reached and how many non-wall cells exist.
// Boxes count as passable since the robot may push them aside.
func reachableCells(board *engine.Board) (int, int) {
	floor := 0
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			if t, _ := board.TileAt(engine.Position{X: x, Y: y}); t != engine.Wall {
				floor++
			}
		}
	}

	visited := map[engine.Position]bool{board.Robot(): true}
	queue := []engine.Position{board.Robot()}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dir := range engine.Directions {
			next := current.Add(dir)
			if visited[next] {
				continue
			}
			if t, err := board.TileAt(next); err != nil || t == engine.Wall {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return len(visited), floor
}

// cornerBoxes lists single-cell boxes with walls on two adjacent sides. No
// push can ever move them again.
func cornerBoxes(board *engine.Board) []engine.Position {
	isWall := func(p engine.Position) bool {
		t, err := board.TileAt(p)
		return err != nil || t == engine.Wall
	}

	var stuck []engine.Position
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			p := engine.Position{X: x, Y: y}
			if t, _ := board.TileAt(p); t != engine.Box {
				continue
			}
			vertical := isWall(p.Add(engine.Up)) || isWall(p.Add(engine.Down))
			horizontal := isWall(p.Add(engine.Left)) || isWall(p.Add(engine.Right))
			if vertical && horizontal {
				stuck = append(stuck, p)
			}
		}
	}
	return stuck
}
