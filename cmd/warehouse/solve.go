package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func solveCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "run each puzzle's instruction stream and print the GPS score",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			wideFlag(),
			&cli.BoolFlag{Name: "both", Usage: "print the narrow and the wide score"},
			&cli.BoolFlag{Name: "render", Usage: "print the final board"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return errors.New("solve: at least one puzzle file is required")
			}
			for _, file := range files {
				if err := solveFile(out, file, cmd.Bool("wide"), cmd.Bool("both"), cmd.Bool("render")); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
			return nil
		},
	}
}

func solveFile(out io.Writer, path string, wide, both, render bool) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	moves, err := engine.ParseMoves(cfg.Moves)
	if err != nil {
		return err
	}

	if !both {
		board, _, score, err := simulate(cfg, wide || cfg.Wide, moves)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d\n", cfg.Name, score)
		if render {
			fmt.Fprintln(out, board.String())
		}
		return nil
	}

	narrowBoard, _, narrow, err := simulate(cfg, false, moves)
	if err != nil {
		return err
	}
	wideBoard, _, wideScore, err := simulate(cfg, true, moves)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: narrow %d, wide %d\n", cfg.Name, narrow, wideScore)
	if render {
		fmt.Fprintln(out, narrowBoard.String())
		fmt.Fprintln(out, wideBoard.String())
	}
	return nil
}

func simulate(cfg *engine.PuzzleConfig, wide bool, moves []engine.Direction) (*engine.Board, []bool, int, error) {
	variant := *cfg
	variant.Wide = wide
	board, err := engine.BuildBoard(&variant)
	if err != nil {
		return nil, nil, 0, err
	}
	final, accepted, score := engine.Simulate(board, moves)
	return final, accepted, score, nil
}
