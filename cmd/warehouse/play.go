package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/tui"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "play a puzzle in the terminal",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{wideFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			eng, err := loadEngine(cmd.Args().First(), cmd.Bool("wide"))
			if err != nil {
				return err
			}
			return tui.Run(eng)
		},
	}
}

func loadEngine(path string, wide bool) (*engine.GameEngine, error) {
	if path == "" {
		return nil, errors.New("play: a puzzle file is required")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if wide {
		cfg.Wide = true
	}
	return engine.NewEngine(cfg)
}
