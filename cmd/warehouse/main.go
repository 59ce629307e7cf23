// Command warehouse is the offline companion to the server: it scores puzzle
// files, checks them for problems and opens them in a terminal UI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "warehouse",
		Usage:     "solve, check and play warehouse robot puzzles",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			solveCommand(out),
			checkCommand(out),
			playCommand(),
		},
	}
}

// wideFlag is shared by the commands that can widen a puzzle before use.
func wideFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "wide",
		Usage: "double every column before simulating",
	}
}
