// Package engine provides the core mechanics of the warehouse robot puzzle.
//
// A robot moves on a fixed-size grid and pushes the chain of boxes in front
// of it. Boxes occupy either a single cell (O) or two horizontally adjacent
// cells ([ and ]) whose halves always move together.
//
// Every instruction runs in two phases:
//   - CanMove walks the chain recursively without touching the board and
//     answers whether the push would hit a wall.
//   - CommitMove, only called after CanMove returned true, vacates the
//     destination cells depth-first and then relocates each tile, so no two
//     entities ever share a cell.
//
// A blocked instruction is a normal outcome: the board is left unchanged and
// no error is reported.
//
// Core Types:
//
// Board holds the tiles and the robot position. Simulator drives a sequence of
// instructions against a Board. Score computes the GPS checksum (100*y + x per
// box). GameEngine wraps a Simulator with a PuzzleConfig, the scripted
// instruction stream and a move history for interactive sessions.
//
// Usage:
//
//	layout, moves, err := engine.SplitInput(input)
//	if err != nil {
//		log.Fatal(err)
//	}
//	board, err := engine.ParseBoard(engine.WidenLayout(layout))
//	if err != nil {
//		log.Fatal(err)
//	}
//	dirs, err := engine.ParseMoves(moves)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sim := engine.NewSimulator(board)
//	sim.Run(dirs)
//	fmt.Println(engine.Score(board))
package engine
