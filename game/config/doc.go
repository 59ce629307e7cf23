// Package config provides the puzzle library for the warehouse server.
//
// Puzzles live as files in a directory and are identified by their file stem.
// Three formats are understood:
//   - .json: a PuzzleConfig document, checked against an embedded JSON Schema
//   - .yaml / .yml: the same document in YAML
//   - .txt: raw puzzle input (map rows, a blank line, instruction lines)
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := manager.LoadConfig("wide_example")
//	defaultPuzzle := manager.GetDefault()
//	puzzles, err := manager.ListConfigs()
//
// Loaded puzzles are cached until RefreshCache is called.
package config
