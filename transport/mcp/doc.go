// Package mcp exposes the warehouse puzzle to AI agents over the Model
// Context Protocol.
//
// The Client holds no game state. Every tool call is translated into a
// request against the REST API (see package api) and the JSON response is
// rendered as plain text an agent can read: the map rows, the robot
// position, the score and a per-step trace where one is available.
//
// Tools: create_session, list_sessions, get_session, game_state, move,
// bulk_move, run_script, reset_game, move_history, list_configs, simulate,
// game_instructions and describe_cell.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
