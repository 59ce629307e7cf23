// Package service provides the business logic layer for the warehouse server.
//
// GameService is the facade every transport (REST, WebSocket, MCP) talks to.
// It resolves puzzles through a ConfigManager, keeps one engine per session
// through a SessionManager, and turns engine step results into compact step
// traces and GameEvents ("move", "push", "blocked", "reset", "script").
//
// A blocked push is an ordinary outcome: Move reports Success=false and
// BulkMove records the rejection and keeps going.
//
// Usage:
//
//	configMgr, _ := config.NewManager("configs")
//	sessionMgr := session.NewManager()
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "example")
//	result, err := gameService.Move(ctx, info.ID, "left", false)
//	run, err := gameService.RunScript(ctx, info.ID, 0, false)
//
// Simulate runs a puzzle to completion without creating a session.
package service
