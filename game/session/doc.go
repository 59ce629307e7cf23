// Package session provides session management for the warehouse server.
//
// Manager keeps live sessions in memory, keyed case-insensitively, and
// writes through to an optional SessionPersistence:
//   - FilePersistence stores one indented JSON file per session
//   - SQLitePersistence stores zstd-compressed JSON records in one SQLite file
//
// Each stored record carries the puzzle and the full game state (the board
// as rendered rows), so a session restores even if the library changed.
// Restored boards are checked against their puzzle (size, walls, box count)
// and records that fail are pruned from the store.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("sessions/sessions.sqlite", configMgr)
//	manager := session.NewManagerWithPersistence(store)
//	if _, err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("warning: %v", err)
//	}
//	defer manager.SaveAllSessions()
//
//	sess, err := manager.Create("", "example", configMgr.GetDefault())
//
// Generated IDs are four lowercase hex characters. Explicit IDs may use
// letters, digits, '-' and '_'.
package session
