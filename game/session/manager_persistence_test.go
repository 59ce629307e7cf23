package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func TestManagerWithPersistence(t *testing.T) {
	configManager, err := config.NewManager(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)

	stores := map[string]func(t *testing.T) SessionPersistence{
		"file": func(t *testing.T) SessionPersistence {
			p, err := NewFilePersistence(t.TempDir(), configManager)
			require.NoError(t, err)
			return p
		},
		"sqlite": func(t *testing.T) SessionPersistence {
			p, err := NewSQLitePersistence(filepath.Join(t.TempDir(), "sessions.sqlite"), configManager)
			require.NoError(t, err)
			t.Cleanup(func() { _ = p.Close() })
			return p
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			persistence := open(t)
			manager := NewManagerWithPersistence(persistence)
			puzzle := configManager.GetDefault()

			t.Run("create session auto-saves", func(t *testing.T) {
				session, err := manager.Create("auto1", "example", puzzle)
				require.NoError(t, err)
				assert.True(t, persistence.Exists(session.ID))
			})

			t.Run("get loads from persistence", func(t *testing.T) {
				manager2 := NewManagerWithPersistence(persistence)
				session, err := manager2.Get("auto1")
				require.NoError(t, err)
				assert.Equal(t, "example", session.ConfigID)

				again, err := manager2.Get("auto1")
				require.NoError(t, err)
				assert.Same(t, session, again, "cached after the first load")
			})

			t.Run("save persists changes", func(t *testing.T) {
				session, err := manager.Get("auto1")
				require.NoError(t, err)
				session.Engine.RunScript(0)
				require.NoError(t, manager.Save("auto1"))

				loaded, err := persistence.Load("auto1")
				require.NoError(t, err)
				assert.Equal(t, 2028, loaded.Engine.GetScore())
				assert.Equal(t, 0, loaded.Engine.RemainingScript())
			})

			t.Run("load persisted sessions on startup", func(t *testing.T) {
				_, err := manager.Create("auto2", "example", puzzle)
				require.NoError(t, err)

				manager3 := NewManagerWithPersistence(persistence)
				pruned, err := manager3.LoadPersistedSessions()
				require.NoError(t, err)
				assert.Equal(t, 0, pruned)
				assert.Equal(t, 2, manager3.Count())
			})

			t.Run("cleanup keeps persisted copies", func(t *testing.T) {
				assert.Equal(t, 2, manager.CleanupExpiredSessions(0))
				assert.Equal(t, 0, manager.Count())

				session, err := manager.Get("auto2")
				require.NoError(t, err)
				assert.Equal(t, "auto2", session.ID)
			})

			t.Run("delete removes from persistence", func(t *testing.T) {
				require.NoError(t, manager.Delete("auto1"))
				assert.False(t, persistence.Exists("auto1"))
				_, err := manager.Get("auto1")
				assert.ErrorIs(t, err, ErrSessionNotFound)
			})

			t.Run("save all", func(t *testing.T) {
				require.NoError(t, manager.SaveAllSessions())
				ids, err := persistence.ListAll()
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"auto2"}, ids)
			})
		})
	}
}

func TestLoadPersistedSessions_PrunesBadRecords(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir, nil)
	require.NoError(t, err)

	manager := NewManagerWithPersistence(persistence)
	_, err = manager.Create("good", "test", createTestConfig())
	require.NoError(t, err)
	tampered, err := manager.Create("extra", "test", createTestConfig())
	require.NoError(t, err)

	// same size and walls, one box too many
	data, err := newPersistedData(tampered)
	require.NoError(t, err)
	data.GameState = data.GameState.Snapshot()
	board, err := engine.ParseBoard([]string{
		"######",
		"#@.OO#",
		"#....#",
		"######",
	})
	require.NoError(t, err)
	data.GameState.Board = board
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.json"), raw, 0644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{not json"), 0644))

	restarted := NewManagerWithPersistence(persistence)
	pruned, err := restarted.LoadPersistedSessions()
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)
	assert.Equal(t, 1, restarted.Count())

	_, err = restarted.Get("good")
	assert.NoError(t, err)
	assert.False(t, persistence.Exists("extra"))
	assert.False(t, persistence.Exists("garbage"))
}

func TestManager_GetRejectsMismatchedRecord(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir, nil)
	require.NoError(t, err)

	session := newTestSession(t, "resized")
	data, err := newPersistedData(session)
	require.NoError(t, err)
	board, err := engine.ParseBoard([]string{"#####", "#@O.#", "#####"})
	require.NoError(t, err)
	data.GameState.Board = board
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resized.json"), raw, 0644))

	_, err = NewManagerWithPersistence(persistence).Get("resized")
	assert.ErrorIs(t, err, ErrCorruptSession)
}

func TestManager_AccessWritesAreThrottled(t *testing.T) {
	persistence, err := NewFilePersistence(t.TempDir(), nil)
	require.NoError(t, err)
	manager := NewManagerWithPersistence(persistence)

	session, err := manager.Create("touchy", "test", createTestConfig())
	require.NoError(t, err)
	created := session.LastAccessedAt

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, manager.UpdateLastAccessed("touchy"))

	stored, err := persistence.Load("touchy")
	require.NoError(t, err)
	assert.True(t, stored.LastAccessedAt.Equal(created), "reads within a minute do not rewrite the record")

	require.NoError(t, manager.SaveAllSessions())
	stored, err = persistence.Load("touchy")
	require.NoError(t, err)
	assert.True(t, stored.LastAccessedAt.Equal(session.LastAccessedAt))
	assert.True(t, stored.LastAccessedAt.After(created))
}
