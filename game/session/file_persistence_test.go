package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

func newTestSession(t *testing.T, id string) *service.Session {
	t.Helper()
	eng, err := engine.NewEngine(createTestConfig())
	require.NoError(t, err)
	now := time.Now().Truncate(time.Second)
	return &service.Session{
		ID:             id,
		ConfigID:       "test",
		Engine:         eng,
		Config:         eng.GetConfig(),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

// testPersistenceContract exercises behavior every store must share.
func testPersistenceContract(t *testing.T, p SessionPersistence) {
	t.Run("save and load", func(t *testing.T) {
		session := newTestSession(t, "save1")
		require.True(t, session.Engine.Move("right"))
		require.True(t, session.Engine.Move("right"))
		session.Engine.RunScript(1)
		require.NoError(t, p.Save(session))

		loaded, err := p.Load("save1")
		require.NoError(t, err)
		assert.Equal(t, "save1", loaded.ID)
		assert.Equal(t, "test", loaded.ConfigID)
		assert.True(t, session.CreatedAt.Equal(loaded.CreatedAt))

		want := session.Engine.GetState()
		got := loaded.Engine.GetState()
		assert.Equal(t, want.Rows, got.Rows)
		assert.Equal(t, want.Score, got.Score)
		assert.Equal(t, want.ScriptCursor, got.ScriptCursor)
		assert.Equal(t, want.TotalMoves, got.TotalMoves)
		assert.Len(t, got.MoveHistory, 3)

		// the restored engine keeps playing from the saved board
		assert.False(t, loaded.Engine.Move("right"))
		assert.True(t, loaded.Engine.Move("down"))
	})

	t.Run("save overwrites", func(t *testing.T) {
		session := newTestSession(t, "over")
		require.NoError(t, p.Save(session))
		session.Engine.Move("right")
		require.NoError(t, p.Save(session))

		loaded, err := p.Load("over")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Engine.GetState().TotalMoves)
	})

	t.Run("list and exists", func(t *testing.T) {
		require.NoError(t, p.Save(newTestSession(t, "list1")))
		require.NoError(t, p.Save(newTestSession(t, "list2")))

		ids, err := p.ListAll()
		require.NoError(t, err)
		assert.Subset(t, ids, []string{"list1", "list2"})
		assert.True(t, p.Exists("list1"))
		assert.False(t, p.Exists("nothere"))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, p.Save(newTestSession(t, "gone")))
		require.NoError(t, p.Delete("gone"))
		assert.False(t, p.Exists("gone"))
		assert.True(t, errors.Is(p.Delete("gone"), ErrSessionNotFound))

		_, err := p.Load("gone")
		assert.True(t, errors.Is(err, ErrSessionNotFound))
	})

	t.Run("nil session", func(t *testing.T) {
		assert.Error(t, p.Save(nil))
	})
}

func TestFilePersistence(t *testing.T) {
	p, err := NewFilePersistence(t.TempDir(), nil)
	require.NoError(t, err)
	testPersistenceContract(t, p)
}

func TestFilePersistenceFileStructure(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersistence(dir, nil)
	require.NoError(t, err)

	session := newTestSession(t, "layout")
	session.Engine.Move("right")
	require.NoError(t, p.Save(session))

	raw, err := os.ReadFile(filepath.Join(dir, "layout.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "layout", doc["id"])
	assert.Equal(t, "test", doc["config_name"])
	assert.Contains(t, doc, "config")

	state, ok := doc["game_state"].(map[string]any)
	require.True(t, ok)
	board, ok := state["board"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"######", "#.@O.#", "#....#", "######"}, board["rows"])

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFilePersistence_RejectsUnsafeIDs(t *testing.T) {
	p, err := NewFilePersistence(t.TempDir(), nil)
	require.NoError(t, err)

	assert.True(t, errors.Is(p.Save(newTestSession(t, "../x")), ErrInvalidSessionID))
	_, err = p.Load("../x")
	assert.True(t, errors.Is(err, ErrInvalidSessionID))
	assert.False(t, p.Exists("../x"))
}

type stubConfigs struct {
	service.ConfigManager
	config *engine.PuzzleConfig
}

func (s stubConfigs) LoadConfig(name string) (*engine.PuzzleConfig, error) {
	if name != "test" {
		return nil, errors.New("configuration not found")
	}
	return s.config, nil
}

func TestFilePersistence_LoadWithoutStoredPuzzle(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersistence(dir, stubConfigs{config: createTestConfig()})
	require.NoError(t, err)

	session := newTestSession(t, "legacy")
	data, err := newPersistedData(session)
	require.NoError(t, err)
	data.Config = nil
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.json"), raw, 0644))

	loaded, err := p.Load("legacy")
	require.NoError(t, err)
	assert.Equal(t, "test", loaded.Config.Name)

	data.ConfigName = "missing"
	raw, err = json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.json"), raw, 0644))
	_, err = p.Load("legacy")
	assert.Error(t, err)
}
