package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/warehouse/api"
	"github.com/wricardo/mcp-training/warehouse/game/session"
	"github.com/wricardo/mcp-training/warehouse/transport/mcp"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Warehouse Robot Server", AppName)
}

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, 8080, *port)
	assert.Equal(t, "localhost", *host)
	assert.Equal(t, 24*time.Hour, *sessionTTL)
	assert.False(t, *debug)
	assert.False(t, *ngrokEnabled)
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("WAREHOUSE_TEST_DIR", "")
	assert.Equal(t, "fallback", envDefault("WAREHOUSE_TEST_DIR", "fallback"))

	t.Setenv("WAREHOUSE_TEST_DIR", "/srv/puzzles")
	assert.Equal(t, "/srv/puzzles", envDefault("WAREHOUSE_TEST_DIR", "fallback"))
}

func TestIsStdioMode(t *testing.T) {
	for _, mode := range []string{"stdio-mcp", "mcp-stdio", "mcp"} {
		assert.True(t, isStdioMode(mode), mode)
	}
	assert.False(t, isStdioMode("server"))
}

// withFlags points the service flags at temporary directories for one test.
func withFlags(t *testing.T, storeKind string) string {
	t.Helper()
	sessions := t.TempDir()

	oldConfig, oldSessions, oldStore := *configDir, *sessionsDir, *store
	*configDir = "configs"
	*sessionsDir = sessions
	*store = storeKind
	t.Cleanup(func() {
		*configDir, *sessionsDir, *store = oldConfig, oldSessions, oldStore
	})
	return sessions
}

func newServices(t *testing.T, storeKind string) (*services, string) {
	t.Helper()
	dir := withFlags(t, storeKind)
	svcs, err := initializeServices()
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })
	return svcs, dir
}

func TestInitializeServices(t *testing.T) {
	for _, kind := range []string{StoreFile, StoreSQLite, StoreMemory} {
		t.Run(kind, func(t *testing.T) {
			svcs, _ := newServices(t, kind)
			require.NotNil(t, svcs.game)

			info, err := svcs.game.CreateSession(context.Background(), "")
			require.NoError(t, err)
			assert.Equal(t, "example", info.ConfigID)
		})
	}
}

func TestInitializeServices_Errors(t *testing.T) {
	withFlags(t, StoreFile)
	*configDir = "/non/existent/path"
	_, err := initializeServices()
	assert.Error(t, err)

	withFlags(t, "postgres")
	_, err = initializeServices()
	assert.Error(t, err)
}

func TestNewPersistence_Memory(t *testing.T) {
	p, err := newPersistence(StoreMemory, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCleanup_PrunesDeletedFiles(t *testing.T) {
	svcs, dir := newServices(t, StoreFile)
	ctx := context.Background()

	info, err := svcs.game.CreateSession(ctx, "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, info.ID+".json")))

	svcs.cleanup(time.Hour)
	assert.Equal(t, 0, svcs.sessions.Count())

	_, err = svcs.game.GetSession(ctx, info.ID)
	assert.Error(t, err)
}

func TestCleanup_ExpiresIdleSessions(t *testing.T) {
	svcs, _ := newServices(t, StoreSQLite)
	ctx := context.Background()

	info, err := svcs.game.CreateSession(ctx, "")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	svcs.cleanup(5 * time.Millisecond)

	assert.Equal(t, 0, svcs.sessions.Count())
	db, ok := svcs.persistence.(*session.SQLitePersistence)
	require.True(t, ok)
	assert.False(t, db.Exists(info.ID))
}

func TestServicesClose_WritesSessionsBack(t *testing.T) {
	dir := withFlags(t, StoreFile)
	svcs, err := initializeServices()
	require.NoError(t, err)

	info, err := svcs.game.CreateSession(context.Background(), "")
	require.NoError(t, err)
	path := filepath.Join(dir, info.ID+".json")
	require.NoError(t, os.Remove(path))

	require.NoError(t, svcs.Close())
	assert.FileExists(t, path)

	restarted, err := initializeServices()
	require.NoError(t, err)
	t.Cleanup(func() { _ = restarted.Close() })
	assert.Equal(t, 1, restarted.sessions.Count())
}

func TestRootHandler(t *testing.T) {
	svcs, _ := newServices(t, StoreMemory)
	handler := newRootHandler(api.NewServer(svcs.game, nil), mcp.NewClient("http://127.0.0.1:0"))
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"jsonrpc":"2.0"`)
	assert.Contains(t, string(body), `"id":1`)
}

func TestExternalAPIAvailable(t *testing.T) {
	svcs, _ := newServices(t, StoreMemory)
	srv := httptest.NewServer(api.NewServer(svcs.game, nil))
	defer srv.Close()

	assert.True(t, externalAPIAvailable(srv.URL))
	srv.Close()
	assert.False(t, externalAPIAvailable(srv.URL))
}

func TestNgrokSettings(t *testing.T) {
	t.Setenv("NGROK_ENABLED", "")
	t.Setenv("NGROK_AUTHTOKEN", "")
	t.Setenv("NGROK_AUTH_TOKEN", "")
	assert.False(t, ngrokRequested())
	assert.Equal(t, "", ngrokToken())

	t.Setenv("NGROK_ENABLED", "1")
	t.Setenv("NGROK_AUTH_TOKEN", "underscore")
	assert.True(t, ngrokRequested())
	assert.Equal(t, "underscore", ngrokToken())

	t.Setenv("NGROK_AUTHTOKEN", "plain")
	assert.Equal(t, "plain", ngrokToken())
}
