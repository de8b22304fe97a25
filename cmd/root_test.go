package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xrs-network/xrsd/internal/config"
)

// TestOpenRepository_MemoryBackend verifies that the memory backend produces
// a working repository without touching disk.
func TestOpenRepository_MemoryBackend(t *testing.T) {
	t.Cleanup(resetServeFlags)
	serveBackend = config.BackendMemory

	repo, closeRepo, err := openRepository()
	require.NoError(t, err)
	defer closeRepo()

	count, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

// TestOpenRepository_SQLiteBackend verifies that the --db flag wins over
// config and that the database file is created on open.
func TestOpenRepository_SQLiteBackend(t *testing.T) {
	t.Cleanup(resetServeFlags)
	serveBackend = config.BackendSQLite
	serveDBPath = filepath.Join(t.TempDir(), "cmd-test.db")
	cfg.Database.Path = "/nonexistent/should-not-be-used.db"

	repo, closeRepo, err := openRepository()
	require.NoError(t, err)
	defer closeRepo()

	require.FileExists(t, serveDBPath)

	count, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

// TestOpenRepository_UnknownBackend verifies that a typo'd backend is caught
// at startup rather than falling through to a default.
func TestOpenRepository_UnknownBackend(t *testing.T) {
	t.Cleanup(resetServeFlags)
	serveBackend = "postgres"

	_, _, err := openRepository()
	require.Error(t, err)
	require.Contains(t, err.Error(), "postgres")
}

func resetServeFlags() {
	serveBackend = ""
	serveDBPath = ""
	cfg = config.Config{}
}
