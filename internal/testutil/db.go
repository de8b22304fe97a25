package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xrs-network/xrsd/internal/infrastructure/sqlite"
	"github.com/xrs-network/xrsd/internal/names/domain"
)

// NewTestDB opens a migrated SQLite database in a temp directory, closed on
// test cleanup.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "xrsd-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestRepository returns a SQLite-backed repository over a fresh temp
// database.
func NewTestRepository(t *testing.T) domain.NameRepository {
	t.Helper()
	return NewTestDB(t).NameRepository()
}
