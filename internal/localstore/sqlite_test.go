package localstore

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a fresh SQLite store in a temp directory.
func createTestStore(t *testing.T, opts ...Option) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.db")
	s, err := OpenSQLite(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file should exist")
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(path)
		require.NoError(t, err, "open iteration %d", i)
		s.Close()
	}

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/local.db")
	assert.Error(t, err)
}

func TestOpenSQLite_Pragmas(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	require.True(t, s1.Write("acme:cart", []byte(`{"kind":1}`)))
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, ok := s2.Read("acme:cart")
	require.True(t, ok)
	assert.Equal(t, `{"kind":1}`, string(got))
}

// revisionOf reads the stored revision counter for key, 0 if absent.
func revisionOf(t *testing.T, s *SQLite, key string) int64 {
	t.Helper()
	var rev int64
	err := s.db.QueryRow(`SELECT revision FROM snapshots WHERE key = ?`, key).Scan(&rev)
	if err != nil {
		return 0
	}
	return rev
}

func TestSQLite_WriteOverwritesAndCountsRevisions(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := createTestStore(t, WithLogger(logger))

	assert.Equal(t, int64(0), revisionOf(t, s, "k"))
	require.True(t, s.Write("k", []byte("v1")))
	require.True(t, s.Write("k", []byte("v2")))

	got, ok := s.Read("k")
	require.True(t, ok)
	assert.Equal(t, "v2", string(got))
	assert.Equal(t, int64(2), revisionOf(t, s, "k"))
	assert.Contains(t, logs.String(), "msg=\"snapshot written\" key=k revision=1")
	assert.Contains(t, logs.String(), "msg=\"snapshot written\" key=k revision=2")
}

func TestSQLite_EraseIsScopedToKey(t *testing.T) {
	s := createTestStore(t)
	s.Write("a", []byte("1"))
	s.Write("b", []byte("2"))

	assert.True(t, s.Erase("a"))
	assert.True(t, s.Erase("a"), "erasing twice succeeds")

	_, ok := s.Read("a")
	assert.False(t, ok)
	_, ok = s.Read("b")
	assert.True(t, ok)
}

func TestSQLite_ClosedStoreDegradesWithoutPanic(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := createTestStore(t, WithLogger(logger))
	require.NoError(t, s.Close())

	_, ok := s.Read("k")
	assert.False(t, ok)
	assert.False(t, s.Write("k", []byte("v")))
	assert.False(t, s.Erase("k"))
	assert.Contains(t, logs.String(), "local store write failed")
}

func TestSQLite_MissingKeyIsNotLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := createTestStore(t, WithLogger(logger))

	_, ok := s.Read("missing")
	assert.False(t, ok)
	assert.Empty(t, logs.String())
}

func TestMigrateToV1_AddsRevisionColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)

	// Rebuild a pre-v1 table without the revision column.
	_, err = s.db.Exec(`DROP TABLE snapshots`)
	require.NoError(t, err)
	_, err = s.db.Exec(`CREATE TABLE snapshots (key TEXT PRIMARY KEY, payload BLOB NOT NULL, updated_at INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = s.db.Exec(`PRAGMA user_version = 0`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	require.True(t, s2.Write("k", []byte("v")))
	assert.Equal(t, int64(1), revisionOf(t, s2, "k"))
}
