package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the shared Get/Put/Delete contract against b.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, b.Open(ctx))
	defer b.Close()

	_, err := b.Get(ctx, "apiKey")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Put(ctx, "apiKey", "one"))
	require.NoError(t, b.Put(ctx, "apiKey", "two"))

	value, err := b.Get(ctx, "apiKey")
	require.NoError(t, err)
	assert.Equal(t, "two", value)

	require.NoError(t, b.Delete(ctx, "apiKey"))
	_, err = b.Get(ctx, "apiKey")
	assert.ErrorIs(t, err, ErrNotFound)

	// Backends may report a missing key on delete, never anything else
	if err := b.Delete(ctx, "apiKey"); err != nil {
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestSQLiteBackend(t *testing.T) {
	exerciseBackend(t, NewSQLiteBackend(filepath.Join(t.TempDir(), "nested", "store.db")))
}

func TestSQLiteBackendPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	first := NewSQLiteBackend(path)
	require.NoError(t, first.Open(ctx))
	require.NoError(t, first.Put(ctx, "apiKey", "persisted"))
	require.NoError(t, first.Close())

	// Second open sees user_version already set and skips the upgrade
	second := NewSQLiteBackend(path)
	require.NoError(t, second.Open(ctx))
	defer second.Close()

	value, err := second.Get(ctx, "apiKey")
	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
}

func TestSQLiteBackendPathWithURICharacters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "odd?name#1", "store?v=2.db")

	first := NewSQLiteBackend(path)
	require.NoError(t, first.Open(ctx))
	require.NoError(t, first.Put(ctx, "apiKey", "persisted"))
	require.NoError(t, first.Close())

	_, err := os.Stat(path)
	require.NoError(t, err, "database file lives at the literal path")

	second := NewSQLiteBackend(path)
	require.NoError(t, second.Open(ctx))
	defer second.Close()

	value, err := second.Get(ctx, "apiKey")
	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:///tmp/a%3Fb%23c/store.db?_busy_timeout=2000&_journal_mode=WAL", dsn("/tmp/a?b#c/store.db"))
}

func TestSQLiteBackendNotOpen(t *testing.T) {
	b := NewSQLiteBackend(filepath.Join(t.TempDir(), "store.db"))
	_, err := b.Get(context.Background(), "apiKey")
	assert.Error(t, err)
	assert.Error(t, b.Put(context.Background(), "apiKey", "v"))
	assert.NoError(t, b.Close())
}

func TestFileBackend(t *testing.T) {
	exerciseBackend(t, NewFileBackend(filepath.Join(t.TempDir(), "store.enc"), "secret"))
}

func TestFileBackendEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.enc")
	b := NewFileBackend(path, "secret")
	require.NoError(t, b.Open(ctx))
	require.NoError(t, b.Put(ctx, "apiKey", "plain-text-key"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "plain-text-key")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileBackendWrongPassword(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.enc")

	b := NewFileBackend(path, "right")
	require.NoError(t, b.Open(ctx))
	require.NoError(t, b.Put(ctx, "apiKey", "v"))

	other := NewFileBackend(path, "wrong")
	err := other.Open(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")

	// Through the adapter the failure becomes "no persistence"
	a := NewAdapter(NewFileBackend(path, "wrong"), nil)
	_, ok := a.Get(ctx, "apiKey")
	assert.False(t, ok)
	assert.Equal(t, StateFailed, a.State())
}

func TestKeyringBackend(t *testing.T) {
	exerciseBackend(t, NewKeyringBackendWith(keyring.NewArrayKeyring(nil)))
}

func TestNewBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		kind     string
		expected any
	}{
		{kind: "", expected: &SQLiteBackend{}},
		{kind: KindAuto, expected: &SQLiteBackend{}},
		{kind: KindSQLite, expected: &SQLiteBackend{}},
		{kind: KindFile, expected: &FileBackend{}},
		{kind: KindMemory, expected: &MemoryBackend{}},
	}

	for _, tt := range tests {
		t.Run("kind_"+tt.kind, func(t *testing.T) {
			b, err := NewBackend(tt.kind, dir)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, b)
		})
	}

	t.Run("none returns nil backend", func(t *testing.T) {
		b, err := NewBackend(KindNone, dir)
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewBackend("floppy", dir)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown store kind")
	})
}
