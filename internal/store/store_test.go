package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

func sampleCredential() *models.Credential {
	return &models.Credential{
		AccessToken:  "A",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		RefreshToken: "R",
		Scope:        "user-read-currently-playing",
		ObtainedAt:   1_700_000_000_000,
	}
}

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty store loads absent")

	require.NoError(t, s.Clear(ctx), "clearing an empty store succeeds")

	want := sampleCredential()
	require.NoError(t, s.Save(ctx, want))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	replaced := sampleCredential()
	replaced.AccessToken = "B"
	replaced.RefreshToken = ""
	require.NoError(t, s.Save(ctx, replaced))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, replaced, got)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Clear(ctx), "clear is idempotent")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("contract", func(t *testing.T) {
		exerciseStore(t, NewMemoryStore())
	})

	t.Run("corrupt record", func(t *testing.T) {
		m := NewMemoryStore()
		m.SetRaw([]byte("{not json"))

		_, err := m.Load(ctx)
		assert.ErrorIs(t, err, shared.ErrStorageCorrupt)
	})

	t.Run("record without access token", func(t *testing.T) {
		m := NewMemoryStore()
		m.SetRaw([]byte(`{"token_type":"Bearer","expires_in":3600,"obtained_at":1}`))

		_, err := m.Load(ctx)
		assert.ErrorIs(t, err, shared.ErrStorageCorrupt)
	})

	t.Run("rejects invalid credential", func(t *testing.T) {
		m := NewMemoryStore()
		assert.ErrorIs(t, m.Save(ctx, &models.Credential{}), shared.ErrInvalidInput)
		assert.ErrorIs(t, m.Save(ctx, nil), shared.ErrInvalidInput)
	})
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	open := func(t *testing.T, path, secret string) *SQLiteStore {
		t.Helper()
		s, err := OpenSQLite(ctx, path, DefaultKey, secret)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("contract", func(t *testing.T) {
		exerciseStore(t, open(t, filepath.Join(t.TempDir(), "creds.db"), "hunter2"))
	})

	t.Run("requires secret key", func(t *testing.T) {
		_, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "creds.db"), DefaultKey, "")
		assert.ErrorIs(t, err, shared.ErrMissingSecretKey)
	})

	t.Run("ciphertext at rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.db")
		s := open(t, path, "hunter2")
		require.NoError(t, s.Save(ctx, sampleCredential()))

		var ciphertext string
		require.NoError(t, s.db.QueryRow("SELECT ciphertext FROM credentials WHERE key = ?", DefaultKey).Scan(&ciphertext))
		assert.NotContains(t, ciphertext, "access_token")
		assert.NotContains(t, ciphertext, `"R"`)

		id, err := s.RecordID(ctx)
		require.NoError(t, err)
		assert.Len(t, id, 36)
	})

	t.Run("persists across reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.db")
		s, err := OpenSQLite(ctx, path, DefaultKey, "hunter2")
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, sampleCredential()))
		require.NoError(t, s.Close())

		got, err := open(t, path, "hunter2").Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleCredential(), got)
	})

	t.Run("wrong secret is corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.db")
		s, err := OpenSQLite(ctx, path, DefaultKey, "hunter2")
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, sampleCredential()))
		require.NoError(t, s.Close())

		_, err = open(t, path, "wrong").Load(ctx)
		assert.ErrorIs(t, err, shared.ErrStorageCorrupt)
	})

	t.Run("tampered ciphertext is corrupt", func(t *testing.T) {
		s := open(t, filepath.Join(t.TempDir(), "creds.db"), "hunter2")
		_, err := s.db.Exec("INSERT INTO credentials (key, ciphertext) VALUES (?, ?)", DefaultKey, "bm90IGEgcmVjb3Jk")
		require.NoError(t, err)

		_, err = s.Load(ctx)
		assert.ErrorIs(t, err, shared.ErrStorageCorrupt)
	})

	t.Run("closed database", func(t *testing.T) {
		s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "creds.db"), DefaultKey, "hunter2")
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = s.Load(ctx)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrStorageCorrupt)
	})
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("secret", "k1")
	require.NoError(t, err)
	assert.Len(t, a, 32)

	again, _ := DeriveKey("secret", "k1")
	assert.Equal(t, a, again)

	b, _ := DeriveKey("secret", "k2")
	assert.NotEqual(t, a, b)

	_, err = DeriveKey("", "k1")
	assert.ErrorIs(t, err, shared.ErrMissingSecretKey)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		s, err := New(ctx, shared.StoreConfig{
			Backend:   shared.BackendSQLite,
			Path:      filepath.Join(t.TempDir(), "creds.db"),
			SecretKey: "hunter2",
		})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := New(ctx, shared.StoreConfig{Backend: "floppy"})
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})
}
