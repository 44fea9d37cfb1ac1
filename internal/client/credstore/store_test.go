package credstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty store reports absent", func(t *testing.T) {
		s := newStore(t)
		tok, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, tok)
	})

	t.Run("read after write", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "tok123"))
		tok, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok123", tok)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "old"))
		require.NoError(t, s.Set(ctx, "new"))
		tok, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "new", tok)
	})

	t.Run("any non-empty string is accepted", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "not a jwt at all"))
		tok, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "not a jwt at all", tok)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		s := newStore(t)
		require.ErrorIs(t, s.Set(ctx, ""), ErrEmptyCredential)
	})

	t.Run("clear removes and is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "x"))
		require.NoError(t, s.Clear(ctx))
		require.NoError(t, s.Clear(ctx))
		tok, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, tok)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		return NewSQLiteStore(openTestDB(t, ":memory:"))
	})
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteStore(db).Set(ctx, "persisted"))
	require.NoError(t, db.Close())

	reopened := openTestDB(t, path)
	tok, err := NewSQLiteStore(reopened).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
}

func TestSQLiteStore_SetRollsBackWhenReadBackDiffers(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, ":memory:")
	s := NewSQLiteStore(db)
	require.NoError(t, s.Set(ctx, "old"))

	_, err := db.ExecContext(ctx, `
		CREATE TRIGGER tamper AFTER UPDATE OF value ON credentials
		BEGIN UPDATE credentials SET value = 'tampered' WHERE key = NEW.key; END`)
	require.NoError(t, err)

	err = s.Set(ctx, "new")
	require.ErrorIs(t, err, errCredentialMismatch)
	require.ErrorContains(t, err, "failed to set credential[token]")

	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", tok, "failed write must be rolled back")
}

func TestSQLiteStore_SetJoinsCallerTx(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, filepath.Join(t.TempDir(), "session.db"))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteStore(tx).Set(ctx, "in-tx"))
	require.NoError(t, tx.Rollback())

	tok, err := NewSQLiteStore(db).Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, RunMigrations(context.Background(), db))
}

func TestSQLiteStore_DBErrorsWrapped(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	s := NewSQLiteStore(db)
	require.NoError(t, db.Close())

	_, err = s.Get(ctx)
	require.ErrorContains(t, err, "failed to get credential[token]")
	require.ErrorContains(t, s.Set(ctx, "x"), "failed to set credential[token]")
	require.ErrorContains(t, s.Clear(ctx), "failed to clear credential[token]")
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, "t")
			_, _ = s.Get(ctx)
			_ = s.Clear(ctx)
		}()
	}
	wg.Wait()
}
