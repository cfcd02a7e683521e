package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/voicesync/internal/client/client"
)

func openRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, client.RunMigrations(context.Background(), db))
	return NewSQLiteRepository(db), db
}

func TestSetAndGet(t *testing.T) {
	r, _ := openRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "discovered_voices", `[{"voiceId":"v1"}]`))

	v, found, err := r.Get(ctx, "discovered_voices")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"voiceId":"v1"}]`, v)
}

func TestGet_Missing(t *testing.T) {
	r, _ := openRepo(t)

	v, found, err := r.Get(context.Background(), "discovered_voices_last_sync")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, v)
}

func TestSet_OverwritesInPlace(t *testing.T) {
	r, db := openRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "discovered_voices_last_sync", "1700000000000"))
	require.NoError(t, r.Set(ctx, "discovered_voices_last_sync", "1700000000999"))

	v, _, err := r.Get(ctx, "discovered_voices_last_sync")
	require.NoError(t, err)
	assert.Equal(t, "1700000000999", v)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestDelete_OnlyNamedKey(t *testing.T) {
	r, _ := openRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "discovered_voices", "[]"))
	require.NoError(t, r.Set(ctx, "other", "kept"))

	require.NoError(t, r.Delete(ctx, "discovered_voices"))
	require.NoError(t, r.Delete(ctx, "discovered_voices"))

	_, found, err := r.Get(ctx, "discovered_voices")
	require.NoError(t, err)
	assert.False(t, found)

	v, found, err := r.Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "kept", v)
}

func TestErrorsAreWrapped(t *testing.T) {
	r, db := openRepo(t)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, _, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, `get "k"`)

	require.ErrorContains(t, r.Set(ctx, "k", "v"), `set "k"`)
	require.ErrorContains(t, r.Delete(ctx, "k"), `delete "k"`)
}
