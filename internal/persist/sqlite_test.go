package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecordRepo(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "worldnav.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, err = repo.Load(ctx, "meadow")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, Entry{Name: "meadow", Tick: 100, Tasks: 2, Record: sampleRecord()}))
	require.NoError(t, repo.Save(ctx, Entry{Name: "meadow", Tick: 250, Tasks: 1, Record: sampleRecord()}))
	require.NoError(t, repo.Save(ctx, Entry{Name: "desert", Tick: 7, Record: sampleRecord()}))

	e, err := repo.Load(ctx, "meadow")
	require.NoError(t, err)
	assert.Equal(t, uint64(250), e.Tick)
	assert.False(t, e.SavedAt.IsZero())
	assertSameRecord(t, sampleRecord(), e.Record)

	hist, err := repo.History(ctx, "meadow", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, uint64(250), hist[0].Tick, "newest first")
	assert.Equal(t, 1, hist[0].Tasks)
	assert.Equal(t, uint64(100), hist[1].Tick)

	hist, err = repo.History(ctx, "meadow", 1)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
	require.NoError(t, repo.Close())

	// reopening applies no migrations twice and keeps the data
	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()
	e, err = repo.Load(ctx, "desert")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), e.Tick)
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
