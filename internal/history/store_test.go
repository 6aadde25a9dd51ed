package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/catcensus/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		wantErr bool
	}{
		{
			name:   "creates database successfully",
			dbPath: filepath.Join(t.TempDir(), "test.db"),
		},
		{
			name:   "handles in-memory database",
			dbPath: ":memory:",
		},
		{
			name:   "creates parent directories if needed",
			dbPath: filepath.Join(t.TempDir(), "nested", "dir", "test.db"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.dbPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			version, err := store.GetLatestVersion()
			require.NoError(t, err)
			assert.Equal(t, len(migrations), version)
			assert.Equal(t, tt.dbPath, store.Path())
		})
	}
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.ApplyMigrations(context.Background()))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	versions, err := reopened.GetAppliedVersions()
	require.NoError(t, err)
	require.Len(t, versions, len(migrations))
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
	}
}

func TestRecordAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := NewRun(models.SourceResult{
		Source: "cats.json",
		Format: "json",
		Result: &models.AggregationResult{
			MotherSummary: "The mother cats are called  Bella Luna",
			KittenSummary: "3 total cats and 2 male cats.",
			Mothers:       2,
			Total:         3,
			Male:          2,
		},
		Duration: 42 * time.Millisecond,
	})
	require.NoError(t, store.Record(ctx, run))

	assert.NotZero(t, run.ID)
	assert.Len(t, run.RunID, 36)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := store.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, "cats.json", got.Source)
	assert.True(t, got.Success)
	assert.Equal(t, 2, got.Mothers)
	assert.Equal(t, 3, got.TotalKittens)
	assert.Equal(t, 2, got.MaleKittens)
	assert.Equal(t, "3 total cats and 2 male cats.", got.KittenSummary)
	assert.Equal(t, int64(42), got.DurationMs)

	byPrefix, err := store.Get(ctx, run.RunID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.RunID, byPrefix.RunID)

	_, err = store.Get(ctx, "does-not-exist")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = store.Get(ctx, "abc")
	assert.True(t, errors.Is(err, ErrRunNotFound), "short prefixes never match")
}

func TestGet_PrefixIsLiteral(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{Source: "cats.json", Format: "json", Success: true}
	require.NoError(t, store.Record(ctx, run))

	for _, id := range []string{"%%%%%%%%", "________", run.RunID[:7] + "%", run.RunID[:7] + "_", `\\\\\`} {
		_, err := store.Get(ctx, id)
		assert.True(t, errors.Is(err, ErrRunNotFound), "id %q", id)
	}

	require.NoError(t, store.Record(ctx, &Run{Source: "dogs.json", Format: "json", Success: true}))
	_, err := store.Get(ctx, "%%%%%%%%")
	assert.True(t, errors.Is(err, ErrRunNotFound), "wildcards must not report an ambiguous prefix")

	got, err := store.Get(ctx, run.RunID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
}

func TestRecordFailedRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := NewRun(models.SourceResult{
		Source: "broken.json",
		Format: "json",
		Error:  errors.New("decode json payload: unexpected end of JSON input"),
	})
	require.NoError(t, store.Record(ctx, run))

	got, err := store.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Contains(t, got.ErrorMessage, "unexpected end")
	assert.Empty(t, got.MotherSummary)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, source := range []string{"a.json", "b.json", "c.json"} {
		require.NoError(t, store.Record(ctx, &Run{
			Source:    source,
			Format:    "json",
			Success:   true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c.json", runs[0].Source)
	assert.Equal(t, "a.json", runs[2].Source)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Runs)
	assert.Nil(t, empty.FirstRun)

	require.NoError(t, store.Record(ctx, &Run{Source: "a", Format: "json", Success: true, Mothers: 2, TotalKittens: 3, MaleKittens: 2}))
	require.NoError(t, store.Record(ctx, &Run{Source: "b", Format: "yaml", Success: true, Mothers: 1, TotalKittens: 4, MaleKittens: 1}))
	require.NoError(t, store.Record(ctx, &Run{Source: "c", Format: "json", Success: false, Mothers: 9, TotalKittens: 9, MaleKittens: 9}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Runs)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, stats.Mothers)
	assert.Equal(t, 7, stats.TotalKittens)
	assert.Equal(t, 3, stats.MaleKittens)
	require.NotNil(t, stats.FirstRun)
	require.NotNil(t, stats.LastRun)
	assert.False(t, stats.LastRun.Before(*stats.FirstRun))
}

func TestCleanup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, &Run{Source: "old", Format: "json", Success: true, CreatedAt: time.Now().AddDate(0, 0, -40)}))
	require.NoError(t, store.Record(ctx, &Run{Source: "new", Format: "json", Success: true}))

	deleted, err := store.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = store.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].Source)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, source := range []string{"a.json", "a.json", "b.json"} {
		require.NoError(t, store.Record(ctx, &Run{Source: source, Format: "json", Success: true}))
	}

	deleted, err := store.Clear(ctx, "a.json")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = store.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
