package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteProcessedLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ok, err := s.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.MarkProcessed(ctx, "msg-1"))

	ok, err = s.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Marking twice is a no-op, not an error.
	require.NoError(t, s.MarkProcessed(ctx, "msg-1"))
}

func TestSQLiteFilterUnprocessed(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.MarkProcessed(ctx, "seen-1"))
	require.NoError(t, s.MarkProcessed(ctx, "seen-2"))

	out, err := s.FilterUnprocessed(ctx, []string{"new-1", "seen-1", "new-2", "seen-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new-1", "new-2"}, out)
}

func TestSQLiteFilterUnprocessedEmpty(t *testing.T) {
	s := newTestSQLite(t)
	out, err := s.FilterUnprocessed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSQLiteRecordAndListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, kind := range []string{"track", "import", "track"} {
		require.NoError(t, s.RecordRun(ctx, SyncRun{
			Kind:       kind,
			Source:     "source-" + kind,
			New:        i,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		}))
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first.
	assert.Equal(t, 2, runs[0].New)
	assert.NotEmpty(t, runs[0].ID)

	tracks, err := s.ListRuns(ctx, RunFilter{Kind: "track"})
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	offset, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, offset, 1)
	assert.NotEqual(t, limited[0].ID, offset[0].ID)
}

func TestSQLiteRecordRunKeepsExplicitID(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := SyncRun{
		ID:         "run-42",
		Kind:       "import",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	require.NoError(t, s.RecordRun(ctx, run))

	runs, err := s.ListRuns(ctx, RunFilter{Kind: "import"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-42", runs[0].ID)
}
