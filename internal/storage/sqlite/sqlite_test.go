package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchflow/internal/config"
	"researchflow/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(context.Background(), config.StorageConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store.(*SQLiteStore)
}

func TestRememberAndSeeItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seen, err := store.SeenItem(ctx, "arxiv_2401.00001")
	require.NoError(t, err)
	assert.False(t, seen)

	item := &types.Item{
		ID:        "arxiv_2401.00001",
		Source:    "arxiv",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"title": "t"},
	}
	require.NoError(t, store.RememberItem(ctx, item))

	seen, err = store.SeenItem(ctx, "arxiv_2401.00001")
	require.NoError(t, err)
	assert.True(t, seen)

	// Remembering again must be a no-op, not an error.
	require.NoError(t, store.RememberItem(ctx, item))
}

func TestRecordRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := &types.RunReport{
		StartedAt:      time.Now().Add(-time.Second),
		FinishedAt:     time.Now(),
		TotalExecutors: 2,
		Successful:     1,
		Failed:         1,
		TotalItems:     5,
		Results: []*types.FetchResult{
			{Executor: "arxiv", Status: types.StatusSuccess},
			{Executor: "reddit", Status: types.StatusFailed, Error: "boom"},
		},
	}

	require.NoError(t, store.RecordRun(ctx, report))

	var count int
	require.NoError(t, store.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count))
	assert.Equal(t, 1, count)
}
