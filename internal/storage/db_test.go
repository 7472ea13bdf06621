package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertAndListRuns(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.InsertRun(internal.RefreshRun{
		ID:        "run-1",
		StartedAt: "2024-01-15T08:00:00Z",
		Status:    "ok",
		Records:   3,
		TotalMs:   120,
		Sources: []internal.SourceReport{
			{Kind: internal.SourcePrimary, SourceID: "0", Status: internal.StatusOK, Rows: 3},
		},
	}))
	require.NoError(t, db.InsertRun(internal.RefreshRun{
		ID:        "run-2",
		StartedAt: "2024-01-15T09:00:00Z",
		Status:    "failed",
		Error:     "all sources failed",
	}))

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "all sources failed", runs[0].Error)
	assert.Empty(t, runs[0].Sources)

	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 3, runs[1].Records)
	require.Len(t, runs[1].Sources, 1)
	assert.Equal(t, internal.StatusOK, runs[1].Sources[0].Status)

	limited, err := db.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetMetadata("dashboard.last_refresh")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.SetMetadata("dashboard.last_refresh", "a"))
	require.NoError(t, db.SetMetadata("dashboard.last_refresh", "b"))

	v, err = db.GetMetadata("dashboard.last_refresh")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "b", *v)
}
