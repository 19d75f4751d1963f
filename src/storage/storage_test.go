package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	versions, err := db.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)

	applied, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	versions, err = db.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestCreateAndListQueryExecutions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := &QueryExecution{
		TableList:  JSONStringArray{"[dbo].[Orders]", "[dbo].[Customers]"},
		Intent:     "top customers by revenue",
		SQL:        "SELECT TOP 5 * FROM Orders",
		RowCount:   5,
		DurationMs: 42,
		Mode:       "guarded",
		Deployment: "gpt-4o",
		CreatedAt:  base,
	}
	second := &QueryExecution{
		Intent:    "count orders",
		SQL:       "SELECT COUNT(*) FROM Ordrs",
		Error:     "Invalid object name 'Ordrs'",
		Mode:      "guarded",
		CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, CreateQueryExecution(ctx, db.DB(), first))
	require.NoError(t, CreateQueryExecution(ctx, db.DB(), second))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	executions, err := ListRecentQueryExecutions(ctx, db.DB(), 10)
	require.NoError(t, err)
	require.Len(t, executions, 2)

	assert.Equal(t, second.ID, executions[0].ID)
	assert.Equal(t, "Invalid object name 'Ordrs'", executions[0].Error)
	assert.Equal(t, JSONStringArray{}, executions[0].TableList)

	got := executions[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, JSONStringArray{"[dbo].[Orders]", "[dbo].[Customers]"}, got.TableList)
	assert.Equal(t, "top customers by revenue", got.Intent)
	assert.Equal(t, "SELECT TOP 5 * FROM Orders", got.SQL)
	assert.Equal(t, 5, got.RowCount)
	assert.Equal(t, int64(42), got.DurationMs)
	assert.Equal(t, "gpt-4o", got.Deployment)
	assert.True(t, base.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)

	limited, err := ListRecentQueryExecutions(ctx, db.DB(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetQueryExecutionByID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	missing, err := GetQueryExecutionByID(ctx, db.DB(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	e := &QueryExecution{Intent: "x", Mode: "unsafe"}
	require.NoError(t, CreateQueryExecution(ctx, db.DB(), e))

	got, err := GetQueryExecutionByID(ctx, db.DB(), e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "unsafe", got.Mode)
}

func TestExtractUpMigration(t *testing.T) {
	content := `-- +goose Up
-- +goose StatementBegin
CREATE TABLE a (id INTEGER);
-- +goose StatementEnd
-- +goose Down
-- +goose StatementBegin
DROP TABLE a;
-- +goose StatementEnd
`
	assert.Equal(t, "CREATE TABLE a (id INTEGER);", extractUpMigration(content))
}
