package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// Execer is an interface for executing SQL statements
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const queryExecutionColumns = `id, table_list, intent, generated_sql, row_count, error, duration_ms, mode, deployment, created_at`

// CreateQueryExecution records a SQL tool invocation
func CreateQueryExecution(ctx context.Context, db Execer, execution *QueryExecution) error {
	if execution.ID == "" {
		execution.ID = uuid.New().String()
	}
	if execution.TableList == nil {
		execution.TableList = JSONStringArray{}
	}
	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO query_executions (` + queryExecutionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		execution.ID,
		execution.TableList,
		execution.Intent,
		execution.SQL,
		execution.RowCount,
		execution.Error,
		execution.DurationMs,
		execution.Mode,
		execution.Deployment,
		execution.CreatedAt,
	)
	return err
}

// ListRecentQueryExecutions returns up to limit executions, newest first
func ListRecentQueryExecutions(ctx context.Context, db sqlscan.Querier, limit int) ([]QueryExecution, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + queryExecutionColumns + ` FROM query_executions ORDER BY created_at DESC, rowid DESC LIMIT ?`
	var executions []QueryExecution
	if err := sqlscan.Select(ctx, db, &executions, query, limit); err != nil {
		return nil, err
	}
	return executions, nil
}

// GetQueryExecutionByID retrieves one execution, or nil when it does not exist
func GetQueryExecutionByID(ctx context.Context, db sqlscan.Querier, id string) (*QueryExecution, error) {
	query := `SELECT ` + queryExecutionColumns + ` FROM query_executions WHERE id = ?`
	var e QueryExecution
	err := sqlscan.Get(ctx, db, &e, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
