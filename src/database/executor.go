package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrEmptyQuery        = errors.New("empty query")
)

// Mode selects how model-generated SQL is run.
type Mode string

const (
	// ModeGuarded runs each statement in a transaction that is always rolled
	// back. Rows are returned; writes never persist.
	ModeGuarded Mode = "guarded"
	// ModeUnsafe runs statements verbatim with the connection's privileges.
	ModeUnsafe Mode = "unsafe"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// Executor is the boundary model-generated SQL crosses to reach the database.
type Executor struct {
	db     *sql.DB
	mode   Mode
	logger *slog.Logger
}

// NewExecutor wraps db. An empty mode means ModeGuarded.
func NewExecutor(db *sql.DB, mode Mode, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = ModeGuarded
	}
	return &Executor{
		db:     db,
		mode:   mode,
		logger: logger.With("component", "executor", "mode", string(mode)),
	}
}

// Mode reports how queries are executed.
func (e *Executor) Mode() Mode {
	return e.mode
}

// Execute runs query according to the executor's mode.
func (e *Executor) Execute(ctx context.Context, query string) ([]Row, error) {
	if e.mode == ModeUnsafe {
		return e.UnsafeExecute(ctx, query)
	}
	return e.Query(ctx, query)
}

// Query runs query inside a transaction and rolls it back.
func (e *Executor) Query(ctx context.Context, query string) (rows []Row, err error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	start := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin guarded transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Warn("rollback failed", "error", rbErr)
		}
	}()

	rows, err = scanRows(ctx, tx, query)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("guarded query complete", "rows", len(rows), "duration", time.Since(start))
	return rows, nil
}

// UnsafeExecute runs query directly on the pool. Any writes it performs are
// committed by the server.
func (e *Executor) UnsafeExecute(ctx context.Context, query string) ([]Row, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	start := time.Now()
	rows, err := scanRows(ctx, e.db, query)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("unsafe query complete", "rows", len(rows), "duration", time.Since(start))
	return rows, nil
}

func scanRows(ctx context.Context, q sqlscan.Querier, query string) ([]Row, error) {
	var rows []Row
	if err := sqlscan.Select(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	if rows == nil {
		rows = []Row{}
	}
	for _, row := range rows {
		for k, v := range row {
			// Text columns arrive as []byte from several drivers and would
			// otherwise be rendered as base64.
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows, nil
}
