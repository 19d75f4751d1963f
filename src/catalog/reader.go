// Package catalog reads table and column descriptions from a database's
// system catalog and renders them as prompt text.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// ErrUnknownDialect is returned for a dialect without catalog queries.
var ErrUnknownDialect = errors.New("unknown catalog dialect")

// TableDescriptor is one user table.
type TableDescriptor struct {
	QualifiedName string  `db:"table_name"`
	Description   *string `db:"table_description"`
}

// ColumnDescriptor is one described column of a table.
type ColumnDescriptor struct {
	Name         string  `db:"column_name"`
	DeclaredType string  `db:"column_type"`
	Description  *string `db:"column_description"`
}

// Reader issues the catalog queries. It holds no state beyond the handle.
type Reader struct {
	db      sqlscan.Querier
	dialect Dialect
	logger  *slog.Logger
}

// NewReader returns a Reader issuing catalog queries for dialect over db.
// A nil logger falls back to slog.Default.
func NewReader(db sqlscan.Querier, dialect Dialect, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		db:      db,
		dialect: dialect,
		logger:  logger.With("component", "catalog", "dialect", dialect.Name),
	}
}

// Dialect returns the dialect the reader queries with.
func (r *Reader) Dialect() Dialect {
	return r.dialect
}

// Tables lists user tables in catalog order.
func (r *Reader) Tables(ctx context.Context) ([]TableDescriptor, error) {
	var tables []TableDescriptor
	if err := sqlscan.Select(ctx, r.db, &tables, r.dialect.ListTables); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	r.logger.Debug("listed tables", "count", len(tables))
	return tables, nil
}

// Columns lists the described columns of one table by ordinal position. An
// unknown table yields no columns.
func (r *Reader) Columns(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	var columns []ColumnDescriptor
	if err := sqlscan.Select(ctx, r.db, &columns, r.dialect.DescribeTable, r.dialect.Args(table)...); err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	r.logger.Debug("described table", "table", table, "columns", len(columns))
	return columns, nil
}

// ListTables renders one "<schema>.<table>: <description>" line per table.
func (r *Reader) ListTables(ctx context.Context) (string, error) {
	tables, err := r.Tables(ctx)
	if err != nil {
		return "", err
	}
	return FormatTables(tables), nil
}

// DescribeTable renders one "<name> (<type>) -- <description>" line per
// described column. Unknown or undescribed tables render as "".
func (r *Reader) DescribeTable(ctx context.Context, table string) (string, error) {
	columns, err := r.Columns(ctx, table)
	if err != nil {
		return "", err
	}
	return FormatColumns(columns), nil
}

// FormatTables renders one "name: description" line per table.
func FormatTables(tables []TableDescriptor) string {
	var sb strings.Builder
	for _, t := range tables {
		fmt.Fprintf(&sb, "%s: %s\n", t.QualifiedName, deref(t.Description))
	}
	return sb.String()
}

// FormatColumns renders the column block the SQL writer prompt embeds.
func FormatColumns(columns []ColumnDescriptor) string {
	var sb strings.Builder
	for _, c := range columns {
		fmt.Fprintf(&sb, "%s (%s) -- %s\n", c.Name, c.DeclaredType, deref(c.Description))
	}
	return sb.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
