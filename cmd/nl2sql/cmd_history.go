package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/elee1766/nl2sql/src/app"
	"github.com/elee1766/nl2sql/src/sqlagent/toolsutil"
	"github.com/elee1766/nl2sql/src/storage"
)

// HistoryCmd lists recorded SQL tool invocations
type HistoryCmd struct {
	Limit  int    `short:"n" default:"20" help:"Number of entries to show"`
	ID     string `help:"Show one entry in full"`
	JSON   bool   `name:"json" help:"Print entries as JSON"`
	DBPath string `name:"db-path" help:"Audit database path (defaults to NL2SQL_AUDIT_DB)"`
}

func (c *HistoryCmd) Run(kctx *kong.Context, cli *CLI, ctx context.Context) error {
	path, err := auditPath(cli, c.DBPath)
	if err != nil {
		return err
	}
	store, err := app.OpenAudit(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	var executions []storage.QueryExecution
	if c.ID != "" {
		execution, err := storage.GetQueryExecutionByID(ctx, store.DB(), c.ID)
		if err != nil {
			return err
		}
		if execution == nil {
			return fmt.Errorf("no audit entry with id %q", c.ID)
		}
		executions = append(executions, *execution)
	} else {
		executions, err = storage.ListRecentQueryExecutions(ctx, store.DB(), c.Limit)
		if err != nil {
			return err
		}
	}

	switch {
	case c.JSON:
		enc := json.NewEncoder(kctx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(executions)
	case c.ID != "":
		return writeExecution(kctx.Stdout, executions[0])
	case len(executions) == 0:
		fmt.Fprintln(kctx.Stdout, "No queries recorded yet.")
		return nil
	default:
		fmt.Fprintln(kctx.Stdout, renderExecutions(executions))
		return nil
	}
}

func renderExecutions(executions []storage.QueryExecution) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "WHEN", "MODE", "ROWS", "MS", "TABLES", "INTENT", "SQL", "ERROR")
	for _, e := range executions {
		t.Row(
			shortID(e.ID),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Mode,
			strconv.Itoa(e.RowCount),
			strconv.FormatInt(e.DurationMs, 10),
			strings.Join(e.TableList, ", "),
			toolsutil.Truncate(e.Intent, 40),
			toolsutil.Truncate(oneLine(e.SQL), 60),
			toolsutil.Truncate(e.Error, 30),
		)
	}
	return t.String()
}

func writeExecution(w io.Writer, e storage.QueryExecution) error {
	_, err := fmt.Fprintf(w,
		"ID:         %s\nWhen:       %s\nDeployment: %s\nMode:       %s\nTables:     %s\nIntent:     %s\nRows:       %d\nDuration:   %dms\nError:      %s\n\n%s\n",
		e.ID,
		e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		e.Deployment,
		e.Mode,
		strings.Join(e.TableList, ", "),
		e.Intent,
		e.RowCount,
		e.DurationMs,
		e.Error,
		e.SQL,
	)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// auditPath resolves the audit database from the flag or the configuration.
func auditPath(cli *CLI, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := cli.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuditDBPath, nil
}
