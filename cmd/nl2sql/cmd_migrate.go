package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/elee1766/nl2sql/src/app"
)

// MigrateCmd prepares the audit log database
type MigrateCmd struct {
	DBPath string `name:"db-path" help:"Audit database path (defaults to NL2SQL_AUDIT_DB)"`
}

// Run executes the migrate command
func (c *MigrateCmd) Run(kctx *kong.Context, cli *CLI, ctx context.Context) error {
	path, err := auditPath(cli, c.DBPath)
	if err != nil {
		return err
	}

	store, err := app.OpenAudit(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	versions, err := store.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(kctx.Stdout, "Audit log opened: %s (applied migrations %v)\n", store.Path(), versions)
	return nil
}
