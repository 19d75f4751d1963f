package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/elee1766/nl2sql/src/app"
)

// TablesCmd prints the catalog text the model sees
type TablesCmd struct {
	Name string `arg:"" optional:"" help:"Table to describe, e.g. [dbo].[Orders]"`
}

func (c *TablesCmd) Run(kctx *kong.Context, cli *CLI, ctx context.Context) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	db, reader, err := app.OpenCatalog(ctx, cfg, cli.logger())
	if err != nil {
		return err
	}
	defer db.Close()

	var text string
	if c.Name == "" {
		text, err = reader.ListTables(ctx)
	} else {
		text, err = reader.DescribeTable(ctx, c.Name)
	}
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintln(kctx.Stdout, "(no described tables or columns)")
		return nil
	}
	fmt.Fprint(kctx.Stdout, text)
	return nil
}
