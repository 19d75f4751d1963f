package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/x/term"

	"github.com/elee1766/nl2sql/src/app"
	"github.com/elee1766/nl2sql/src/chat"
)

// ChatCmd runs the interactive chatbot
type ChatCmd struct {
	ShowSQL       bool `name:"show-sql" help:"Print each generated SQL statement before it runs."`
	UnsafeSQL     bool `name:"unsafe-sql" help:"Run generated SQL with full privileges instead of in a rolled-back transaction."`
	MaxToolRounds int  `help:"Maximum model/tool exchanges per turn (0 uses NL2SQL_MAX_TOOL_ROUNDS)."`
}

func (c *ChatCmd) Run(kctx *kong.Context, cli *CLI, ctx context.Context) error {
	logger := cli.logger()
	plain := cli.plain()

	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", "config", cfg.Redacted())

	width := 0
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 2 {
		width = w - 2
	}
	progress := app.NewProgress(os.Stdout, plain)
	progress.Banner(width)
	progress.Start()

	// the loop does not exist yet while the tool is wired, so SQL display is
	// resolved through this variable
	var loop *chat.Loop
	var onSQL func(string)
	if c.ShowSQL {
		onSQL = func(sql string) {
			if loop != nil {
				loop.ShowSQL(sql)
			}
		}
	}

	a, err := app.New(ctx, app.Options{
		Config:        cfg,
		UnsafeSQL:     c.UnsafeSQL,
		MaxToolRounds: c.MaxToolRounds,
		OnSQL:         onSQL,
		Progress:      progress,
		Logger:        logger,
	})
	progress.Stop()
	if err != nil {
		return err
	}
	defer a.Close()

	loop, err = chat.NewLoop(chat.Config{
		In:       os.Stdin,
		Out:      os.Stdout,
		Runner:   a.Turns,
		History:  chat.NewHistory(a.SystemPrompt),
		Debug:    cli.Debug,
		Plain:    plain,
		SQLLexer: a.Catalog.Dialect().Lexer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ready to chat! Hit 'ctrl-c' to quit.")
	return loop.Run(ctx)
}
