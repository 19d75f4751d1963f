package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/x/term"

	"github.com/elee1766/nl2sql/src/config"
)

// CLI represents the main CLI structure
type CLI struct {
	EnvFile  string `short:"e" name:"env-file" default:".env" help:"The .env file to load environment variables from."`
	Debug    bool   `help:"Enable debug mode."`
	LogLevel string `default:"error" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	NoColor  bool   `help:"Disable colors, spinners and cursor movement."`

	// Chat is the default command
	Chat    ChatCmd    `cmd:"" default:"withargs" help:"Run the chatbot"`
	Tables  TablesCmd  `cmd:"" help:"List tables, or describe one table, without involving the model"`
	History HistoryCmd `cmd:"" help:"Show recent generated queries from the audit log"`
	Migrate MigrateCmd `cmd:"" help:"Prepare the query audit log"`
}

func (c *CLI) logger() *slog.Logger {
	level := c.LogLevel
	if c.Debug {
		level = "debug"
	}
	return createCLILogger(level)
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.EnvFile)
}

// plain reports whether console output must avoid escape sequences.
func (c *CLI) plain() bool {
	return c.NoColor || !term.IsTerminal(os.Stdout.Fd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("nl2sql"),
		kong.Description("Natural language chatbot for your database, powered by Azure OpenAI"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := kctx.Run(&cli)
	stop()
	FatalError(cli.logger(), err)
}
