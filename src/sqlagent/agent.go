// Package sqlagent assembles the database chat agent: its system prompt and
// the toolbox holding the QueryDatabase tool.
package sqlagent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/nl2sql/src/agent"
	"github.com/elee1766/nl2sql/src/aisdk"
	"github.com/elee1766/nl2sql/src/catalog"
	"github.com/elee1766/nl2sql/src/sqlagent/tools"
	"github.com/elee1766/nl2sql/src/sqlagent/toolsutil"
)

// Config holds the configuration for the SQL agent
type Config struct {
	Catalog  *catalog.Reader
	Model    aisdk.ModelClient
	Executor tools.QueryRunner

	// Audit and OnSQL are optional hooks passed to the tool.
	Audit tools.AuditFunc
	OnSQL func(sql string)

	Logger *slog.Logger
}

// SQLAgent is the chat agent with its tools registered.
type SQLAgent struct {
	*agent.Agent
	catalog *catalog.Reader
	logger  *slog.Logger
}

// New registers the tools and binds them to the model.
func New(config Config) (*SQLAgent, error) {
	if config.Catalog == nil {
		return nil, fmt.Errorf("sql agent requires a catalog reader")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	toolsutil.SetLogger(logger.With("component", "tools"))

	toolbox := agent.NewToolbox[agent.Tool]()
	toolbox.RegisterMiddleware(agent.LoggingMiddleware(logger.With("component", "toolbox")))

	tool, err := tools.QueryDatabaseTool(tools.QueryDatabaseDeps{
		Schema:   config.Catalog,
		Model:    config.Model,
		Executor: config.Executor,
		Dialect:  config.Catalog.Dialect(),
		Audit:    config.Audit,
		OnSQL:    config.OnSQL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", tools.QueryDatabaseName, err)
	}
	if err := toolbox.RegisterTool(tool); err != nil {
		return nil, err
	}

	return &SQLAgent{
		Agent: &agent.Agent{
			Model:   config.Model,
			Toolbox: toolbox,
			Logger:  logger.With("component", "agent"),
		},
		catalog: config.Catalog,
		logger:  logger,
	}, nil
}

// SystemPrompt builds the initial system message from the live table list.
func (a *SQLAgent) SystemPrompt(ctx context.Context, today time.Time) (string, error) {
	tables, err := a.catalog.ListTables(ctx)
	if err != nil {
		return "", err
	}
	return BuildSystemPrompt(tables, today), nil
}

// Functions lists the registered tool functions for the boot banner.
func (a *SQLAgent) Functions() []string {
	return DescribeTools(tools.QueryDatabasePlugin, a.Toolbox)
}
