// Package app wires configuration, the completion client, the database and
// the agent into a ready-to-chat application.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/nl2sql/src/azclient"
	"github.com/elee1766/nl2sql/src/catalog"
	"github.com/elee1766/nl2sql/src/config"
	"github.com/elee1766/nl2sql/src/database"
	"github.com/elee1766/nl2sql/src/executor"
	"github.com/elee1766/nl2sql/src/sqlagent"
	"github.com/elee1766/nl2sql/src/storage"
)

// App represents the main application with all services
type App struct {
	Config       *config.Config
	Client       *azclient.Client
	DB           *sql.DB
	Target       database.Target
	Catalog      *catalog.Reader
	Executor     *database.Executor
	Store        *storage.DB
	Agent        *sqlagent.SQLAgent
	Turns        *executor.Service
	SystemPrompt string
	Logger       *slog.Logger
}

// Options holds configuration for creating a new App instance
type Options struct {
	Config *config.Config

	// UnsafeSQL forces unsafe execution on top of the configured setting.
	UnsafeSQL bool
	// MaxToolRounds overrides the configured limit when positive.
	MaxToolRounds int
	// OnSQL is called with each generated statement before it runs.
	OnSQL func(sql string)

	Progress *Progress
	Logger   *slog.Logger
	Now      func() time.Time
}

// New resolves every dependency of a chat session. Any failure is fatal and
// releases what was already opened.
func New(ctx context.Context, opts Options) (_ *App, err error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app requires a configuration")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	p := opts.Progress

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	p.Phase("Initializing client...")
	a.Client, err = azclient.NewClient(azclient.Config{
		Endpoint:   cfg.OpenAIURL,
		Deployment: cfg.ChatDeployment,
		APIVersion: cfg.APIVersion,
		APIKey:     cfg.OpenAIKey,
		Logger:     logger.With("component", "azclient"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	p.Line(fmt.Sprintf("Deployment: %s (%s)", cfg.ChatDeployment, a.Client.AuthKind()))

	p.Phase("Initializing database...")
	a.DB, a.Catalog, err = OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Target = database.DescribeTarget(cfg.DBDriver, cfg.ConnectionString)
	p.Line(fmt.Sprintf("Server: %s, Database: %s", a.Target.Server, a.Target.Database))

	mode := database.ModeGuarded
	if cfg.AllowUnsafeSQL || opts.UnsafeSQL {
		mode = database.ModeUnsafe
		p.Warn("Unsafe SQL enabled: generated statements run with your database privileges and are not rolled back.")
	}
	a.Executor = database.NewExecutor(a.DB, mode, logger.With("component", "executor"))

	a.Store, err = OpenAudit(ctx, cfg.AuditDBPath)
	if err != nil {
		logger.Warn("query audit log disabled", "path", cfg.AuditDBPath, "error", err)
		err = nil
	}

	p.Phase("Initializing plugins...")
	a.Agent, err = sqlagent.New(sqlagent.Config{
		Catalog:  a.Catalog,
		Model:    a.Client.Deployment(),
		Executor: a.Executor,
		Audit:    a.audit,
		OnSQL:    opts.OnSQL,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	for _, line := range a.Agent.Functions() {
		p.Line(line)
	}

	maxRounds := cfg.MaxToolRounds
	if opts.MaxToolRounds > 0 {
		maxRounds = opts.MaxToolRounds
	}
	a.Turns, err = executor.NewService(executor.ServiceConfig{
		Agent:         a.Agent.Agent,
		MaxToolRounds: maxRounds,
		Logger:        logger.With("component", "turns"),
	})
	if err != nil {
		return nil, err
	}

	a.SystemPrompt, err = a.Agent.SystemPrompt(ctx, now())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	p.Line("Done!")

	return a, nil
}

func (a *App) audit(ctx context.Context, execution *storage.QueryExecution) error {
	if a.Store == nil {
		return nil
	}
	return storage.CreateQueryExecution(ctx, a.Store.DB(), execution)
}

// OpenCatalog opens the target database and a schema reader for its driver.
func OpenCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, *catalog.Reader, error) {
	dialect, err := catalog.DialectFor(cfg.DBDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, cfg.DBDriver, cfg.ConnectionString)
	if err != nil {
		return nil, nil, err
	}
	return db, catalog.NewReader(db, dialect, logger.With("component", "catalog")), nil
}

// OpenAudit opens the query audit log; opening applies pending migrations.
func OpenAudit(ctx context.Context, path string) (*storage.DB, error) {
	if path == "" {
		path = config.GetDefaultAuditPath()
	}
	store, err := storage.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return store, nil
}

// Close closes all resources held by the app
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
