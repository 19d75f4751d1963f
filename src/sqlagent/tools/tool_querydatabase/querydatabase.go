package tool_querydatabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elee1766/nl2sql/src/agent"
	"github.com/elee1766/nl2sql/src/aisdk"
	"github.com/elee1766/nl2sql/src/catalog"
	"github.com/elee1766/nl2sql/src/database"
	"github.com/elee1766/nl2sql/src/sqlagent/toolsutil"
	"github.com/elee1766/nl2sql/src/storage"
)

// Tool name constant
const Name = "QueryDatabase"

// Plugin groups the tool in the boot listing.
const Plugin = "DatabaseQueryPlugin"

const queryDatabaseDescription = `Run a query against the database using the provided list of tables.
The tables must be provided in the format: "table1, table2, table3".
The database being used is %s so you must use %s syntax.`

const sqlPromptTemplate = `You create %[1]s queries based on the given user request and the provided schema. Just return %[1]s query to be executed.
Do not return other text or explanation. Don't use markdown or any wrappers.
The schema is provided in the format:

Table1Name:
Column1Name (Column1Type) -- Column1Description
Column2Name (Column2Type) -- Column2Description
...
ColumnNName (ColumnNType) -- ColumnNDescription

Table2Name:
Column1Name (Column1Type) -- Column1Description
Column2Name (Column2Type) -- Column2Description
...
ColumnNName (ColumnNType) -- ColumnNDescription

The schema for the available tables is the following:

%[2]s
Generate the %[1]s query based on the provided schema and the user request. The user request is in the next message.`

// Input represents the parameters for QueryDatabase
type Input struct {
	ListOfTables              string `json:"list_of_tables" required:"true" description:"Comma-separated list of the tables needed to answer, e.g. \"[dbo].[Orders], [dbo].[Customers]\""`
	ExplanationOfWhatToReturn string `json:"explanation_of_what_to_return" required:"true" description:"Natural language description of the data the query must return"`
}

// Output is the row set, serialized to the model as a JSON array.
type Output = []database.Row

// SchemaDescriber renders per-table column text.
type SchemaDescriber interface {
	DescribeTable(ctx context.Context, table string) (string, error)
}

// QueryRunner executes generated SQL.
type QueryRunner interface {
	Execute(ctx context.Context, query string) ([]database.Row, error)
	Mode() database.Mode
}

// AuditFunc records one invocation. Failures are logged and otherwise ignored.
type AuditFunc func(ctx context.Context, execution *storage.QueryExecution) error

// Deps are the collaborators the tool needs.
type Deps struct {
	Schema   SchemaDescriber
	Model    aisdk.ModelClient
	Executor QueryRunner
	Dialect  catalog.Dialect
	// Audit is optional.
	Audit AuditFunc
	// OnSQL, when set, receives each generated statement before it runs.
	OnSQL func(sql string)
}

// Tool returns the QueryDatabase tool definition using GenericTool
func Tool(deps Deps) (agent.Tool, error) {
	if deps.Schema == nil || deps.Model == nil || deps.Executor == nil {
		return nil, errors.New("query database tool requires schema, model and executor")
	}
	if deps.Dialect.Name == "" {
		deps.Dialect = catalog.SQLServer
	}
	description := fmt.Sprintf(queryDatabaseDescription, deps.Dialect.Engine, deps.Dialect.QueryLanguage)
	tool, err := agent.NewGenericTool(Name, description, makeQueryDatabaseHandler(deps))
	if err != nil {
		return nil, err
	}
	// empty arguments are passed through; an empty table list yields an empty
	// schema block
	tool.AllowEmptyRequired = true
	return tool, nil
}

func makeQueryDatabaseHandler(deps Deps) agent.GenericToolHandler[Input, Output] {
	return func(ctx context.Context, input Input) (Output, error) {
		logger := toolsutil.GetLogger().With("tool", Name)
		logger.Info("querying the database", "tables", input.ListOfTables)
		logger.Info("request", "explanation", input.ExplanationOfWhatToReturn)

		start := time.Now()
		execution := &storage.QueryExecution{
			Intent: input.ExplanationOfWhatToReturn,
			Mode:   string(deps.Executor.Mode()),
		}
		if info := deps.Model.GetModelInfo(); info != nil {
			execution.Deployment = info.ID
		}

		rows, err := run(ctx, deps, input, execution, logger)

		execution.DurationMs = time.Since(start).Milliseconds()
		execution.RowCount = len(rows)
		if err != nil {
			execution.Error = err.Error()
		}
		record(ctx, deps, execution, logger)
		return rows, err
	}
}

func run(ctx context.Context, deps Deps, input Input, execution *storage.QueryExecution, logger *slog.Logger) (Output, error) {
	schemas, tables, err := gatherSchemas(ctx, deps.Schema, input.ListOfTables, logger)
	if err != nil {
		return nil, agent.Abort(err)
	}
	execution.TableList = tables

	sqlText, err := generateSQL(ctx, deps, schemas, input.ExplanationOfWhatToReturn)
	if err != nil {
		return nil, agent.Abort(err)
	}
	if sqlText == "" {
		logger.Warn("model was not able to generate a SQL query")
		return Output{}, nil
	}
	execution.SQL = sqlText

	logger.Info("executing query", "sql", sqlText)
	if deps.OnSQL != nil {
		deps.OnSQL(sqlText)
	}

	rows, err := deps.Executor.Execute(ctx, sqlText)
	if err != nil {
		if ctx.Err() != nil {
			return nil, agent.Abort(ctx.Err())
		}
		logger.Error("query failed", "error", err)
		return nil, fmt.Errorf("the generated query failed: %w", err)
	}
	return rows, nil
}

// gatherSchemas builds the schema block for the named tables. Empty names and
// tables without described columns are skipped.
func gatherSchemas(ctx context.Context, schema SchemaDescriber, listOfTables string, logger *slog.Logger) (string, storage.JSONStringArray, error) {
	names, skipped := toolsutil.SplitList(listOfTables)
	for range skipped {
		logger.Warn("empty table name provided, skipping")
	}

	var sb strings.Builder
	tables := storage.JSONStringArray{}
	for _, table := range names {
		columns, err := schema.DescribeTable(ctx, table)
		if err != nil {
			return "", nil, err
		}
		if strings.TrimSpace(columns) == "" {
			logger.Warn("no schema found for table, skipping", "table", table)
			continue
		}
		logger.Info("adding schema for table", "table", table)
		fmt.Fprintf(&sb, "%s:\n%s\n\n", table, columns)
		tables = append(tables, table)
	}
	return sb.String(), tables, nil
}

// generateSQL asks the model for a statement in an isolated conversation that
// never touches the chat history.
func generateSQL(ctx context.Context, deps Deps, schemas, intent string) (string, error) {
	prompt := fmt.Sprintf(sqlPromptTemplate, deps.Dialect.QueryLanguage, schemas)
	writer := &agent.Agent{Model: deps.Model}
	resp, err := writer.SendMessage(ctx, []*aisdk.Message{
		aisdk.NewMessage(aisdk.RoleSystem, prompt),
		aisdk.NewMessage(aisdk.RoleUser, intent),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return StripFences(resp.Choices[0].Message.Content), nil
}

// StripFences removes markdown code fence markers and surrounding whitespace.
// Applying it twice gives the same result as applying it once.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```sql", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func record(ctx context.Context, deps Deps, execution *storage.QueryExecution, logger *slog.Logger) {
	if deps.Audit == nil {
		return
	}
	// A cancelled turn still gets its audit row.
	if err := deps.Audit(context.WithoutCancel(ctx), execution); err != nil {
		logger.Warn("failed to record query execution", "error", err)
	}
}
