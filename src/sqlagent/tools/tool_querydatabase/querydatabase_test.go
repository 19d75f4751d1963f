package tool_querydatabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/nl2sql/src/aisdk"
	"github.com/elee1766/nl2sql/src/catalog"
	"github.com/elee1766/nl2sql/src/database"
	"github.com/elee1766/nl2sql/src/storage"
)

// stubModel answers every completion with a fixed reply and records requests.
type stubModel struct {
	reply    string
	err      error
	requests []*aisdk.ChatCompletionRequest
}

func (m *stubModel) CreateChatCompletion(_ context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &aisdk.ChatCompletionResponse{
		Choices: []aisdk.Choice{{Message: aisdk.Message{Role: aisdk.RoleAssistant, Content: m.reply}, FinishReason: "stop"}},
	}, nil
}

func (m *stubModel) CreateChatCompletionStream(context.Context, *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	return nil, errors.New("not streamed")
}

func (m *stubModel) GetModelInfo() *aisdk.ModelInfo {
	return &aisdk.ModelInfo{ID: "gpt-4o"}
}

var columnsHeader = []string{"column_name", "column_type", "column_description"}

type fixture struct {
	mock    sqlmock.Sqlmock
	model   *stubModel
	audited []*storage.QueryExecution
	shown   []string
	deps    Deps
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	f := &fixture{mock: mock, model: &stubModel{reply: reply}}
	f.deps = Deps{
		Schema:   catalog.NewReader(db, catalog.SQLServer, nil),
		Model:    f.model,
		Executor: database.NewExecutor(db, database.ModeGuarded, nil),
		Dialect:  catalog.SQLServer,
		Audit: func(_ context.Context, e *storage.QueryExecution) error {
			f.audited = append(f.audited, e)
			return nil
		},
		OnSQL: func(s string) { f.shown = append(f.shown, s) },
	}
	return f
}

func (f *fixture) expectColumns(table string, rows ...[3]string) {
	r := sqlmock.NewRows(columnsHeader)
	for _, row := range rows {
		r.AddRow(row[0], row[1], row[2])
	}
	f.mock.ExpectQuery(catalog.SQLServer.DescribeTable).
		WithArgs(sql.Named("TableName", table)).
		WillReturnRows(r)
}

func call(t *testing.T, f *fixture, tables, intent string) *aisdk.ToolResponse {
	t.Helper()
	tool, err := Tool(f.deps)
	require.NoError(t, err)
	args, err := json.Marshal(Input{ListOfTables: tables, ExplanationOfWhatToReturn: intent})
	require.NoError(t, err)
	resp, err := tool.Execute(context.Background(), &aisdk.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: aisdk.FunctionCall{Name: Name, Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func TestOrdersCustomersEndToEnd(t *testing.T) {
	const generated = "SELECT TOP 1 c.Name, COUNT(*) AS Orders\nFROM [dbo].[Customers] c\nJOIN [dbo].[Orders] o ON o.CustomerId = c.CustomerId\nGROUP BY c.Name\nORDER BY Orders DESC"
	f := newFixture(t, "```sql\n"+generated+"\n```")

	f.expectColumns("[dbo].[Orders]",
		[3]string{"[OrderId]", "int", "Order identifier"},
		[3]string{"[CustomerId]", "int", "Customer who placed the order"},
	)
	f.expectColumns("[dbo].[Customers]",
		[3]string{"[CustomerId]", "int", "Customer identifier"},
		[3]string{"[Name]", "nvarchar", "Customer display name"},
	)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(generated).WillReturnRows(
		sqlmock.NewRows([]string{"Name", "Orders"}).AddRow("Contoso", int64(12)),
	)
	f.mock.ExpectRollback()

	resp := call(t, f, "[dbo].[Orders], , [dbo].[Customers]", "Which customer placed the most orders?")
	require.False(t, resp.IsError, string(resp.Content))
	assert.JSONEq(t, `[{"Name":"Contoso","Orders":12}]`, string(resp.Content))

	require.Len(t, f.model.requests, 1)
	req := f.model.requests[0]
	assert.False(t, req.Stream)
	assert.Empty(t, req.Tools)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, aisdk.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "You create T-SQL queries")
	assert.Contains(t, req.Messages[0].Content,
		"[dbo].[Orders]:\n[OrderId] (int) -- Order identifier\n[CustomerId] (int) -- Customer who placed the order\n\n\n"+
			"[dbo].[Customers]:\n[CustomerId] (int) -- Customer identifier\n[Name] (nvarchar) -- Customer display name\n\n\n")
	assert.NotContains(t, req.Messages[0].Content, "\n:\n")
	assert.Equal(t, aisdk.RoleUser, req.Messages[1].Role)
	assert.Equal(t, "Which customer placed the most orders?", req.Messages[1].Content)

	assert.Equal(t, []string{generated}, f.shown)
	require.Len(t, f.audited, 1)
	audit := f.audited[0]
	assert.Equal(t, storage.JSONStringArray{"[dbo].[Orders]", "[dbo].[Customers]"}, audit.TableList)
	assert.Equal(t, generated, audit.SQL)
	assert.Equal(t, 1, audit.RowCount)
	assert.Equal(t, "guarded", audit.Mode)
	assert.Equal(t, "gpt-4o", audit.Deployment)
	assert.Empty(t, audit.Error)
}

func TestUndescribedTableIsSkipped(t *testing.T) {
	f := newFixture(t, "SELECT 1")
	f.expectColumns("Ghost")
	f.expectColumns("Orders", [3]string{"[OrderId]", "int", "Order identifier"})
	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(1)))
	f.mock.ExpectRollback()

	resp := call(t, f, "Ghost, Orders", "anything")
	require.False(t, resp.IsError)
	prompt := f.model.requests[0].Messages[0].Content
	assert.NotContains(t, prompt, "Ghost:")
	assert.Contains(t, prompt, "Orders:\n[OrderId] (int) -- Order identifier\n")
	assert.Equal(t, storage.JSONStringArray{"Orders"}, f.audited[0].TableList)
}

func TestEmptyArgumentsReachTheModel(t *testing.T) {
	f := newFixture(t, "SELECT GETDATE() AS now")
	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT GETDATE() AS now").WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow("2026-10-18"))
	f.mock.ExpectRollback()

	resp := call(t, f, "", "")
	require.False(t, resp.IsError, string(resp.Content))
	assert.JSONEq(t, `[{"now":"2026-10-18"}]`, string(resp.Content))

	require.Len(t, f.model.requests, 1)
	msgs := f.model.requests[0].Messages
	assert.Contains(t, msgs[0].Content, "The schema for the available tables is the following:\n\n\nGenerate")
	assert.Equal(t, "", msgs[1].Content)
	assert.Equal(t, storage.JSONStringArray{}, f.audited[0].TableList)
}

func TestEmptyModelReplyReturnsNoRows(t *testing.T) {
	f := newFixture(t, "")
	f.expectColumns("Orders", [3]string{"[OrderId]", "int", "Order identifier"})

	resp := call(t, f, "Orders", "anything")
	require.False(t, resp.IsError)
	assert.JSONEq(t, `[]`, string(resp.Content))
	assert.Empty(t, f.shown)
	assert.Empty(t, f.audited[0].SQL)
}

func TestFailingSQLIsReportedToModel(t *testing.T) {
	f := newFixture(t, "SELECT * FROM Ordrs")
	f.expectColumns("Orders", [3]string{"[OrderId]", "int", "Order identifier"})
	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT * FROM Ordrs").WillReturnError(errors.New("Invalid object name 'Ordrs'."))
	f.mock.ExpectRollback()

	resp := call(t, f, "Orders", "all orders")
	assert.True(t, resp.IsError)
	assert.Contains(t, string(resp.Content), "Invalid object name 'Ordrs'.")
	require.Len(t, f.audited, 1)
	assert.Contains(t, f.audited[0].Error, "Invalid object name")
}

func TestCompletionFailureAbortsTurn(t *testing.T) {
	f := newFixture(t, "")
	f.model.err = errors.New("API error 401: denied")
	f.expectColumns("Orders", [3]string{"[OrderId]", "int", "Order identifier"})

	tool, err := Tool(f.deps)
	require.NoError(t, err)
	resp, err := tool.Execute(context.Background(), &aisdk.ToolCall{
		Function: aisdk.FunctionCall{Name: Name, Arguments: json.RawMessage(`{"list_of_tables":"Orders","explanation_of_what_to_return":"x"}`)},
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, f.model.err)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```sql\nSELECT 1;\n```", "SELECT 1;"},
		{"```\nSELECT 1;\n```", "SELECT 1;"},
		{"SELECT 1;", "SELECT 1;"},
		{"  SELECT '```' AS tick  ", "SELECT '' AS tick"},
		{"``````sql", ""},
	}
	for _, tt := range tests {
		once := StripFences(tt.in)
		assert.Equal(t, tt.want, once, tt.in)
		assert.Equal(t, once, StripFences(once), "not idempotent for %q", tt.in)
	}
}

func TestToolDescriptionNamesDialect(t *testing.T) {
	f := newFixture(t, "")
	f.deps.Dialect = catalog.Postgres
	tool, err := Tool(f.deps)
	require.NoError(t, err)
	assert.Equal(t, Name, tool.GetName())
	assert.Contains(t, tool.GetDescription(), "The database being used is PostgreSQL so you must use PostgreSQL syntax.")
	assert.ElementsMatch(t, []string{"list_of_tables", "explanation_of_what_to_return"}, tool.GetParameters().Required)

	_, err = Tool(Deps{})
	assert.Error(t, err)
}
