package tools

// Re-exports so callers wire tools without importing each tool package.

import (
	"github.com/elee1766/nl2sql/src/agent"
	tool_querydatabase "github.com/elee1766/nl2sql/src/sqlagent/tools/tool_querydatabase"
)

// Tool name constants - re-exported from individual packages
const (
	QueryDatabaseName   = tool_querydatabase.Name
	QueryDatabasePlugin = tool_querydatabase.Plugin
)

type (
	QueryDatabaseDeps = tool_querydatabase.Deps
	QueryRunner       = tool_querydatabase.QueryRunner
	AuditFunc         = tool_querydatabase.AuditFunc
)

// QueryDatabaseTool builds the QueryDatabase tool.
func QueryDatabaseTool(deps QueryDatabaseDeps) (agent.Tool, error) {
	return tool_querydatabase.Tool(deps)
}
