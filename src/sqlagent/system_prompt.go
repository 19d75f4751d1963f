package sqlagent

import (
	"fmt"
	"strings"
	"time"

	"github.com/elee1766/nl2sql/src/agent"
)

const mainPromptTemplate = `You are an AI assistant that helps users to query the database. The tables in the database, with the related description, are:

%s

Use a professional tone when answering and provide a summary of data instead of lists.
If users ask about topics you don't know, answer that you don't know. Today's date is %s.
You must answer providing a list of tables that must be used to answer the question and an explanation of what you'll be doing to answer the question.
You must use the provided tool to query the database.
If the request is complex, break it down into smaller steps and call the plugin as many times as needed. Ideally don't use more than 5 tables in the same query.`

// BuildSystemPrompt renders the conversation's first message from the table
// listing and the current date.
func BuildSystemPrompt(tables string, today time.Time) string {
	return fmt.Sprintf(mainPromptTemplate, strings.TrimRight(tables, "\n"), today.Format(time.DateOnly))
}

// DescribeTools lists registered tools as "Plugin: <plugin>, Function: <name>"
// lines, sorted by name.
func DescribeTools(plugin string, toolbox *agent.DefaultToolbox) []string {
	var lines []string
	for _, tool := range toolbox.Tools() {
		lines = append(lines, fmt.Sprintf("Plugin: %s, Function: %s", plugin, tool.GetName()))
	}
	return lines
}
