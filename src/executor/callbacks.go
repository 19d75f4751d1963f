package executor

import (
	"github.com/elee1766/nl2sql/src/aisdk"
)

// Callbacks holds optional hooks invoked while a turn runs.
type Callbacks struct {
	// OnContent receives each streamed content fragment of the assistant reply.
	OnContent func(fragment string) error

	// OnToolCall is called before executing a tool
	OnToolCall func(toolCall aisdk.ToolCall) error

	// OnToolResult is called after tool execution
	OnToolResult func(toolName string, result *aisdk.ToolResponse, err error) error
}

// Content calls the OnContent callback if it's set
func (c *Callbacks) Content(fragment string) error {
	if c == nil || c.OnContent == nil || fragment == "" {
		return nil
	}
	return c.OnContent(fragment)
}

// ToolCall calls the OnToolCall callback if it's set
func (c *Callbacks) ToolCall(toolCall aisdk.ToolCall) error {
	if c == nil || c.OnToolCall == nil {
		return nil
	}
	return c.OnToolCall(toolCall)
}

// ToolResult calls the OnToolResult callback if it's set
func (c *Callbacks) ToolResult(toolName string, result *aisdk.ToolResponse, err error) error {
	if c == nil || c.OnToolResult == nil {
		return nil
	}
	return c.OnToolResult(toolName, result, err)
}
