package executor

import (
	"github.com/elee1766/nl2sql/src/aisdk"
)

// ExecutionState represents where a turn stands after one step
type ExecutionState int

const (
	// StateTextResponse means the model answered with no tool calls
	StateTextResponse ExecutionState = iota
	// StateToolCallsNeeded means the model wants tool calls executed
	StateToolCallsNeeded
)

func (s ExecutionState) String() string {
	switch s {
	case StateTextResponse:
		return "text_response"
	case StateToolCallsNeeded:
		return "tool_calls_needed"
	default:
		return "unknown"
	}
}

// StepResult is the outcome of a single streamed completion.
type StepResult struct {
	State ExecutionState

	// Message is the assembled assistant message, tool calls included.
	Message *aisdk.Message

	// Response carries model, finish reason and usage of the completion.
	Response *aisdk.ChatCompletionResponse
}
