package executor

import "errors"

var (
	// Config validation errors
	ErrAgentRequired = errors.New("agent is required")
	ErrModelRequired = errors.New("model client is required")

	// Turn errors
	ErrEmptyHistory          = errors.New("history must contain at least the system prompt")
	ErrMaxToolRoundsExceeded = errors.New("maximum tool rounds exceeded")
)
