package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elee1766/nl2sql/src/agent"
	"github.com/elee1766/nl2sql/src/aisdk"
)

// Step streams one completion over messages and returns the assembled reply.
// The caller decides whether to execute the tool calls and continue.
func (s *Service) Step(ctx context.Context, messages []*aisdk.Message, callbacks *Callbacks) (*StepResult, error) {
	stream, err := s.agent.SendMessageStream(ctx, messages)
	if err != nil {
		return nil, err
	}

	aggregator := aisdk.NewStreamAggregator()
	err = aisdk.StreamToCallback(stream, func(chunk *aisdk.StreamChunk) error {
		if err := callbacks.Content(aggregator.AddChunk(chunk)); err != nil {
			return fmt.Errorf("content callback failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := aggregator.ToResponse()
	choice := response.Choices[0]
	message := &aisdk.Message{
		Role:      aisdk.RoleAssistant,
		Content:   choice.Message.Content,
		ToolCalls: choice.Message.ToolCalls,
		CreatedAt: time.Now(),
	}

	state := StateTextResponse
	if len(message.ToolCalls) > 0 {
		state = StateToolCallsNeeded
	}
	s.logger.Debug("step completed",
		"state", state.String(),
		"finish_reason", response.Choices[0].FinishReason,
		"tool_calls", len(message.ToolCalls),
	)

	return &StepResult{State: state, Message: message, Response: response}, nil
}

// ExecuteToolCalls runs each call through the toolbox and returns the tool
// messages to send back. Unknown tools are reported to the model; any other
// Go error from a tool ends the turn.
func (s *Service) ExecuteToolCalls(ctx context.Context, toolCalls []aisdk.ToolCall, callbacks *Callbacks) ([]*aisdk.Message, error) {
	toolResults := make([]*aisdk.Message, 0, len(toolCalls))

	for _, toolCall := range toolCalls {
		s.logger.Debug("Executing tool", "name", toolCall.Function.Name, "id", toolCall.ID)

		if err := callbacks.ToolCall(toolCall); err != nil {
			return nil, fmt.Errorf("tool call callback failed: %w", err)
		}

		result, execErr := s.agent.Toolbox.ExecuteTool(ctx, &toolCall)

		var output string
		switch {
		case errors.Is(execErr, agent.ErrToolNotFound):
			output = fmt.Sprintf("Tool not found: %s", toolCall.Function.Name)
		case execErr != nil:
			return nil, execErr
		case result == nil:
		case result.IsError:
			output = fmt.Sprintf("Error: %s", result.Content)
		default:
			output = string(result.Content)
		}

		if err := callbacks.ToolResult(toolCall.Function.Name, result, execErr); err != nil {
			return nil, fmt.Errorf("tool result callback failed: %w", err)
		}

		toolResults = append(toolResults, &aisdk.Message{
			Role:       aisdk.RoleTool,
			Content:    output,
			Name:       toolCall.Function.Name,
			ToolCallID: toolCall.ID,
			CreatedAt:  time.Now(),
		})
	}

	return toolResults, nil
}
