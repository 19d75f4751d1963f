package executor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/elee1766/nl2sql/src/agent"
	"github.com/elee1766/nl2sql/src/aisdk"
)

// DefaultMaxToolRounds bounds model/tool exchanges per turn when unset.
const DefaultMaxToolRounds = 8

// Service runs chat turns against an agent and its toolbox.
type Service struct {
	agent         *agent.Agent
	logger        *slog.Logger
	maxToolRounds int
}

// ServiceConfig holds configuration for creating a new Service
type ServiceConfig struct {
	Agent         *agent.Agent
	MaxToolRounds int
	Logger        *slog.Logger
}

// NewService creates a new turn service
func NewService(config ServiceConfig) (*Service, error) {
	if config.Agent == nil {
		return nil, ErrAgentRequired
	}
	if config.Agent.Model == nil {
		return nil, ErrModelRequired
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxToolRounds <= 0 {
		config.MaxToolRounds = DefaultMaxToolRounds
	}

	return &Service{
		agent:         config.Agent,
		logger:        config.Logger,
		maxToolRounds: config.MaxToolRounds,
	}, nil
}

// RunTurn answers the last user message in history. Tool calls and their
// results live only in a per-turn scratch copy; history itself is not
// modified. The returned assistant message holds every fragment streamed
// during the turn, including text sent alongside tool calls, and carries the
// model, finish reason, usage and tool call count in its Metadata.
func (s *Service) RunTurn(ctx context.Context, history []*aisdk.Message, callbacks *Callbacks) (*aisdk.Message, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	scratch := make([]*aisdk.Message, len(history), len(history)+4)
	copy(scratch, history)

	var (
		answer    strings.Builder
		usage     aisdk.Usage
		toolCalls int
	)
	turnCallbacks := &Callbacks{}
	if callbacks != nil {
		*turnCallbacks = *callbacks
	}
	turnCallbacks.OnContent = func(fragment string) error {
		answer.WriteString(fragment)
		return callbacks.Content(fragment)
	}

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		step, err := s.Step(ctx, scratch, turnCallbacks)
		if err != nil {
			return nil, err
		}
		usage.PromptTokens += step.Response.Usage.PromptTokens
		usage.CompletionTokens += step.Response.Usage.CompletionTokens
		usage.TotalTokens += step.Response.Usage.TotalTokens

		if step.State == StateTextResponse {
			final := step.Message
			final.Content = answer.String()
			final.Metadata = map[string]any{
				"model":         modelName(step.Response, s.agent.Model),
				"finish_reason": step.Response.Choices[0].FinishReason,
				"usage":         usage,
				"tool_calls":    toolCalls,
			}
			return final, nil
		}

		if round >= s.maxToolRounds {
			s.logger.Warn("tool round limit reached", "limit", s.maxToolRounds)
			return nil, ErrMaxToolRoundsExceeded
		}

		results, err := s.ExecuteToolCalls(ctx, step.Message.ToolCalls, turnCallbacks)
		if err != nil {
			return nil, err
		}
		toolCalls += len(step.Message.ToolCalls)
		scratch = append(scratch, step.Message)
		scratch = append(scratch, results...)
	}
}

func modelName(response *aisdk.ChatCompletionResponse, model aisdk.ModelClient) string {
	if response.Model != "" {
		return response.Model
	}
	if info := model.GetModelInfo(); info != nil {
		return info.ID
	}
	return ""
}
