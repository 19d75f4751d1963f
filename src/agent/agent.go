package agent

import (
	"context"
	"log/slog"

	"github.com/elee1766/nl2sql/src/aisdk"
)

// Agent binds a model client to the toolbox it may call.
type Agent struct {
	Model   aisdk.ModelClient
	Toolbox *DefaultToolbox
	Logger  *slog.Logger
}

func (a *Agent) request(messages []*aisdk.Message) *aisdk.ChatCompletionRequest {
	req := &aisdk.ChatCompletionRequest{Messages: messages}
	if a.Toolbox != nil {
		if tools := a.Toolbox.Tools(); len(tools) > 0 {
			req.Tools = ToChatTools(tools)
			req.ToolChoice = "auto"
		}
	}
	return req
}

// SendMessage sends the messages and waits for the full assistant reply. A
// response without choices is returned as is.
func (a *Agent) SendMessage(ctx context.Context, messages []*aisdk.Message) (*aisdk.ChatCompletionResponse, error) {
	return a.Model.CreateChatCompletion(ctx, a.request(messages))
}

// SendMessageStream sends the messages and returns the streamed reply.
func (a *Agent) SendMessageStream(ctx context.Context, messages []*aisdk.Message) (aisdk.StreamInterface, error) {
	req := a.request(messages)
	req.Stream = true
	req.StreamOptions = &aisdk.StreamOptions{IncludeUsage: true}
	if a.Logger != nil {
		a.Logger.Debug("starting streamed completion", "message_count", len(messages), "tool_count", len(req.Tools))
	}
	return a.Model.CreateChatCompletionStream(ctx, req)
}
