package aisdk

import (
	"errors"
	"io"
	"sort"
	"strings"
)

// StreamCallback is a function called for each chunk in a stream.
type StreamCallback func(chunk *StreamChunk) error

// StreamToCallback reads a stream and calls the callback for each chunk.
func StreamToCallback(stream StreamInterface, callback StreamCallback) error {
	defer stream.Close()

	for {
		chunk, err := stream.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if chunk == nil {
			return nil
		}

		if err := callback(chunk); err != nil {
			return err
		}
	}
}

// StreamAggregator helps aggregate streaming responses into a final response.
// Tool call fragments are stitched together by their delta index.
type StreamAggregator struct {
	ID      string
	Object  string
	Created int64
	Model   string
	Content strings.Builder

	FinishReason string
	Usage        *Usage

	toolCalls map[int]*toolCallBuilder
}

type toolCallBuilder struct {
	id   string
	typ  string
	name string
	args strings.Builder
}

// NewStreamAggregator creates a new stream aggregator.
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{
		Object:    "chat.completion",
		toolCalls: make(map[int]*toolCallBuilder),
	}
}

// AddChunk processes a stream chunk and updates the aggregated state. It
// returns the content fragment carried by the chunk, if any.
func (a *StreamAggregator) AddChunk(chunk *StreamChunk) string {
	if a.ID == "" {
		a.ID = chunk.ID
	}
	if a.Created == 0 {
		a.Created = chunk.Created
	}
	if a.Model == "" {
		a.Model = chunk.Model
	}
	if chunk.Usage != nil {
		usage := *chunk.Usage
		a.Usage = &usage
	}

	if len(chunk.Choices) == 0 {
		return ""
	}
	choice := chunk.Choices[0]
	if choice.FinishReason != "" {
		a.FinishReason = choice.FinishReason
	}
	if choice.Delta == nil {
		return ""
	}

	for i, tc := range choice.Delta.ToolCalls {
		idx := i
		if tc.Index != nil {
			idx = *tc.Index
		}
		b, ok := a.toolCalls[idx]
		if !ok {
			b = &toolCallBuilder{}
			a.toolCalls[idx] = b
		}
		if tc.ID != "" {
			b.id = tc.ID
		}
		if tc.Type != "" {
			b.typ = tc.Type
		}
		if tc.Function.Name != "" {
			b.name += tc.Function.Name
		}
		b.args.Write(tc.Function.Arguments)
	}

	a.Content.WriteString(choice.Delta.Content)
	return choice.Delta.Content
}

// ToolCalls returns the tool calls assembled so far, ordered by index.
func (a *StreamAggregator) ToolCalls() []ToolCall {
	if len(a.toolCalls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.toolCalls))
	for idx := range a.toolCalls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	calls := make([]ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		b := a.toolCalls[idx]
		typ := b.typ
		if typ == "" {
			typ = "function"
		}
		args := b.args.String()
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		calls = append(calls, ToolCall{
			ID:   b.id,
			Type: typ,
			Function: FunctionCall{
				Name:      b.name,
				Arguments: []byte(args),
			},
		})
	}
	return calls
}

// ToResponse converts the aggregated stream into a ChatCompletionResponse.
func (a *StreamAggregator) ToResponse() *ChatCompletionResponse {
	response := &ChatCompletionResponse{
		ID:      a.ID,
		Object:  a.Object,
		Created: a.Created,
		Model:   a.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: Message{
					Role:      RoleAssistant,
					Content:   a.Content.String(),
					ToolCalls: a.ToolCalls(),
				},
				FinishReason: a.FinishReason,
			},
		},
	}

	if a.Usage != nil {
		response.Usage = *a.Usage
	}

	return response
}
