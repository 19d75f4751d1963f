// Package chat runs the interactive console conversation.
package chat

import (
	"github.com/elee1766/nl2sql/src/aisdk"
)

// History is the ordered conversation. Index 0 is always the system prompt.
type History struct {
	messages []*aisdk.Message
}

// NewHistory starts a conversation with the given system prompt.
func NewHistory(systemPrompt string) *History {
	h := &History{}
	h.Reset(systemPrompt)
	return h
}

// Reset replaces the system prompt and drops everything else.
func (h *History) Reset(systemPrompt string) {
	h.messages = []*aisdk.Message{aisdk.NewMessage(aisdk.RoleSystem, systemPrompt)}
}

// Clear drops every message except the system prompt.
func (h *History) Clear() {
	h.messages = h.messages[:1]
}

// AddUser appends a user turn and returns it.
func (h *History) AddUser(content string) *aisdk.Message {
	m := aisdk.NewMessage(aisdk.RoleUser, content)
	h.messages = append(h.messages, m)
	return m
}

// Append adds m after the newest message.
func (h *History) Append(m *aisdk.Message) {
	h.messages = append(h.messages, m)
}

// dropLast removes the newest message, never the system prompt.
func (h *History) dropLast() {
	if len(h.messages) > 1 {
		h.messages = h.messages[:len(h.messages)-1]
	}
}

// Messages returns a copy of the message slice.
func (h *History) Messages() []*aisdk.Message {
	out := make([]*aisdk.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len counts messages including the system prompt.
func (h *History) Len() int { return len(h.messages) }
