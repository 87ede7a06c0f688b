// Package conversation holds the message history of a single chat session.
package conversation

import (
	"errors"

	"github.com/google/uuid"

	"chatbot/internal/domain"
)

// ErrSystemAppend is returned when a caller tries to append a second system message.
var ErrSystemAppend = errors.New("system message can only be set on creation or reset")

// Conversation is the ordered message list of one session.
// The first message is always the system prompt and it is the only system message.
// A Conversation is owned by one caller and is not safe for concurrent use.
type Conversation struct {
	id           string
	systemPrompt string
	messages     []domain.Message
}

// New creates a conversation seeded with the given system prompt.
func New(systemPrompt string) *Conversation {
	c := &Conversation{id: uuid.NewString(), systemPrompt: systemPrompt}
	c.Reset()
	return c
}

// ID returns the session identifier.
func (c *Conversation) ID() string { return c.id }

// SystemPrompt returns the prompt the conversation is reset to.
func (c *Conversation) SystemPrompt() string { return c.systemPrompt }

// Append adds a user or assistant message to the end of the history.
func (c *Conversation) Append(role domain.Role, content string) error {
	if role == domain.RoleSystem {
		return ErrSystemAppend
	}
	c.messages = append(c.messages, domain.Message{Role: role, Content: content})
	return nil
}

// Reset drops every message except the system prompt.
func (c *Conversation) Reset() {
	c.messages = []domain.Message{{Role: domain.RoleSystem, Content: c.systemPrompt}}
}

// Messages returns a copy of the full history, system prompt first.
func (c *Conversation) Messages() []domain.Message {
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Visible returns the messages shown to the user (everything but the system prompt).
func (c *Conversation) Visible() []domain.Message {
	out := make([]domain.Message, 0, len(c.messages)-1)
	for _, m := range c.messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Len returns the number of messages including the system prompt.
func (c *Conversation) Len() int { return len(c.messages) }
