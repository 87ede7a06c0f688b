package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"chatbot/internal/conversation"
	"chatbot/internal/domain"
)

// ErrEmptyPrompt is returned for prompts that are blank after trimming.
var ErrEmptyPrompt = errors.New("empty prompt")

// Completer sends a conversation plus a new prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, history []domain.Message, prompt string) (string, error)
}

// ChatService runs chat turns against a Completer.
type ChatService struct {
	completer Completer
	logger    *zap.Logger
}

// NewChatService creates a chat service. A nil logger is replaced by a no-op one.
func NewChatService(completer Completer, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{completer: completer, logger: logger}
}

// Ask runs one chat turn. On success the user prompt and the reply are appended to conv,
// in that order. On failure conv is left untouched.
func (s *ChatService) Ask(ctx context.Context, conv *conversation.Conversation, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	reply, err := s.completer.Complete(ctx, conv.Messages(), prompt)
	if err != nil {
		s.logger.Error("completion failed", zap.String("session", conv.ID()), zap.Error(err))
		return "", err
	}
	_ = conv.Append(domain.RoleUser, prompt)
	_ = conv.Append(domain.RoleAssistant, reply)
	s.logger.Debug("chat turn", zap.String("session", conv.ID()), zap.Int("messages", conv.Len()))
	return reply, nil
}
