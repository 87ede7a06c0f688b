// Package tokens estimates how many model tokens a conversation uses.
package tokens

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"chatbot/internal/domain"
)

// Counter returns the number of tokens in a text.
type Counter interface {
	Count(text string) int
}

// WordCounter approximates tokens by whitespace-separated words.
type WordCounter struct{}

func (WordCounter) Count(text string) int { return len(strings.Fields(text)) }

// TikTokenCounter counts tokens with a tiktoken encoding such as "cl100k_base".
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

// New returns a tiktoken counter, or a WordCounter when the encoding cannot be loaded
// (tiktoken fetches its vocabulary on first use).
func New(encoding string) Counter {
	if encoding == "" {
		return WordCounter{}
	}
	c, err := NewTikTokenCounter(encoding)
	if err != nil {
		return WordCounter{}
	}
	return c
}

// CountMessages sums the token counts of every message's content.
func CountMessages(c Counter, msgs []domain.Message) int {
	total := 0
	for _, m := range msgs {
		total += c.Count(m.Content)
	}
	return total
}
