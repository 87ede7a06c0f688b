// Package completion is a client for OpenAI-compatible chat completion endpoints such as OpenRouter.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"chatbot/internal/domain"
)

const (
	defaultURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel     = "openai/gpt-3.5-turbo"
	defaultMaxTokens = 1000
)

// ErrNoChoices is returned when the endpoint answers 2xx without any choice.
var ErrNoChoices = errors.New("completion returned no choices")

// StatusError reports a non-2xx answer from the endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("completion failed: status %d", e.Code)
	}
	return fmt.Sprintf("completion failed: status %d: %s", e.Code, e.Body)
}

// Config configures the completion client.
type Config struct {
	URL       string
	APIKeyEnv string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// Referer and Title are sent as OpenRouter attribution headers when set.
	Referer string
	Title   string
}

// Client sends conversations to a hosted chat completion endpoint.
type Client struct {
	url       string
	apiKey    string
	model     string
	maxTokens int
	referer   string
	title     string
	client    *http.Client
}

// NewClient creates a completion client. The API key is read from cfg.APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	// zero timeout means no client-side deadline; callers bound requests through ctx
	return &Client{
		url:       cfg.URL,
		apiKey:    key,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		referer:   cfg.Referer,
		title:     cfg.Title,
		client:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model returns the model name requests are sent with.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model     string           `json:"model"`
	Messages  []domain.Message `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends history followed by a new user prompt and returns the assistant reply.
// history is not modified.
func (c *Client) Complete(ctx context.Context, history []domain.Message, prompt string) (string, error) {
	msgs := make([]domain.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: prompt})

	data, err := json.Marshal(chatRequest{Model: c.model, Messages: msgs, MaxTokens: c.maxTokens})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	return out.Choices[0].Message.Content, nil
}
