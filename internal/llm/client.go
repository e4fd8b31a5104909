// Package llm is a minimal client for OpenAI-compatible chat completion APIs such
// as OpenRouter.
package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/provider"
)

const (
	// ProviderName identifies the LLM upstream in errors and health reports.
	ProviderName = "llm"

	// DefaultBaseURL is the OpenRouter API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is a free instruction-tuned model on OpenRouter.
	DefaultModel = "qwen/qwen-2.5-7b-instruct:free"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ClientConfig holds configuration for the chat client.
type ClientConfig struct {
	// APIKey is sent as a bearer token (required).
	APIKey string

	// BaseURL defaults to OpenRouter.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	// Referer and Title identify the application to OpenRouter (optional).
	Referer string
	Title   string

	// MaxTokens bounds the completion length, 0 leaves it to the upstream.
	MaxTokens int

	Session *provider.Session
	Logger  zerolog.Logger
}

// Client sends chat completion requests.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	referer   string
	title     string
	maxTokens int
	session   *provider.Session
	logger    zerolog.Logger
}

// NewClient creates a new chat client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	session := cfg.Session
	if session == nil {
		session = provider.NewSession(provider.SessionConfig{Name: ProviderName, Logger: cfg.Logger})
	}

	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		model:     model,
		referer:   cfg.Referer,
		title:     cfg.Title,
		maxTokens: cfg.MaxTokens,
		session:   session,
		logger:    cfg.Logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases the client's session.
func (c *Client) Close() error {
	return c.session.Close()
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends messages and returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	if len(messages) == 0 {
		return "", provider.InputError("at least one message is required")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		header.Set("X-Title", c.title)
	}

	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	}

	var resp chatResponse
	if err := provider.PostJSON(ctx, c.session, c.baseURL+"/chat/completions", header, req, &resp); err != nil {
		return "", err
	}

	// OpenRouter reports some upstream failures inside a 200 body.
	if resp.Error != nil {
		return "", provider.APIError(ProviderName, http.StatusBadGateway, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", provider.ValidationError("completion returned no choices")
	}

	ev := c.logger.Debug().
		Str("model", c.model).
		Float64("temperature", temperature).
		Str("finish_reason", resp.Choices[0].FinishReason)
	if resp.Usage != nil {
		ev = ev.Int("prompt_tokens", resp.Usage.PromptTokens).Int("completion_tokens", resp.Usage.CompletionTokens)
	}
	ev.Msg("completion received")

	return resp.Choices[0].Message.Content, nil
}
