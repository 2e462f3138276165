// Package anthropic implements llm.Completer on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joseph-ayodele/claims-validator/internal/llm"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 2048
)

var errNoText = errors.New("anthropic: no text content in response")

// Config for the Messages client. URL overrides the API base URL.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// Client implements llm.Completer.
type Client struct {
	api    anthropic.Client
	model  string
	logger *slog.Logger
}

// NewClient returns nil when no API key is configured.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.URL != "" {
		opts = append(opts, option.WithBaseURL(cfg.URL))
	}
	return &Client{api: anthropic.NewClient(opts...), model: cfg.Model, logger: logger}
}

// Complete sends one message and returns the concatenated text blocks.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	user := req.User
	if req.JSONMode {
		user += "\nRespond with JSON only."
	}
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errNoText
	}
	c.logger.Debug("llm.anthropic.response",
		"model", c.model,
		"tokens_in", msg.Usage.InputTokens,
		"tokens_out", msg.Usage.OutputTokens,
	)
	return strings.TrimSpace(b.String()), nil
}
