package openai

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultURL   = "https://api.openai.com/v1/chat/completions"
	DefaultModel = "gpt-4o-mini"
)

// Config for the chat-completions client.
type Config struct {
	APIKey  string
	URL     string // full chat-completions endpoint
	Model   string
	Timeout time.Duration
}

// Client implements llm.Completer over an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient returns nil when no API key is configured so the reviewer stays disabled.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
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
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}
