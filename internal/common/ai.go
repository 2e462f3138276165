package common

import (
	"log/slog"

	"github.com/joseph-ayodele/claims-validator/internal/llm"
	"github.com/joseph-ayodele/claims-validator/internal/llm/anthropic"
	"github.com/joseph-ayodele/claims-validator/internal/llm/openai"
)

// NewCompleter returns the configured completion client, or nil when no API key is set.
func NewCompleter(cfg AIConfig, logger *slog.Logger) llm.Completer {
	if cfg.APIKey == "" {
		return nil
	}
	switch cfg.Provider {
	case ProviderAnthropic:
		if c := anthropic.NewClient(anthropic.Config{APIKey: cfg.APIKey, URL: cfg.URL, Model: cfg.Model, Timeout: cfg.Timeout}, nil, logger); c != nil {
			return c
		}
	default:
		if c := openai.NewClient(openai.Config{APIKey: cfg.APIKey, URL: cfg.URL, Model: cfg.Model, Timeout: cfg.Timeout}, nil, logger); c != nil {
			return c
		}
	}
	return nil
}

// NewReviewer builds the AI reviewer for cfg; it is disabled without an API key.
func NewReviewer(cfg AIConfig, logger *slog.Logger) *llm.Reviewer {
	return llm.NewReviewer(NewCompleter(cfg, logger), cfg.Timeout, logger)
}
