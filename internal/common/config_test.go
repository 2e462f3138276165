package common

import (
	"errors"
	"testing"
	"time"

	"github.com/joseph-ayodele/claims-validator/internal/llm/anthropic"
	"github.com/joseph-ayodele/claims-validator/internal/llm/openai"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"AI_API_KEY", "AI_PROVIDER", "AI_TIMEOUT", "AI_CONCURRENCY", "RUN_TIMEOUT", "VALIDATION_TENANTS"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()
	if cfg.AI.Provider != ProviderOpenAI || cfg.AI.Timeout != 30*time.Second || cfg.AI.Concurrency != 4 {
		t.Fatalf("AI defaults: %+v", cfg.AI)
	}
	if cfg.Daemon.RunTimeout != 10*time.Minute || cfg.Daemon.GRPCAddr != ":8080" || cfg.Daemon.Tenants != nil {
		t.Fatalf("daemon defaults: %+v", cfg.Daemon)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Anthropic")
	t.Setenv("AI_CONCURRENCY", "8")
	t.Setenv("VALIDATION_TENANTS", "demo, acme ,")
	t.Setenv("RUN_TIMEOUT", "90s")
	cfg := LoadConfig()
	if cfg.AI.Provider != ProviderAnthropic || cfg.AI.Concurrency != 8 {
		t.Fatalf("AI: %+v", cfg.AI)
	}
	if len(cfg.Daemon.Tenants) != 2 || cfg.Daemon.Tenants[1] != "acme" {
		t.Fatalf("tenants: %v", cfg.Daemon.Tenants)
	}
	if cfg.Daemon.RunTimeout != 90*time.Second {
		t.Fatalf("run timeout: %v", cfg.Daemon.RunTimeout)
	}
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{SQLitePath: "claims.db"},
		AI:       AIConfig{Provider: ProviderOpenAI, Timeout: time.Second, Concurrency: 1},
		Daemon:   DaemonConfig{Workers: 1, QueueSize: 1, Schedule: "*/5 * * * *"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"no database", func(c *Config) { c.Database = DatabaseConfig{} }, false},
		{"bad provider", func(c *Config) { c.AI.Provider = "bard" }, false},
		{"zero concurrency", func(c *Config) { c.AI.Concurrency = 0 }, false},
		{"bad schedule", func(c *Config) { c.Daemon.Schedule = "every minute" }, false},
		{"half slack", func(c *Config) { c.Slack.BotToken = "xoxb" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				var appErr *AppError
				if !errors.As(err, &appErr) || appErr.Code != CodeConfig {
					t.Fatalf("expected CONFIG_ERROR, got %v", err)
				}
			}
		})
	}
}

func TestNewCompleter(t *testing.T) {
	if c := NewCompleter(AIConfig{Provider: ProviderOpenAI}, nil); c != nil {
		t.Fatalf("expected nil completer without key, got %T", c)
	}
	if _, ok := NewCompleter(AIConfig{Provider: ProviderOpenAI, APIKey: "k"}, nil).(*openai.Client); !ok {
		t.Fatalf("expected openai client")
	}
	if _, ok := NewCompleter(AIConfig{Provider: ProviderAnthropic, APIKey: "k"}, nil).(*anthropic.Client); !ok {
		t.Fatalf("expected anthropic client")
	}
	if NewReviewer(AIConfig{}, nil).Enabled() {
		t.Fatalf("reviewer without key should be disabled")
	}
}

func TestValidator(t *testing.T) {
	err := NewValidator().
		Field("code", "Demo Tenant", Required, TenantCode).
		Field("name", "", Required).
		Field("name", "abcdef", MaxLength(3)).
		Err()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := NewValidator().Field("code", "demo", Required, TenantCode).Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
