package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// AI providers recognised in AI_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	AI       AIConfig
	Daemon   DaemonConfig
	Slack    SlackConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// AIConfig holds the completion-service configuration. An empty APIKey disables review.
type AIConfig struct {
	Provider    string
	APIKey      string
	URL         string
	Model       string
	Timeout     time.Duration
	Concurrency int
}

// DaemonConfig holds scheduling and serving configuration for claimsd
type DaemonConfig struct {
	Schedule    string
	Tenants     []string
	RunTimeout  time.Duration
	Workers     int
	QueueSize   int
	GRPCAddr    string
	MetricsAddr string
	Inbox       string
	Debounce    time.Duration
}

// SlackConfig holds run-summary notification settings
type SlackConfig struct {
	BotToken  string
	ChannelID string
	APIURL    string
}

// Enabled reports whether notifications can be posted.
func (s SlackConfig) Enabled() bool {
	return s.BotToken != "" && s.ChannelID != ""
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("DB_SQLITE_PATH", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		AI: AIConfig{
			Provider:    strings.ToLower(getEnv("AI_PROVIDER", ProviderOpenAI)),
			APIKey:      getEnv("AI_API_KEY", ""),
			URL:         getEnv("AI_API_URL", ""),
			Model:       getEnv("AI_MODEL", ""),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
			Concurrency: getEnvAsInt("AI_CONCURRENCY", 4),
		},
		Daemon: DaemonConfig{
			Schedule:    getEnv("VALIDATION_SCHEDULE", ""),
			Tenants:     getEnvAsList("VALIDATION_TENANTS"),
			RunTimeout:  getEnvAsDuration("RUN_TIMEOUT", 10*time.Minute),
			Workers:     getEnvAsInt("QUEUE_WORKERS", 2),
			QueueSize:   getEnvAsInt("QUEUE_SIZE", 64),
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			Inbox:       getEnv("CLAIMS_INBOX", ""),
			Debounce:    getEnvAsDuration("INBOX_DEBOUNCE", 500*time.Millisecond),
		},
		Slack: SlackConfig{
			BotToken:  getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
			APIURL:    getEnv("SLACK_API_URL", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateDatabase checks that some database is configured.
func (c *Config) ValidateDatabase() error {
	if c.Database.DSN == "" && c.Database.SQLitePath == "" {
		return NewAppError(CodeConfig, "DB_URL or DB_SQLITE_PATH is required", ErrInvalidInput)
	}
	return nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("AI_PROVIDER %q is not supported", c.AI.Provider), ErrInvalidInput)
	}
	if c.AI.Concurrency < 1 {
		return NewAppError(CodeConfig, "AI_CONCURRENCY must be at least 1", ErrInvalidInput)
	}
	if c.AI.Timeout <= 0 {
		return NewAppError(CodeConfig, "AI_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.Daemon.Workers < 1 || c.Daemon.QueueSize < 1 {
		return NewAppError(CodeConfig, "QUEUE_WORKERS and QUEUE_SIZE must be at least 1", ErrInvalidInput)
	}
	if c.Daemon.Schedule != "" {
		if _, err := cron.ParseStandard(c.Daemon.Schedule); err != nil {
			return NewAppError(CodeConfig, "VALIDATION_SCHEDULE is not a valid cron expression", err)
		}
	}
	if (c.Slack.BotToken == "") != (c.Slack.ChannelID == "") {
		return NewAppError(CodeConfig, "SLACK_BOT_TOKEN and SLACK_CHANNEL_ID must be set together", ErrInvalidInput)
	}
	return nil
}
