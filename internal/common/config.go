package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration. It is built once at process
// start and handed to constructors explicitly.
type Config struct {
	LLM     LLMConfig
	Render  RenderConfig
	Schema  SchemaConfig
	Journal JournalConfig
	Log     LogConfig
}

// LLMConfig holds vision-model configuration
type LLMConfig struct {
	Provider string
	Timeout  time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string // optional alternate endpoint
	OpenAIModel   string

	GeminiAPIKey string
	GeminiModel  string
}

// RenderConfig holds PDF rasterization configuration
type RenderConfig struct {
	Pdftoppm string
	Zoom     float64
}

// SchemaConfig points at an optional directory overriding the embedded schemas
type SchemaConfig struct {
	Dir string
}

// JournalConfig holds run-journal database configuration; empty DSN disables it
type JournalConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_API_BASE_URL", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			GeminiAPIKey:  getEnv("GOOGLE_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Render: RenderConfig{
			Pdftoppm: getEnv("PDFTOPPM", "pdftoppm"),
			Zoom:     getEnvAsFloat64("RENDER_ZOOM", 2.0),
		},
		Schema: SchemaConfig{
			Dir: getEnv("SCHEMA_DIR", ""),
		},
		Journal: JournalConfig{
			DSN:         getEnv("JOURNAL_DSN", ""),
			DialTimeout: getEnvAsDuration("JOURNAL_DIAL_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

// Validate checks settings that are wrong regardless of which command runs.
// Credentials are checked by the model clients at construction.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("LLM_PROVIDER", c.LLM.Provider, OneOf(ProviderOpenAI, ProviderGemini)).
		Field("RENDER_ZOOM", c.Render.Zoom, Positive).
		Field("PDFTOPPM", c.Render.Pdftoppm, Required).
		Field("LOG_FORMAT", c.Log.Format, OneOf("text", "json"))
	return v.Error()
}

// ModelName returns the configured model for the active provider.
func (c *Config) ModelName() string {
	if c.LLM.Provider == ProviderGemini {
		return c.LLM.GeminiModel
	}
	return c.LLM.OpenAIModel
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
