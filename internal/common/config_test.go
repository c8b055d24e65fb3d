package common

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
				assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAIModel)
				assert.Equal(t, 2.0, cfg.Render.Zoom)
				assert.Equal(t, "pdftoppm", cfg.Render.Pdftoppm)
				assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
				assert.Empty(t, cfg.Journal.DSN)
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"LLM_PROVIDER":        "Gemini",
				"OPENAI_API_BASE_URL": "https://proxy.internal/v1",
				"GEMINI_MODEL":        "gemini-2.5-pro",
				"RENDER_ZOOM":         "3",
				"LLM_TIMEOUT":         "15s",
				"LOG_LEVEL":           "DEBUG",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
				assert.Equal(t, "https://proxy.internal/v1", cfg.LLM.OpenAIBaseURL)
				assert.Equal(t, "gemini-2.5-pro", cfg.ModelName())
				assert.Equal(t, 3.0, cfg.Render.Zoom)
				assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
				assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
			},
		},
		{
			name: "unparsable numbers keep defaults",
			env:  map[string]string{"RENDER_ZOOM": "big", "LLM_TIMEOUT": "soon"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2.0, cfg.Render.Zoom)
				assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"LLM_PROVIDER", "OPENAI_API_BASE_URL", "OPENAI_MODEL", "GEMINI_MODEL",
				"RENDER_ZOOM", "LLM_TIMEOUT", "LOG_LEVEL", "PDFTOPPM", "JOURNAL_DSN"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			tt.check(t, LoadConfig())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("RENDER_ZOOM", "")
	t.Setenv("LOG_FORMAT", "")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "anthropic"
	cfg.Render.Zoom = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
	assert.Contains(t, err.Error(), "RENDER_ZOOM")
}

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	var err error = ExpectedType("items[0].quantity", true, "number")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "items[0].quantity")
	assert.Contains(t, err.Error(), "expected number, got boolean")
}
