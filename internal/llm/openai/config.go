package openai

import (
	"log/slog"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
)

const defaultModel = "gpt-4o-mini"

// Config for the OpenAI client.
type Config struct {
	APIKey     string        // required
	BaseURL    string        // optional alternate endpoint, e.g. a proxy
	Model      string        // default gpt-4o-mini
	Timeout    time.Duration // http client timeout
	HTTPClient *http.Client  // optional; overrides Timeout
}

type Client struct {
	cfg    Config
	api    oai.Client
	logger *slog.Logger
}

// NewClient fails with common.ErrConfiguration when no API key is configured.
// Retries are disabled: each extraction makes exactly one call.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, common.ConfigError("OPENAI_API_KEY is not set")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		cfg:    cfg,
		api:    oai.NewClient(opts...),
		logger: logger,
	}, nil
}
