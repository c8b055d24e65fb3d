// Package gemini implements the vision model contract on Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
	"github.com/joseph-ayodele/tradedoc-extract/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string       // optional alternate endpoint
	HTTPClient *http.Client // optional
}

type Client struct {
	cfg    Config
	api    *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, common.ConfigError("GOOGLE_API_KEY is not set")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	api, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{cfg: cfg, api: api, logger: logger}, nil
}

// buildContents packs the prompt and every page into a single user turn.
func buildContents(req llm.VisionRequest) []*genai.Content {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, &genai.Part{Text: req.Prompt})
	for _, p := range req.Images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: p.PNG}})
	}
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
}

// CompleteJSON implements llm.VisionModel with a JSON-mode GenerateContent call.
func (c *Client) CompleteJSON(ctx context.Context, req llm.VisionRequest) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	c.logger.Info("llm.gemini.request", "req_id", rid, "model", model, "images", len(req.Images))

	res, err := c.api.Models.GenerateContent(ctx, model, buildContents(req), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		c.logger.Error("llm.gemini.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	c.logger.Info("llm.gemini.response",
		"req_id", rid,
		"candidates", len(res.Candidates),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res.Text(), nil
}

// ListModels returns model names with the "models/" prefix removed.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.api.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %w", common.ErrTransport, err)
	}
	names := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

var (
	_ llm.VisionModel = (*Client)(nil)
	_ llm.ModelLister = (*Client)(nil)
)
