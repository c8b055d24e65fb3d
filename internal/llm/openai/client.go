package openai

import (
	"context"
	"fmt"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
	"github.com/joseph-ayodele/tradedoc-extract/internal/llm"
)

// CompleteJSON implements llm.VisionModel with one chat completion carrying
// the prompt and every page as an image_url data URL.
func (c *Client) CompleteJSON(ctx context.Context, req llm.VisionRequest) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	parts := make([]oai.ChatCompletionContentPartUnionParam, 0, len(req.Images)+1)
	parts = append(parts, oai.TextContentPart(req.Prompt))
	for _, p := range req.Images {
		parts = append(parts, oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
			URL: p.DataURL(),
		}))
	}

	c.logger.Info("llm.openai.request",
		"req_id", rid,
		"model", model,
		"images", len(req.Images),
		"prompt_len", len(req.Prompt),
	)

	resp, err := c.api.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:       oai.ChatModel(model),
		Messages:    []oai.ChatCompletionMessageParamUnion{oai.UserMessage(parts)},
		Temperature: oai.Float(req.Temperature),
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		c.logger.Error("llm.openai.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices in response")
	}

	c.logger.Info("llm.openai.response",
		"req_id", rid,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the model IDs visible to the configured key and endpoint.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.api.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %w", common.ErrTransport, err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

var (
	_ llm.VisionModel = (*Client)(nil)
	_ llm.ModelLister = (*Client)(nil)
)
