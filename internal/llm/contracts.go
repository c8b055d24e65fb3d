package llm

import (
	"context"

	"github.com/joseph-ayodele/tradedoc-extract/internal/render"
)

// PageSource produces the page images sent alongside the prompt.
type PageSource interface {
	Render(ctx context.Context, pdfPath string, maxPages int) ([]render.Page, error)
}

// VisionRequest is one multimodal completion call.
type VisionRequest struct {
	Model       string // empty means the provider's configured default
	Prompt      string
	Images      []render.Page
	Temperature float64
}

// VisionModel is implemented by the provider clients. It returns the raw text
// of the first completion choice; providers must request JSON output.
type VisionModel interface {
	CompleteJSON(ctx context.Context, req VisionRequest) (string, error)
}

// ModelLister is an optional provider capability used for connectivity checks.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
