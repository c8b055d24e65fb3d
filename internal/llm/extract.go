package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
	"github.com/joseph-ayodele/tradedoc-extract/internal/schemas"
)

// Soft-failure marker keys carried inside an Extraction.
const (
	KeyError        = "_error"
	KeyRaw          = "_raw"
	JSONDecodeError = "JSONDecodeError"
)

// Extraction is the decoded model output: a JSON object keyed by schema field,
// or the soft-failure marker.
type Extraction map[string]any

// SoftFailure reports whether the model response could not be decoded.
func (e Extraction) SoftFailure() bool {
	s, _ := e[KeyError].(string)
	return s != ""
}

// Raw returns the undecodable response text of a soft failure.
func (e Extraction) Raw() string {
	s, _ := e[KeyRaw].(string)
	return s
}

type ExtractRequest struct {
	PDFPath  string
	Schema   *schemas.Schema
	DocLabel string
	Model    string // optional override
	MaxPages int    // <= 0 means all pages
}

type Extractor struct {
	pages  PageSource
	model  VisionModel
	logger *slog.Logger
}

func NewExtractor(pages PageSource, model VisionModel, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{pages: pages, model: model, logger: logger}
}

// Extract renders the document, asks the model once and decodes the answer.
// A response that is not a JSON object is returned as a soft failure with a
// nil error; render and transport failures are returned as errors.
func (x *Extractor) Extract(ctx context.Context, req ExtractRequest) (Extraction, error) {
	if req.Schema == nil {
		return nil, common.ConfigError("extract: schema is required")
	}
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	x.logger.Info("llm.extract.start",
		"req_id", rid,
		"pdf", req.PDFPath,
		"doc_type", req.Schema.DocType,
		"model", req.Model,
		"max_pages", req.MaxPages,
	)

	pages, err := x.pages.Render(ctx, req.PDFPath, req.MaxPages)
	if err != nil {
		x.logger.Error("llm.extract.render_error", "req_id", rid, "error", err)
		return nil, err
	}
	if len(pages) == 0 {
		x.logger.Warn("llm.extract.no_pages", "req_id", rid, "pdf", req.PDFPath)
		return Extraction{}, nil
	}

	prompt, err := BuildPrompt(req.DocLabel, req.Schema.Raw)
	if err != nil {
		return nil, common.ConfigError(err.Error())
	}

	text, err := x.model.CompleteJSON(ctx, VisionRequest{
		Model:       req.Model,
		Prompt:      prompt,
		Images:      pages,
		Temperature: 0,
	})
	if err != nil {
		x.logger.Error("llm.extract.model_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}

	out, ok := decodeObject(text)
	if !ok {
		x.logger.Warn("llm.extract.soft_failure",
			"req_id", rid,
			"raw_bytes", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Extraction{KeyError: JSONDecodeError, KeyRaw: text}, nil
	}

	// The domain parser has the final say; schema drift is only reported.
	if err := req.Schema.Validate(map[string]any(out)); err != nil {
		x.logger.Warn("llm.extract.schema_mismatch", "req_id", rid, "error", err)
	}

	x.logger.Info("llm.extract.ok",
		"req_id", rid,
		"pages", len(pages),
		"keys", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// decodeObject parses text as a single JSON object. Empty text counts as {}.
// Numbers stay json.Number so long digit-only identifiers keep their literal text.
func decodeObject(text string) (Extraction, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Extraction{}, true
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return Extraction(m), true
}
