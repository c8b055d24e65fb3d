// Package pipeline runs one PDF through extraction, parsing and payload mapping
// and writes the resulting artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
	"github.com/joseph-ayodele/tradedoc-extract/internal/documents"
	"github.com/joseph-ayodele/tradedoc-extract/internal/llm"
	"github.com/joseph-ayodele/tradedoc-extract/internal/render"
	"github.com/joseph-ayodele/tradedoc-extract/internal/repository"
	"github.com/joseph-ayodele/tradedoc-extract/internal/sap"
	"github.com/joseph-ayodele/tradedoc-extract/internal/schemas"
	"github.com/joseph-ayodele/tradedoc-extract/internal/storage/fs"
)

type Request struct {
	PDFPath  string
	DocType  constants.DocType
	Model    string // optional override of the provider default
	MaxPages int
	SaveSAP  bool
	OutDir   string
	Prefix   string // defaults to the PDF file stem
}

// Artifacts holds the paths written for one run; unset fields were not written.
type Artifacts struct {
	Extracted  string
	SAPPayload string
	Raw        string
}

type Result struct {
	Source      string
	DocType     constants.DocType
	Pages       int
	SoftFailure bool
	Record      documents.Record // nil on soft failure
	Payload     sap.Payload      // computed even when not written
	Files       Artifacts
}

type Options struct {
	SchemaDir    string
	DefaultModel string // recorded in the journal when the request has no override
	Jobs         repository.ExtractJobRepository
}

// Processor is not safe for concurrent use.
type Processor struct {
	extractor *llm.Extractor
	pages     *countingSource
	opts      Options
	schemas   map[constants.DocType]*schemas.Schema
	logger    *slog.Logger
}

func NewProcessor(pages llm.PageSource, model llm.VisionModel, opts Options, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Jobs == nil {
		opts.Jobs = repository.NewNoopExtractJobRepository()
	}
	counted := &countingSource{src: pages}
	return &Processor{
		extractor: llm.NewExtractor(counted, model, logger),
		pages:     counted,
		opts:      opts,
		schemas:   make(map[constants.DocType]*schemas.Schema),
		logger:    logger,
	}
}

// Process runs the single-document flow. A soft failure is not an error: the
// raw extraction is written and parsing is skipped.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.PDFPath) == "" {
		return nil, fmt.Errorf("%w: pdf path is required", common.ErrInvalidInput)
	}
	if _, err := constants.ParseDocType(string(req.DocType)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	schema, err := p.schema(req.DocType)
	if err != nil {
		return nil, err
	}

	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	prefix := req.Prefix
	if prefix == "" {
		prefix = strings.TrimSuffix(filepath.Base(req.PDFPath), filepath.Ext(req.PDFPath))
	}
	model := req.Model
	if model == "" {
		model = p.opts.DefaultModel
	}

	job, err := p.opts.Jobs.Start(ctx, req.PDFPath, req.DocType, model)
	if err != nil {
		p.logger.Warn("pipeline.journal.start_failed", "req_id", rid, "error", err)
		job = nil
	}
	fail := func(err error) (*Result, error) {
		if job != nil {
			if jerr := p.opts.Jobs.FinishFailure(ctx, job.ID, err.Error()); jerr != nil {
				p.logger.Warn("pipeline.journal.finish_failed", "req_id", rid, "error", jerr)
			}
		}
		p.logger.Error("pipeline.run.failed", "req_id", rid, "pdf", req.PDFPath, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	succeed := func(status constants.JobStatus, pages int) {
		if job == nil {
			return
		}
		if jerr := p.opts.Jobs.FinishSuccess(ctx, job.ID, status, pages); jerr != nil {
			p.logger.Warn("pipeline.journal.finish_failed", "req_id", rid, "error", jerr)
		}
	}

	p.pages.last = 0
	ext, err := p.extractor.Extract(ctx, llm.ExtractRequest{
		PDFPath:  req.PDFPath,
		Schema:   schema,
		DocLabel: req.DocType.Label(),
		Model:    req.Model,
		MaxPages: req.MaxPages,
	})
	if err != nil {
		return fail(err)
	}

	res := &Result{Source: req.PDFPath, DocType: req.DocType, Pages: p.pages.last}
	store := fs.New(req.OutDir)
	base := prefix + "_" + string(req.DocType)

	if ext.SoftFailure() {
		res.SoftFailure = true
		if res.Files.Raw, err = store.WriteJSON(base+"_raw.json", ext); err != nil {
			return fail(fmt.Errorf("write raw extraction: %w", err))
		}
		succeed(constants.JobStatusSoftFailed, res.Pages)
		p.logger.Warn("pipeline.run.soft_failure", "req_id", rid, "pdf", req.PDFPath, "raw_file", res.Files.Raw,
			"elapsed_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	rec, err := documents.Parse(req.DocType, map[string]any(ext))
	if err != nil {
		return fail(fmt.Errorf("parse %s: %w", req.DocType, err))
	}
	res.Record = rec
	res.Payload = sap.Map(rec)

	if res.Files.Extracted, err = store.WriteJSON(base+"_extracted.json", rec); err != nil {
		return fail(fmt.Errorf("write extraction: %w", err))
	}
	if req.SaveSAP {
		if res.Files.SAPPayload, err = store.WriteJSON(base+"_sap_payload.json", res.Payload); err != nil {
			return fail(fmt.Errorf("write sap payload: %w", err))
		}
	}

	succeed(constants.JobStatusOK, res.Pages)
	p.logger.Info("pipeline.run.ok",
		"req_id", rid,
		"pdf", req.PDFPath,
		"doc_type", req.DocType,
		"pages", res.Pages,
		"extracted_file", res.Files.Extracted,
		"sap_file", res.Files.SAPPayload,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) schema(dt constants.DocType) (*schemas.Schema, error) {
	if s, ok := p.schemas[dt]; ok {
		return s, nil
	}
	s, err := schemas.Load(dt, p.opts.SchemaDir)
	if err != nil {
		return nil, err
	}
	p.schemas[dt] = s
	return s, nil
}

// countingSource remembers how many pages the last render produced.
type countingSource struct {
	src  llm.PageSource
	last int
}

func (c *countingSource) Render(ctx context.Context, pdfPath string, maxPages int) ([]render.Page, error) {
	pages, err := c.src.Render(ctx, pdfPath, maxPages)
	c.last = len(pages)
	return pages, err
}
