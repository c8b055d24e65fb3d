// Package batch runs the pipeline over the sample folders, one document at a time.
package batch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/pipeline"
)

type Config struct {
	SamplesRoot string // default "samples"
	CIFolder    string // invoices, default "commercial invoice"
	BLFolder    string // default "BL"
	OutDir      string // default "output/batch"
	MaxPages    int
	SaveSAP     bool
	Model       string
}

func (c Config) withDefaults() Config {
	if c.SamplesRoot == "" {
		c.SamplesRoot = "samples"
	}
	if c.CIFolder == "" {
		c.CIFolder = "commercial invoice"
	}
	if c.BLFolder == "" {
		c.BLFolder = "BL"
	}
	if c.OutDir == "" {
		c.OutDir = filepath.Join("output", "batch")
	}
	return c
}

// Stats tallies per-document outcomes. Soft failures are counted in OK as well
// as in SoftFailed.
type Stats struct {
	OK         int
	Failed     int
	SoftFailed int
}

// FileError records a document that failed.
type FileError struct {
	Path    string
	DocType constants.DocType
	Err     error
}

type Report struct {
	Stats   Stats
	Results []pipeline.Result
	Errors  []FileError
}

// Processor is the single-document step, satisfied by *pipeline.Processor.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type Runner struct {
	proc   Processor
	logger *slog.Logger
}

func NewRunner(proc Processor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{proc: proc, logger: logger}
}

type folder struct {
	dir     string
	docType constants.DocType
}

// Run processes the invoice folder first, then the BL folder. A failing
// document is logged and tallied; the batch continues. Only context
// cancellation or an unreadable folder stops the run early.
func (r *Runner) Run(ctx context.Context, cfg Config) (Report, error) {
	cfg = cfg.withDefaults()
	start := time.Now()
	var rep Report

	folders := []folder{
		{dir: filepath.Join(cfg.SamplesRoot, cfg.CIFolder), docType: constants.DocTypeImportInvoice},
		{dir: filepath.Join(cfg.SamplesRoot, cfg.BLFolder), docType: constants.DocTypeBL},
	}
	for _, f := range folders {
		files, err := ListPDFs(f.dir)
		if err != nil {
			return rep, err
		}
		r.logger.Info("batch.folder", "dir", f.dir, "doc_type", f.docType, "files", len(files))

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			res, err := r.proc.Process(ctx, pipeline.Request{
				PDFPath:  path,
				DocType:  f.docType,
				Model:    cfg.Model,
				MaxPages: cfg.MaxPages,
				SaveSAP:  cfg.SaveSAP,
				OutDir:   filepath.Join(cfg.OutDir, string(f.docType)),
			})
			if err != nil {
				rep.Stats.Failed++
				rep.Errors = append(rep.Errors, FileError{Path: path, DocType: f.docType, Err: err})
				r.logger.Error("batch.file.failed", "path", path, "doc_type", f.docType, "error", err)
				continue
			}
			rep.Stats.OK++
			if res.SoftFailure {
				rep.Stats.SoftFailed++
			}
			rep.Results = append(rep.Results, *res)
		}
	}

	r.logger.Info("batch.done",
		"ok", rep.Stats.OK,
		"failed", rep.Stats.Failed,
		"soft_failed", rep.Stats.SoftFailed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}

// ListPDFs returns the *.pdf and *.PDF files directly inside dir, sorted.
// Hidden files are skipped. A missing directory yields no files.
func ListPDFs(dir string) ([]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	seen := map[string]struct{}{}
	var files []string
	for _, pattern := range constants.PDFGlobs {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if strings.HasPrefix(filepath.Base(m), ".") {
				continue
			}
			if st, err := os.Stat(m); err != nil || st.IsDir() {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
