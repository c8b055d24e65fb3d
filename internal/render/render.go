// Package render rasterizes PDF pages into PNG images for the vision model.
package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	rpdf "rsc.io/pdf"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
)

const (
	DefaultZoom = 2.0
	baseDPI     = 72
)

type Config struct {
	Pdftoppm string  // binary name or absolute path; if empty -> "pdftoppm"
	Zoom     float64 // scale relative to 72 DPI, default 2.0
}

// Page is one rendered page as an opaque PNG.
type Page struct {
	Number int
	PNG    []byte
}

// DataURL encodes the page for inline transport to the model.
func (p Page) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(p.PNG)
}

// PageCounter reports the total number of pages in a PDF.
type PageCounter func(path string) (int, error)

type Rasterizer struct {
	cfg        Config
	runner     Runner
	countPages PageCounter
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Zoom <= 0 {
		cfg.Zoom = DefaultZoom
	}
	return &Rasterizer{
		cfg:        cfg,
		runner:     execRunner{logger: logger},
		countPages: CountPages,
		logger:     logger,
	}
}

// DPI is the pdftoppm resolution matching the configured zoom.
func (r *Rasterizer) DPI() int {
	return int(math.Round(baseDPI * r.cfg.Zoom))
}

// Render returns the first min(total, maxPages) pages in order; maxPages <= 0
// means all pages. A document with no pages yields an empty slice. When the
// page count cannot be read, pdftoppm renders up to the cap on its own.
func (r *Rasterizer) Render(ctx context.Context, path string, maxPages int) ([]Page, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: pdf not found: %s", common.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	// total < 0: the PDF reader rejected the file. pdftoppm tolerates stray
	// header bytes and stale xref offsets, so it still gets to render.
	total, err := r.countPages(path)
	if err != nil {
		r.logger.Warn("render.page_count_failed", "path", path, "error", err)
		total = -1
	}
	n := total
	if total < 0 {
		n = max(maxPages, 0) // 0: let pdftoppm render every page
	} else if maxPages > 0 && maxPages < total {
		n = maxPages
	}
	if total == 0 {
		r.logger.Warn("render.empty_document", "path", path)
		return []Page{}, nil
	}

	tmpDir, err := os.MkdirTemp("", "tradedoc-render-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			r.logger.Warn("render.tmpdir_cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png [-f 1 -l <n>] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(r.DPI()), "-png"}
	if n > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(n))
	}
	args = append(args, path, prefix)
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	files, err := renderedPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images for %s", path)
	}
	if total > 0 && len(files) != n {
		r.logger.Warn("render.page_count_mismatch", "path", path, "expected", n, "rendered", len(files))
	}

	pages := make([]Page, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("read rendered page %d: %w", f.number, err)
		}
		pages = append(pages, Page{Number: f.number, PNG: b})
	}

	r.logger.Info("render.ok",
		"path", path,
		"total_pages", total,
		"rendered", len(pages),
		"dpi", r.DPI(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

type renderedFile struct {
	number int
	path   string
}

// renderedPages collects prefix-N.png files (N may be zero-padded) sorted by page number.
func renderedPages(prefix string) ([]renderedFile, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	files := make([]renderedFile, 0, len(matches))
	for _, m := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), ".png")
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		files = append(files, renderedFile{number: n, path: m})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].number < files[j].number })
	return files, nil
}

// CountPages reads the page count from the PDF trailer. The file handle is
// closed before returning.
func CountPages(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	// rsc.io/pdf panics on some malformed object graphs.
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	doc, err := rpdf.NewReader(f, st.Size())
	if err != nil {
		return 0, err
	}
	return doc.NumPage(), nil
}
