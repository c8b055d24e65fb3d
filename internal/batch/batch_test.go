package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/pipeline"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeProcessor struct {
	requests []pipeline.Request
	fail     map[string]error
	soft     map[string]bool
}

func (f *fakeProcessor) Process(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.requests = append(f.requests, req)
	name := filepath.Base(req.PDFPath)
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return &pipeline.Result{Source: req.PDFPath, DocType: req.DocType, SoftFailure: f.soft[name]}, nil
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF"), 0o644))
	}
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.pdf", "a.PDF", "notes.txt", "c.pdf", ".~lock.pdf")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.pdf"), 0o755))
	touch(t, filepath.Join(dir, "sub"), "deep.pdf")

	files, err := ListPDFs(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"a.PDF", "b.pdf", "c.pdf"}, names)

	files, err = ListPDFs(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRunOrderAndRouting(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "commercial invoice"), "inv2.pdf", "inv1.pdf")
	touch(t, filepath.Join(root, "BL"), "bl1.PDF")

	proc := &fakeProcessor{}
	rep, err := NewRunner(proc, quiet).Run(context.Background(), Config{
		SamplesRoot: root,
		OutDir:      filepath.Join(root, "out"),
		MaxPages:    3,
		SaveSAP:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{OK: 3}, rep.Stats)
	assert.Len(t, rep.Results, 3)

	require.Len(t, proc.requests, 3)
	assert.Equal(t, "inv1.pdf", filepath.Base(proc.requests[0].PDFPath))
	assert.Equal(t, "inv2.pdf", filepath.Base(proc.requests[1].PDFPath))
	assert.Equal(t, "bl1.PDF", filepath.Base(proc.requests[2].PDFPath))

	assert.Equal(t, constants.DocTypeImportInvoice, proc.requests[0].DocType)
	assert.Equal(t, filepath.Join(root, "out", "import_invoice"), proc.requests[0].OutDir)
	assert.Equal(t, constants.DocTypeBL, proc.requests[2].DocType)
	assert.Equal(t, filepath.Join(root, "out", "bl"), proc.requests[2].OutDir)
	for _, req := range proc.requests {
		assert.Equal(t, 3, req.MaxPages)
		assert.True(t, req.SaveSAP)
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "commercial invoice"), "a.pdf", "b.pdf", "c.pdf")
	touch(t, filepath.Join(root, "BL"), "d.pdf")

	boom := errors.New("model unavailable")
	proc := &fakeProcessor{
		fail: map[string]error{"b.pdf": boom},
		soft: map[string]bool{"d.pdf": true},
	}
	rep, err := NewRunner(proc, quiet).Run(context.Background(), Config{SamplesRoot: root, OutDir: t.TempDir()})
	require.NoError(t, err)

	assert.Len(t, proc.requests, 4)
	assert.Equal(t, Stats{OK: 3, Failed: 1, SoftFailed: 1}, rep.Stats)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "b.pdf", filepath.Base(rep.Errors[0].Path))
	assert.ErrorIs(t, rep.Errors[0].Err, boom)
}

func TestRunMissingFolders(t *testing.T) {
	proc := &fakeProcessor{}
	rep, err := NewRunner(proc, quiet).Run(context.Background(), Config{SamplesRoot: filepath.Join(t.TempDir(), "nope")})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, rep.Stats)
	assert.Empty(t, proc.requests)
}

func TestRunStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "BL"), "a.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &fakeProcessor{}
	_, err := NewRunner(proc, quiet).Run(ctx, Config{SamplesRoot: root})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, proc.requests)
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, "samples", c.SamplesRoot)
	assert.Equal(t, "commercial invoice", c.CIFolder)
	assert.Equal(t, "BL", c.BLFolder)
	assert.Equal(t, filepath.Join("output", "batch"), c.OutDir)
}
