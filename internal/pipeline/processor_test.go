package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
	"github.com/joseph-ayodele/tradedoc-extract/internal/documents"
	"github.com/joseph-ayodele/tradedoc-extract/internal/llm"
	"github.com/joseph-ayodele/tradedoc-extract/internal/render"
	"github.com/joseph-ayodele/tradedoc-extract/internal/repository"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubPages struct{ n int }

func (s stubPages) Render(context.Context, string, int) ([]render.Page, error) {
	pages := make([]render.Page, s.n)
	for i := range pages {
		pages[i] = render.Page{Number: i + 1, PNG: []byte("png")}
	}
	return pages, nil
}

type stubModel struct {
	calls int
	text  string
}

func (s *stubModel) CompleteJSON(context.Context, llm.VisionRequest) (string, error) {
	s.calls++
	return s.text, nil
}

func newJournal(t *testing.T) repository.ExtractJobRepository {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, quiet)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(quiet) })
	return repository.NewExtractJobRepository(db, quiet)
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func lastJob(t *testing.T, jobs repository.ExtractJobRepository) (constants.JobStatus, *int) {
	t.Helper()
	recent, err := jobs.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	return recent[0].Status, recent[0].Pages
}

func TestProcessBillOfLadingWithSAP(t *testing.T) {
	out := t.TempDir()
	jobs := newJournal(t)
	model := &stubModel{text: `{"bl_no": "778899", "carrier": "HMM", "packing": {"gross_weight": "1,000 KGS"}}`}
	p := NewProcessor(stubPages{n: 2}, model, Options{Jobs: jobs, DefaultModel: "gpt-4o-mini"}, quiet)

	res, err := p.Process(context.Background(), Request{
		PDFPath: "samples/BL/HMM-0425.pdf",
		DocType: constants.DocTypeBL,
		SaveSAP: true,
		OutDir:  out,
	})
	require.NoError(t, err)
	assert.False(t, res.SoftFailure)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, filepath.Join(out, "HMM-0425_bl_extracted.json"), res.Files.Extracted)
	assert.Equal(t, filepath.Join(out, "HMM-0425_bl_sap_payload.json"), res.Files.SAPPayload)
	assert.Empty(t, res.Files.Raw)

	extracted := readJSON(t, res.Files.Extracted)
	assert.Equal(t, "778899", extracted["bl_no"])
	assert.Contains(t, extracted, "shipment_date")
	assert.Nil(t, extracted["shipment_date"])

	payload := readJSON(t, res.Files.SAPPayload)
	assert.Equal(t, "778899", payload["BL_NO"])
	assert.Equal(t, "1,000 KGS", payload["PACKING_GROSS_WEIGHT"])

	raw, err := os.ReadFile(res.Files.SAPPayload)
	require.NoError(t, err)
	body := string(raw)
	assert.Less(t, strings.Index(body, `"POL"`), strings.Index(body, `"POD"`))
	assert.Less(t, strings.Index(body, `"POD"`), strings.Index(body, `"SHIPMENT_DATE"`))
	assert.Less(t, strings.Index(body, `"SHIPMENT_DATE"`), strings.Index(body, `"PACKING_CONTAINERS"`))

	status, pages := lastJob(t, jobs)
	assert.Equal(t, constants.JobStatusOK, status)
	require.NotNil(t, pages)
	assert.Equal(t, 2, *pages)
}

func TestProcessInvoiceWithPrefixNoSAP(t *testing.T) {
	out := t.TempDir()
	model := &stubModel{text: `{"invoice_no": "INV-1", "items": [{"line_no": 1, "quantity": 3}]}`}
	p := NewProcessor(stubPages{n: 1}, model, Options{}, quiet)

	res, err := p.Process(context.Background(), Request{
		PDFPath: "ci.pdf",
		DocType: constants.DocTypeImportInvoice,
		OutDir:  out,
		Prefix:  "march",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "march_import_invoice_extracted.json"), res.Files.Extracted)
	assert.Empty(t, res.Files.SAPPayload)
	assert.NoFileExists(t, filepath.Join(out, "march_import_invoice_sap_payload.json"))

	inv, ok := res.Record.(documents.ImportInvoice)
	require.True(t, ok)
	require.Len(t, inv.Items, 1)
	assert.Len(t, res.Payload.Items(), 1)
}

func TestProcessSoftFailure(t *testing.T) {
	out := t.TempDir()
	jobs := newJournal(t)
	p := NewProcessor(stubPages{n: 1}, &stubModel{text: "not json"}, Options{Jobs: jobs}, quiet)

	res, err := p.Process(context.Background(), Request{PDFPath: "x.pdf", DocType: constants.DocTypeBL, SaveSAP: true, OutDir: out})
	require.NoError(t, err)
	assert.True(t, res.SoftFailure)
	assert.Nil(t, res.Record)
	assert.Equal(t, filepath.Join(out, "x_bl_raw.json"), res.Files.Raw)
	assert.NoFileExists(t, filepath.Join(out, "x_bl_extracted.json"))
	assert.NoFileExists(t, filepath.Join(out, "x_bl_sap_payload.json"))

	raw := readJSON(t, res.Files.Raw)
	assert.Equal(t, "JSONDecodeError", raw["_error"])
	assert.Equal(t, "not json", raw["_raw"])

	status, _ := lastJob(t, jobs)
	assert.Equal(t, constants.JobStatusSoftFailed, status)
}

func TestProcessValidationFailure(t *testing.T) {
	out := t.TempDir()
	jobs := newJournal(t)
	model := &stubModel{text: `{"items": [{"quantity": 1}, {"quantity": "lots"}]}`}
	p := NewProcessor(stubPages{n: 1}, model, Options{Jobs: jobs}, quiet)

	_, err := p.Process(context.Background(), Request{PDFPath: "y.pdf", DocType: constants.DocTypeImportInvoice, OutDir: out})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Contains(t, err.Error(), "items[1].quantity")
	assert.NoFileExists(t, filepath.Join(out, "y_import_invoice_extracted.json"))

	status, _ := lastJob(t, jobs)
	assert.Equal(t, constants.JobStatusFailed, status)
}

func TestProcessMissingPDF(t *testing.T) {
	model := &stubModel{}
	p := NewProcessor(render.New(render.Config{}, quiet), model, Options{}, quiet)

	_, err := p.Process(context.Background(), Request{
		PDFPath: filepath.Join(t.TempDir(), "missing.pdf"),
		DocType: constants.DocTypeBL,
		OutDir:  t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInputNotFound))
	assert.Zero(t, model.calls)
}

func TestProcessRejectsBadRequest(t *testing.T) {
	p := NewProcessor(stubPages{n: 1}, &stubModel{}, Options{}, quiet)

	_, err := p.Process(context.Background(), Request{PDFPath: "a.pdf", DocType: "packing_list"})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = p.Process(context.Background(), Request{DocType: constants.DocTypeBL})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
