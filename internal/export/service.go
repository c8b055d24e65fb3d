package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/pipeline"
	"github.com/joseph-ayodele/tradedoc-extract/internal/sap"
)

const (
	SheetBL           = "BL"
	SheetInvoices     = "Invoices"
	SheetInvoiceItems = "Invoice Items"

	colSource = "SOURCE_FILE"
)

// Service renders batch results as an XLSX workbook keyed by SAP field names.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BuildSAPWorkbook writes one row per BL, one per invoice and one per invoice
// line. Soft failures carry no payload and are skipped.
func (s *Service) BuildSAPWorkbook(results []pipeline.Result) ([]byte, error) {
	start := time.Now()

	invoiceCols := make([]string, 0, len(sap.ImportInvoiceKeys))
	for _, k := range sap.ImportInvoiceKeys {
		if k != "ITEMS" {
			invoiceCols = append(invoiceCols, k)
		}
	}
	itemCols := append([]string{"INVOICE_NO"}, sap.InvoiceItemKeys...)

	f := excelize.NewFile()
	defer f.Close()

	sheets := []*sheet{
		{name: SheetBL, cols: sap.BillOfLadingKeys, row: 2},
		{name: SheetInvoices, cols: invoiceCols, row: 2},
		{name: SheetInvoiceItems, cols: itemCols, row: 2},
	}
	if err := f.SetSheetName("Sheet1", SheetBL); err != nil {
		return nil, err
	}
	for i, sh := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sh.name); err != nil {
				return nil, err
			}
		}
		if err := sh.header(f); err != nil {
			return nil, err
		}
	}
	bl, invoices, items := sheets[0], sheets[1], sheets[2]

	for _, r := range results {
		if r.Payload == nil {
			continue
		}
		switch r.DocType {
		case constants.DocTypeBL:
			if err := bl.write(f, r.Source, r.Payload); err != nil {
				return nil, err
			}
		case constants.DocTypeImportInvoice:
			if err := invoices.write(f, r.Source, r.Payload); err != nil {
				return nil, err
			}
			for _, it := range r.Payload.Items() {
				line := sap.Payload{"INVOICE_NO": r.Payload["INVOICE_NO"]}
				for k, v := range it {
					line[k] = v
				}
				if err := items.write(f, r.Source, line); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, sh := range sheets {
		_ = f.SetColWidth(sh.name, "A", "A", 40) // source path
		last, _ := excelize.ColumnNumberToName(len(sh.cols) + 1)
		_ = f.SetColWidth(sh.name, "B", last, 18)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"bl_rows", bl.row-2,
		"invoice_rows", invoices.row-2,
		"item_rows", items.row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

type sheet struct {
	name string
	cols []string
	row  int
}

func (sh *sheet) header(f *excelize.File) error {
	headers := append([]string{colSource}, sh.cols...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sh.name, cell, h); err != nil {
			return err
		}
	}
	return nil
}

// write appends one row; nil values leave the cell empty.
func (sh *sheet) write(f *excelize.File, source string, p sap.Payload) error {
	cell, _ := excelize.CoordinatesToCellName(1, sh.row)
	if err := f.SetCellValue(sh.name, cell, source); err != nil {
		return err
	}
	for i, k := range sh.cols {
		v := p[k]
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+2, sh.row)
		if err := f.SetCellValue(sh.name, cell, v); err != nil {
			return err
		}
	}
	sh.row++
	return nil
}
