package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/pipeline"
)

func extractCmd(a *app) *cobra.Command {
	var (
		pdfPath  string
		docType  string
		model    string
		maxPages int
		saveSAP  bool
		outDir   string
		prefix   string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract one PDF into normalized JSON (and optionally the SAP payload)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := constants.ParseDocType(docType)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			proc, closeJournal, err := a.newProcessor(ctx, model)
			if err != nil {
				return err
			}
			defer closeJournal()

			res, err := proc.Process(ctx, pipeline.Request{
				PDFPath:  pdfPath,
				DocType:  dt,
				Model:    model,
				MaxPages: maxPages,
				SaveSAP:  saveSAP,
				OutDir:   outDir,
				Prefix:   prefix,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.SoftFailure {
				fmt.Fprintf(out, "[WARN] model output was not valid JSON; raw saved: %s\n", res.Files.Raw)
				return nil
			}
			fmt.Fprintf(out, "[OK] extracted saved: %s\n", res.Files.Extracted)
			if res.Files.SAPPayload != "" {
				fmt.Fprintf(out, "[OK] sap payload saved: %s\n", res.Files.SAPPayload)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfPath, "pdf", "", "path to the PDF document")
	cmd.Flags().StringVar(&docType, "type", "", "document type: bl|import_invoice")
	cmd.Flags().StringVar(&model, "model", "", "model name (default: provider model from config)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "render at most N pages (0 = all)")
	cmd.Flags().BoolVar(&saveSAP, "save-sap", false, "also write the SAP payload")
	cmd.Flags().StringVar(&outDir, "out-dir", "output", "output directory")
	cmd.Flags().StringVar(&prefix, "prefix", "", "output file prefix (default: PDF file name)")
	_ = cmd.MarkFlagRequired("pdf")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
