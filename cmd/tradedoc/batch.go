package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradedoc-extract/internal/batch"
	"github.com/joseph-ayodele/tradedoc-extract/internal/export"
	"github.com/joseph-ayodele/tradedoc-extract/internal/storage/fs"
)

func batchCmd(a *app) *cobra.Command {
	var (
		cfg      batch.Config
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run every sample PDF in the invoice and BL folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			proc, closeJournal, err := a.newProcessor(ctx, cfg.Model)
			if err != nil {
				return err
			}
			defer closeJournal()

			rep, err := batch.NewRunner(proc, a.logger).Run(ctx, cfg)
			out := cmd.OutOrStdout()
			for _, r := range rep.Results {
				switch {
				case r.SoftFailure:
					fmt.Fprintf(out, "[WARN] %s: raw saved: %s\n", r.Source, r.Files.Raw)
				default:
					fmt.Fprintf(out, "[OK] %s: extracted saved: %s\n", r.Source, r.Files.Extracted)
				}
			}
			for _, fe := range rep.Errors {
				fmt.Fprintf(out, "[FAIL] %s: %v\n", fe.Path, fe.Err)
			}
			fmt.Fprintf(out, "Done. ok=%d, fail=%d, soft_failed=%d\n", rep.Stats.OK, rep.Stats.Failed, rep.Stats.SoftFailed)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				b, err := export.NewService(a.logger).BuildSAPWorkbook(rep.Results)
				if err != nil {
					return fmt.Errorf("build workbook: %w", err)
				}
				path, err := fs.New(filepath.Dir(xlsxPath)).WriteFile(filepath.Base(xlsxPath), b)
				if err != nil {
					return fmt.Errorf("write workbook: %w", err)
				}
				fmt.Fprintf(out, "[OK] workbook saved: %s\n", path)
			}

			if rep.Stats.Failed > 0 {
				return fmt.Errorf("%d document(s) failed", rep.Stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.SamplesRoot, "samples-root", "samples", "root folder holding the sample subfolders")
	cmd.Flags().StringVar(&cfg.CIFolder, "ci-folder", "commercial invoice", "invoice subfolder name")
	cmd.Flags().StringVar(&cfg.BLFolder, "bl-folder", "BL", "bill of lading subfolder name")
	cmd.Flags().StringVar(&cfg.OutDir, "out-dir", filepath.Join("output", "batch"), "output directory")
	cmd.Flags().IntVar(&cfg.MaxPages, "max-pages", 0, "render at most N pages per document (0 = all)")
	cmd.Flags().BoolVar(&cfg.SaveSAP, "save-sap", false, "also write SAP payloads")
	cmd.Flags().StringVar(&cfg.Model, "model", "", "model name (default: provider model from config)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an XLSX workbook of SAP payloads to this path")
	return cmd
}
