package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
	"github.com/joseph-ayodele/tradedoc-extract/internal/repository"
)

func dbhealthCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the run journal and show the most recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Journal.DSN == "" {
				return common.ConfigError("JOURNAL_DSN is not set")
			}
			ctx := cmd.Context()
			db, err := repository.Open(ctx, repository.Config{
				DSN:         a.cfg.Journal.DSN,
				MaxConns:    2,
				DialTimeout: a.cfg.Journal.DialTimeout,
			}, a.logger)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer db.Close(a.logger)

			if err := repository.HealthCheck(ctx, db, time.Second, a.logger); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "DB health: OK (%s)\n", db.Dialect)

			jobs, err := repository.NewExtractJobRepository(db, a.logger).Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}
			fmt.Fprintf(out, "recent jobs: %d\n", len(jobs))
			for _, j := range jobs {
				pages := "-"
				if j.Pages != nil {
					pages = fmt.Sprint(*j.Pages)
				}
				fmt.Fprintf(out, "- %s %-11s %-14s pages=%s %s\n",
					j.StartedAt.Format(time.RFC3339), j.Status, j.DocType, pages, j.SourcePath)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent jobs to show")
	return cmd
}
