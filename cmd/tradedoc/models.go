package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// modelsCmd checks connectivity and credentials by listing the provider's models.
func modelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models visible to the configured provider credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.modelClient(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connection OK (%s), %d models:\n", a.cfg.LLM.Provider, len(ids))
			for _, id := range ids {
				fmt.Fprintf(out, "- %s\n", id)
			}
			return nil
		},
	}
}
