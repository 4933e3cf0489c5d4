// ABOUTME: Refresh command rebuilds faculty embeddings; warmup preloads the model
// ABOUTME: Both drive the configured embedding backend with progress on stderr
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [dataset]",
		Short: "Rebuild the faculty embedding index",
		Long: `Analyze the faculty dataset and embed every faculty member's text.

Without a dataset argument the previously analyzed dataset is used. The
index replaces the existing one only after every batch succeeds.

Examples:
  facultymatch refresh faculty.xlsx
  facultymatch refresh`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			report, err := a.service.Refresh(cmd.Context(), path)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"message":     report.Message,
					"savedTo":     report.SavedTo,
					"textSkipped": report.TextSkipped,
					"missing":     report.Missing,
					"index":       summarize(report.Index),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Message)
			if report.SavedTo != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", report.SavedTo)
			}
			return nil
		},
	}
}

// NewWarmupCmd creates the warmup command
func NewWarmupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warmup",
		Short: "Download and load the embedding model",
		Long: `Load the configured embedding model so the first refresh or match
does not pay the download and startup cost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.service.WarmUp(cmd.Context()); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Model %s is ready\n", a.cfg.Model())
			}
			return nil
		},
	}
}
