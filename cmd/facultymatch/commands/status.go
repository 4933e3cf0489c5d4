// ABOUTME: Status command reports the analyzed dataset and stored index
// ABOUTME: Reads storage only and never starts the embedding backend
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/storage/sqlite"
)

func summarize(index *models.EmbeddingIndex) *sqlite.ExportIndex {
	return sqlite.SummarizeIndex(index)
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the dataset analysis and embedding index",
		Long: `Show where data is stored, which dataset was analyzed, the chosen
column roles, and a summary of the faculty embedding index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.service.Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data directory:     %s\n", status.DataDir)
			fmt.Fprintf(out, "Backend:            %s (%s)\n", status.Backend, status.Model)
			if status.DatasetPath == "" {
				fmt.Fprintln(out, "Dataset:            not analyzed")
			} else {
				fmt.Fprintf(out, "Dataset:            %s\n", status.DatasetPath)
			}
			if status.Analysis != nil {
				writeRoles(out, status.Analysis.EmbeddingColumns, status.Analysis.IdentifierColumns, status.Analysis.ProgramColumns)
				fmt.Fprintf(out, "Programs:           %s\n", listOrNone(status.Analysis.AvailablePrograms))
			}
			if status.Selection != nil && !status.Selection.IsEmpty() {
				fmt.Fprintln(out, "Column selection:   saved")
			}
			if status.Index == nil {
				fmt.Fprintln(out, "Index:              none (run 'facultymatch refresh')")
			} else {
				fmt.Fprintf(out, "Index:              %d of %d rows embedded, %s, dimension %d\n",
					status.Index.EmbeddedRows, status.Index.TotalRows, status.Index.Model, status.Index.Dimension)
			}
			if status.LastBuild != nil {
				fmt.Fprintf(out, "Last build:         %s\n", formatTime(status.LastBuild.CreatedAt))
			}
			fmt.Fprintf(out, "Cached prompts:     %d\n", status.CachedPrompts)
			return nil
		},
	}
}
