// ABOUTME: Export command writes the dataset analysis and index summary
// ABOUTME: Supports YAML and markdown output to a file or stdout
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/facultymatch/internal/storage/sqlite"
)

var (
	exportOutput string
	exportFormat string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dataset analysis and index summary",
		Long: `Export the analyzed dataset, column roles, index summary, and recent
builds. Embedding vectors are not included.

Formats: yaml (default) or markdown.

Examples:
  facultymatch export
  facultymatch export -f markdown -o faculty-index.md`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "Output format: yaml or markdown")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	markdown := false
	switch exportFormat {
	case "yaml", "yml":
	case "markdown", "md":
		markdown = true
	default:
		return fmt.Errorf("unsupported export format %q (use yaml or markdown)", exportFormat)
	}

	_, store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	data, err := store.Export(cmd.Context())
	if err != nil {
		return err
	}

	if exportOutput == "" {
		if markdown {
			sqlite.RenderMarkdown(cmd.OutOrStdout(), data)
			return nil
		}
		return sqlite.EncodeYAML(cmd.OutOrStdout(), data)
	}

	if markdown {
		err = sqlite.WriteMarkdown(data, exportOutput)
	} else {
		err = sqlite.WriteYAML(data, exportOutput)
	}
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", exportOutput)
	}
	return nil
}
