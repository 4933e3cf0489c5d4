// ABOUTME: Dataset analysis commands: infer column roles and preview spreadsheets
// ABOUTME: Saves the analysis and any explicit column selection for later builds
package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/facultymatch/internal/core"
	"github.com/harper/facultymatch/internal/models"
)

var (
	analyzeEmbedding  []string
	analyzeIdentifier []string
	analyzeProgram    []string
	analyzeReset      bool
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [dataset]",
		Short: "Analyze the faculty dataset and record column roles",
		Long: `Analyze the faculty dataset and record which columns to embed,
which identify each faculty member, and which hold program names.

Roles are inferred from the headers and a sample of rows unless columns
are chosen explicitly. An explicit choice is remembered for later runs.

Examples:
  facultymatch analyze faculty.xlsx
  facultymatch analyze --embedding-column "Research Interests" faculty.tsv
  facultymatch analyze --reset`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringSliceVar(&analyzeEmbedding, "embedding-column", nil, "Columns whose text is embedded")
	cmd.Flags().StringSliceVar(&analyzeIdentifier, "identifier-column", nil, "Columns identifying each faculty member")
	cmd.Flags().StringSliceVar(&analyzeProgram, "program-column", nil, "Columns listing faculty programs")
	cmd.Flags().BoolVar(&analyzeReset, "reset", false, "Forget the saved column selection and infer roles again")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if analyzeReset {
		if err := a.service.ResetSelection(ctx); err != nil {
			return err
		}
	}

	var selection *models.ColumnSelection
	if len(analyzeEmbedding) > 0 || len(analyzeIdentifier) > 0 || len(analyzeProgram) > 0 {
		selection = &models.ColumnSelection{
			EmbeddingColumns:  analyzeEmbedding,
			IdentifierColumns: analyzeIdentifier,
			ProgramColumns:    analyzeProgram,
		}
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	meta, err := a.service.Analyze(ctx, path, selection)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), meta)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset:            %s\n", meta.DatasetPath)
	writeRoles(out, meta.Analysis.EmbeddingColumns, meta.Analysis.IdentifierColumns, meta.Analysis.ProgramColumns)
	fmt.Fprintf(out, "Programs:           %s\n", listOrNone(meta.Analysis.AvailablePrograms))
	fmt.Fprintf(out, "Faculty rows:       %d\n", len(meta.Memberships))
	return nil
}

func writeRoles(w io.Writer, embedding, identifier, program []string) {
	fmt.Fprintf(w, "Embedding columns:  %s\n", listOrNone(embedding))
	fmt.Fprintf(w, "Identifier columns: %s\n", listOrNone(identifier))
	fmt.Fprintf(w, "Program columns:    %s\n", listOrNone(program))
}

// NewColumnsCmd creates the columns command
func NewColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <spreadsheet>",
		Short: "Preview a spreadsheet and suggest column roles",
		Long: `Preview the first rows of a spreadsheet and show which columns would
be embedded, used as identifiers, or read as programs.

Nothing is saved. Use 'facultymatch analyze' to record a choice.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			suggestion, err := a.service.SuggestColumns(args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), suggestion)
			}
			writeSuggestion(cmd.OutOrStdout(), suggestion)
			return nil
		},
	}
}

func writeSuggestion(w io.Writer, s *core.ColumnSuggestion) {
	fmt.Fprintf(w, "%s: %d rows, %d columns\n\n", s.Path, s.Rows, len(s.Headers))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(s.Headers))
	for i, h := range s.Headers {
		headers[i] = truncate(h, 24)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range s.Preview {
		cells := make([]string, len(s.Headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = truncate(row[i], 24)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	writeRoles(w, s.Embedding, s.Identifier, s.Category)
}
