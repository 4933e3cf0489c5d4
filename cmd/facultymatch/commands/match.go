// ABOUTME: Match command ranks faculty for prompts, documents, spreadsheets, or directories
// ABOUTME: Prints ranked matches and optionally writes the batch report as TSV
package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/facultymatch/internal/core"
	"github.com/harper/facultymatch/internal/models"
)

var (
	matchPrompt          string
	matchDocument        string
	matchSpreadsheet     string
	matchDirectory       string
	matchPromptColumns   []string
	matchIdentifierCols  []string
	matchRecommendations int
	matchPrograms        []string
	matchRoster          string
	matchRosterMap       []string
	matchOutput          string
)

// NewMatchCmd creates the match command
func NewMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match [prompt]",
		Short: "Rank faculty for student research interests",
		Long: `Rank faculty by similarity to one or more student prompts.

Provide exactly one source: a prompt, a document, a spreadsheet of
prompts, or a directory of documents. Candidates can be limited to
programs or to the faculty listed in a roster spreadsheet.

Examples:
  facultymatch match "neural circuits of memory"
  facultymatch match --document statement.docx -n 10
  facultymatch match --spreadsheet students.xlsx --prompt-column Interests --identifier-column Name -o matches.tsv
  facultymatch match --directory essays/ --program Neuroscience
  facultymatch match --roster roster.tsv --roster-map Name="Faculty Name" "immunology"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMatch,
	}

	cmd.Flags().StringVarP(&matchPrompt, "prompt", "p", "", "Student research interests")
	cmd.Flags().StringVarP(&matchDocument, "document", "d", "", "Plain text or Word document with the student's interests")
	cmd.Flags().StringVarP(&matchSpreadsheet, "spreadsheet", "s", "", "Spreadsheet with one student per row")
	cmd.Flags().StringVar(&matchDirectory, "directory", "", "Directory of student documents")
	cmd.Flags().StringSliceVar(&matchPromptColumns, "prompt-column", nil, "Spreadsheet columns holding prompts")
	cmd.Flags().StringSliceVar(&matchIdentifierCols, "identifier-column", nil, "Spreadsheet columns identifying each student")
	cmd.Flags().IntVarP(&matchRecommendations, "recommendations", "n", 0, "Faculty recommendations per student (default from FACMATCH_RECOMMENDATIONS)")
	cmd.Flags().StringSliceVar(&matchPrograms, "program", nil, "Only consider faculty in these programs")
	cmd.Flags().StringVar(&matchRoster, "roster", "", "Only consider faculty listed in this spreadsheet")
	cmd.Flags().StringSliceVar(&matchRosterMap, "roster-map", nil, "FACULTY_COLUMN=ROSTER_COLUMN pairs for roster matching")
	cmd.Flags().StringVarP(&matchOutput, "output", "o", "", "Write the batch report to this TSV file")

	cmd.MarkFlagsMutuallyExclusive("prompt", "document", "spreadsheet", "directory")
	cmd.MarkFlagsMutuallyExclusive("program", "roster")

	return cmd
}

func runMatch(cmd *cobra.Command, args []string) error {
	prompt := matchPrompt
	if len(args) > 0 {
		if prompt != "" || matchDocument != "" || matchSpreadsheet != "" || matchDirectory != "" {
			return fmt.Errorf("provide the prompt as an argument or through one flag, not both")
		}
		prompt = args[0]
	}
	if prompt == "" && matchDocument == "" && matchSpreadsheet == "" && matchDirectory == "" {
		return fmt.Errorf("provide a prompt, --document, --spreadsheet, or --directory")
	}

	mapping, err := parseMapping(matchRosterMap)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	recommendations := matchRecommendations
	if !cmd.Flags().Changed("recommendations") {
		recommendations = a.cfg.Recommendations
	}
	if err := validatePositiveInt(recommendations, "--recommendations"); err != nil {
		return err
	}
	opts := core.MatchOptions{
		Recommendations: recommendations,
		Scope: core.ScopeOptions{
			Programs:      matchPrograms,
			RosterPath:    matchRoster,
			RosterMapping: mapping,
		},
	}

	var result *core.Result
	switch {
	case prompt != "":
		result, err = a.service.MatchPrompt(ctx, prompt, opts)
	case matchDocument != "":
		result, err = a.service.MatchDocument(ctx, matchDocument, opts)
	case matchSpreadsheet != "":
		result, err = a.service.MatchSpreadsheet(ctx, matchSpreadsheet, core.SpreadsheetOptions{
			MatchOptions:      opts,
			PromptColumns:     matchPromptColumns,
			IdentifierColumns: matchIdentifierCols,
		})
	default:
		result, err = a.service.MatchDirectory(ctx, matchDirectory, opts)
	}
	if err != nil {
		return err
	}

	if matchOutput != "" {
		if result.Batch == nil {
			return fmt.Errorf("--output applies to --spreadsheet and --directory runs")
		}
		if err := result.Batch.Report.WriteTSV(matchOutput); err != nil {
			return err
		}
		a.logger.Info("wrote matches report", "path", matchOutput, "rows", len(result.Batch.Report.Rows))
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	writeResult(cmd.OutOrStdout(), result)
	return nil
}

func writeResult(w io.Writer, result *core.Result) {
	if !quiet {
		fmt.Fprintln(w, result.Summary)
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "Warning: %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	if result.Batch != nil {
		b := result.Batch
		fmt.Fprintf(w, "Processed %d, matched %d, skipped %d; %d report rows\n", b.Processed, b.Matched, b.Skipped, b.TotalRows)
		if matchOutput == "" {
			writeReport(w, b.Report)
		}
		return
	}

	for _, set := range result.PromptMatches {
		writeMatchSet(w, set)
	}
}

func writeMatchSet(w io.Writer, set models.PromptMatchSet) {
	fmt.Fprintf(w, "%s\n", truncate(set.Prompt, 100))
	if len(set.Matches) == 0 {
		fmt.Fprintln(w, "  No faculty matches were found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  RANK\tSIMILARITY\tFACULTY\tSTUDENT RANK\n")
	for i, m := range set.Matches {
		studentRank := ""
		if m.CrossQueryRank != nil && m.CrossQueryTotal != nil {
			studentRank = fmt.Sprintf("%d of %d", *m.CrossQueryRank, *m.CrossQueryTotal)
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", i+1, core.FormatSimilarity(m.Similarity), truncate(facultyLabel(m), 60), studentRank)
	}
	_ = tw.Flush()
}

func facultyLabel(m models.MatchCandidate) string {
	keys := make([]string, 0, len(m.Identifiers))
	for k := range m.Identifiers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if v := strings.TrimSpace(m.Identifiers[k]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("row %d", m.RowIndex+1)
	}
	return strings.Join(parts, ", ")
}

func writeReport(w io.Writer, report *core.Report) {
	if report == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, h := range report.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, row := range report.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, truncate(cell, 40))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
