// ABOUTME: Root command, global flags, and logging setup for the CLI
// ABOUTME: Registers every subcommand under the facultymatch binary
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
███████╗ █████╗  ██████╗███╗   ███╗ █████╗ ████████╗ ██████╗██╗  ██╗
██╔════╝██╔══██╗██╔════╝████╗ ████║██╔══██╗╚══██╔══╝██╔════╝██║  ██║
█████╗  ███████║██║     ██╔████╔██║███████║   ██║   ██║     ███████║
██╔══╝  ██╔══██║██║     ██║╚██╔╝██║██╔══██║   ██║   ██║     ██╔══██║
██║     ██║  ██║╚██████╗██║ ╚═╝ ██║██║  ██║   ██║   ╚██████╗██║  ██║
╚═╝     ╚═╝  ╚═╝ ╚═════╝╚═╝     ╚═╝╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝
`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facultymatch",
		Short: "Match student research interests to faculty",
		Long: banner + `
Rank faculty members by semantic similarity to student research interests.

Analyze a faculty spreadsheet, embed each member's research text once, then
match single prompts, documents, prompt spreadsheets, or whole directories
against the stored embeddings.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet cannot be used together")
			}
			switch outputFormat {
			case "auto", "text", "json":
			default:
				return fmt.Errorf("--format must be auto, text, or json, got %q", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors and results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, or json")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewColumnsCmd())
	cmd.AddCommand(NewRefreshCmd())
	cmd.AddCommand(NewMatchCmd())
	cmd.AddCommand(NewWarmupCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// setupLogger installs the default slog handler. Flags override the
// configured level; MCP mode keeps stdout clean by logging to stderr.
func setupLogger(level slog.Level) *slog.Logger {
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func jsonOutput() bool {
	return outputFormat == "json"
}
