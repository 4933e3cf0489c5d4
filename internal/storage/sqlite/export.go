// ABOUTME: Export functionality for dataset metadata and index history
// ABOUTME: Supports YAML and Markdown export formats
package sqlite

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/facultymatch/internal/models"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version     string          `yaml:"version" json:"version"`
	ExportedAt  string          `yaml:"exported_at" json:"exported_at"`
	Tool        string          `yaml:"tool" json:"tool"`
	DatasetPath string          `yaml:"dataset_path,omitempty" json:"dataset_path,omitempty"`
	Analysis    *ExportAnalysis `yaml:"analysis,omitempty" json:"analysis,omitempty"`
	Selection   *ExportAnalysis `yaml:"column_selection,omitempty" json:"column_selection,omitempty"`
	Memberships int             `yaml:"memberships" json:"memberships"`
	Index       *ExportIndex    `yaml:"index,omitempty" json:"index,omitempty"`
	Builds      []BuildRecord   `yaml:"builds,omitempty" json:"builds,omitempty"`
}

// ExportAnalysis represents column roles for export
type ExportAnalysis struct {
	EmbeddingColumns  []string `yaml:"embedding_columns" json:"embedding_columns"`
	IdentifierColumns []string `yaml:"identifier_columns" json:"identifier_columns"`
	ProgramColumns    []string `yaml:"program_columns" json:"program_columns"`
	AvailablePrograms []string `yaml:"available_programs,omitempty" json:"available_programs,omitempty"`
}

// ExportIndex summarizes the current embedding index without its vectors
type ExportIndex struct {
	Model        string `yaml:"model" json:"model"`
	Dimension    int    `yaml:"dimension" json:"dimension"`
	GeneratedAt  string `yaml:"generated_at,omitempty" json:"generated_at,omitempty"`
	TotalRows    int    `yaml:"total_rows" json:"total_rows"`
	EmbeddedRows int    `yaml:"embedded_rows" json:"embedded_rows"`
	SkippedRows  int    `yaml:"skipped_rows" json:"skipped_rows"`
}

// SummarizeIndex builds the export view of index.
func SummarizeIndex(index *models.EmbeddingIndex) *ExportIndex {
	if index == nil {
		return nil
	}
	return &ExportIndex{
		Model:        index.ModelOrDefault(),
		Dimension:    index.Dimension,
		GeneratedAt:  index.GeneratedAt,
		TotalRows:    index.TotalRows,
		EmbeddedRows: index.EmbeddedRows,
		SkippedRows:  index.Skipped(),
	}
}

// Export gathers everything stored in the database.
func (s *Storage) Export(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "facultymatch",
	}

	meta, err := s.LoadMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	if meta != nil {
		data.DatasetPath = meta.DatasetPath
		data.Memberships = len(meta.Memberships)
		data.Analysis = &ExportAnalysis{
			EmbeddingColumns:  meta.Analysis.EmbeddingColumns,
			IdentifierColumns: meta.Analysis.IdentifierColumns,
			ProgramColumns:    meta.Analysis.ProgramColumns,
			AvailablePrograms: meta.Analysis.AvailablePrograms,
		}
	} else if path, err := s.DatasetPath(ctx); err == nil {
		data.DatasetPath = path
	}

	sel, err := s.LoadSelection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load column selection: %w", err)
	}
	if sel != nil {
		data.Selection = &ExportAnalysis{
			EmbeddingColumns:  sel.EmbeddingColumns,
			IdentifierColumns: sel.IdentifierColumns,
			ProgramColumns:    sel.ProgramColumns,
		}
	}

	builds, err := s.RecentBuilds(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	data.Builds = builds

	return data, nil
}

// WriteYAML writes data to outputPath as YAML.
func WriteYAML(data *ExportData, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return EncodeYAML(w, data)
	})
}

// EncodeYAML writes data to w as YAML.
func EncodeYAML(w io.Writer, data *ExportData) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteMarkdown writes data to outputPath as a Markdown report.
func WriteMarkdown(data *ExportData, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		RenderMarkdown(w, data)
		return nil
	})
}

// RenderMarkdown writes the Markdown report for data to w.
func RenderMarkdown(w io.Writer, data *ExportData) {
	_, _ = fmt.Fprintf(w, "# Faculty Match Export - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if data.DatasetPath != "" {
		_, _ = fmt.Fprintf(w, "- **Dataset:** %s\n", data.DatasetPath)
	}
	_, _ = fmt.Fprintf(w, "- **Memberships:** %d\n\n", data.Memberships)

	if data.Analysis != nil {
		_, _ = fmt.Fprintln(w, "## Column Roles")
		_, _ = fmt.Fprintln(w)
		writeRoles(w, data.Analysis)
		if len(data.Analysis.AvailablePrograms) > 0 {
			_, _ = fmt.Fprintf(w, "- **Programs:** %s\n", strings.Join(data.Analysis.AvailablePrograms, ", "))
		}
		_, _ = fmt.Fprintln(w)
	}

	if data.Selection != nil {
		_, _ = fmt.Fprintln(w, "## Saved Column Selection")
		_, _ = fmt.Fprintln(w)
		writeRoles(w, data.Selection)
		_, _ = fmt.Fprintln(w)
	}

	if data.Index != nil {
		_, _ = fmt.Fprintln(w, "## Embedding Index")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "- **Model:** %s\n", data.Index.Model)
		_, _ = fmt.Fprintf(w, "- **Dimension:** %d\n", data.Index.Dimension)
		_, _ = fmt.Fprintf(w, "- **Rows:** %d embedded of %d (%d skipped)\n",
			data.Index.EmbeddedRows, data.Index.TotalRows, data.Index.SkippedRows)
		if data.Index.GeneratedAt != "" {
			_, _ = fmt.Fprintf(w, "- **Generated:** %s\n", data.Index.GeneratedAt)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(data.Builds) > 0 {
		_, _ = fmt.Fprintln(w, "## Build History")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "| When | Model | Dimension | Embedded | Skipped |")
		_, _ = fmt.Fprintln(w, "|------|-------|-----------|----------|---------|")
		for _, b := range data.Builds {
			_, _ = fmt.Fprintf(w, "| %s | %s | %d | %d | %d |\n",
				b.CreatedAt.Format(time.RFC3339), b.Model, b.Dimension, b.EmbeddedRows, b.SkippedRows)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func writeRoles(w io.Writer, roles *ExportAnalysis) {
	_, _ = fmt.Fprintf(w, "- **Embedding:** %s\n", formatList(roles.EmbeddingColumns))
	_, _ = fmt.Fprintf(w, "- **Identifier:** %s\n", formatList(roles.IdentifierColumns))
	_, _ = fmt.Fprintf(w, "- **Program:** %s\n", formatList(roles.ProgramColumns))
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func formatList(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
