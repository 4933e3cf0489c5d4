// ABOUTME: Tests for document text extraction, path checks, and report formatting
// ABOUTME: Covers normalization, lossy decoding, DOCX parsing, and similarity rendering
package core

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/facultymatch/internal/errs"
)

func TestNormalizeDocumentText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf", "line one  \r\nline two\r\n", "line one\nline two"},
		{"bare cr", "a\rb", "a\nb"},
		{"bom and nul", "\ufeffhel\x00lo", "hello"},
		{"surrounding blank lines", "\n\n  text\t\n\n", "text"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDocumentText(tt.input); got != tt.want {
				t.Errorf("normalizeDocumentText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractDocument(t *testing.T) {
	dir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		path := writeFile(t, dir, "prompt.txt", "Interested in neuro.\r\n")
		out, err := ExtractDocument(path)
		if err != nil {
			t.Fatalf("ExtractDocument failed: %v", err)
		}
		if out.Text != "Interested in neuro." || len(out.Warnings) != 0 {
			t.Errorf("unexpected extraction %+v", out)
		}
	})

	t.Run("invalid utf8", func(t *testing.T) {
		path := writeFile(t, dir, "bad.txt", "caf\xe9 research")
		out, err := ExtractDocument(path)
		if err != nil {
			t.Fatalf("ExtractDocument failed: %v", err)
		}
		if len(out.Warnings) != 1 || out.Warnings[0] != invalidUTF8Warning {
			t.Errorf("expected decoding warning, got %v", out.Warnings)
		}
		if !strings.Contains(out.Text, "research") {
			t.Errorf("text lost: %q", out.Text)
		}
	})

	t.Run("docx", func(t *testing.T) {
		path := filepath.Join(dir, "essay.docx")
		writeDOCX(t, path, "immunology &amp; vaccines")
		out, err := ExtractDocument(path)
		if err != nil {
			t.Fatalf("ExtractDocument failed: %v", err)
		}
		if out.Text != "immunology & vaccines\nsecond\tparagraph" {
			t.Errorf("unexpected docx text %q", out.Text)
		}
	})

	t.Run("doc treated as text", func(t *testing.T) {
		path := writeFile(t, dir, "old.doc", "legacy text")
		out, err := ExtractDocument(path)
		if err != nil {
			t.Fatalf("ExtractDocument failed: %v", err)
		}
		if out.Text != "legacy text" || len(out.Warnings) != 1 || out.Warnings[0] != docAsTextWarning {
			t.Errorf("unexpected extraction %+v", out)
		}
	})

	t.Run("pdf", func(t *testing.T) {
		path := writeFile(t, dir, "paper.pdf", "%PDF-1.7 ...")
		if _, err := ExtractDocument(path); !errs.Is(err, errs.KindResource) {
			t.Errorf("expected resource error for pdf, got %v", err)
		}
	})

	t.Run("binary", func(t *testing.T) {
		path := filepath.Join(dir, "blob.bin")
		if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x81}, 0644); err != nil {
			t.Fatalf("failed to write blob: %v", err)
		}
		_, err := ExtractDocument(path)
		if !errs.Is(err, errs.KindResource) || !errors.Is(err, errUnsupportedFormat) {
			t.Errorf("expected unsupported format error, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := ExtractDocument(filepath.Join(dir, "missing.txt")); !errs.Is(err, errs.KindResource) {
			t.Errorf("expected resource error, got %v", err)
		}
	})
}

func TestValidateExtension(t *testing.T) {
	allowed := []string{"tsv", "txt"}
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/list.TSV", ""},
		{"/tmp/list.txt", ""},
		{"/tmp/list.json", "The selected roster uses '.json', which is outside the expected extensions: tsv, txt."},
		{"/tmp/list", "The selected roster does not include an extension. Confirm it is supported."},
	}
	for _, tt := range tests {
		if got := validateExtension(tt.path, allowed, "roster"); got != tt.want {
			t.Errorf("validateExtension(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := expandHome("~/data/faculty.tsv"); got != filepath.Join(home, "data", "faculty.tsv") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("~"); got != home {
		t.Errorf("expandHome(~) = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}

func TestFormatSimilarity(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{1, "100.0%"},
		{0.5, "50.0%"},
		{0, "0.0%"},
		{-0.25, "-25.0%"},
		{float32(math.NaN()), "n/a"},
		{float32(math.Inf(1)), "n/a"},
	}
	for _, tt := range tests {
		if got := FormatSimilarity(tt.in); got != tt.want {
			t.Errorf("FormatSimilarity(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScopeDescribe(t *testing.T) {
	tests := []struct {
		scope ScopeOptions
		want  string
	}{
		{ScopeOptions{}, "the complete faculty roster"},
		{ScopeOptions{Programs: []string{"A", "a"}}, "faculty filtered to 1 program"},
		{ScopeOptions{Programs: []string{"A", "B"}}, "faculty filtered to 2 programs"},
		{ScopeOptions{RosterPath: "r.tsv"}, "the provided faculty roster spreadsheet"},
	}
	for _, tt := range tests {
		if got := tt.scope.Describe(); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.scope, got, tt.want)
		}
	}
}
