// ABOUTME: Tests for text normalization helpers
// ABOUTME: Covers folding, identifier normalization, dedupe, and previews
package util

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeIdentifierValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Ada   LOVELACE ", "ada lovelace"},
		{"\tgrace\nhopper", "grace hopper"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeIdentifierValue(tt.in); got != tt.want {
			t.Errorf("NormalizeIdentifierValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdentifierLabel(t *testing.T) {
	if got := NormalizeIdentifierLabel("E-mail Address"); got != "emailaddress" {
		t.Errorf("NormalizeIdentifierLabel() = %q, want emailaddress", got)
	}
	if got := NormalizeIdentifierLabel("Net ID #2"); got != "netid2" {
		t.Errorf("NormalizeIdentifierLabel() = %q, want netid2", got)
	}
}

func TestDedupeFold(t *testing.T) {
	got := DedupeFold([]string{" Neuroscience", "neuroscience ", "", "  ", "Immunology", "IMMUNOLOGY"})
	want := []string{"Neuroscience", "Immunology"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupeFold() = %v, want %v", got, want)
	}
}

func TestFoldKey(t *testing.T) {
	if FoldKey("  Research Interests ") != FoldKey("research interests") {
		t.Error("FoldKey should ignore case and surrounding space")
	}
}

func TestCleanText(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	got := CleanText("  cafe\u0301 \xff ")
	if got != "caf\u00e9" {
		t.Errorf("CleanText() = %q, want %q", got, "caf\u00e9")
	}
}

func TestJoinParagraphs(t *testing.T) {
	got := JoinParagraphs([]string{" a ", "", "b", "   "})
	if got != "a\n\nb" {
		t.Errorf("JoinParagraphs() = %q", got)
	}
}

func TestPreview(t *testing.T) {
	short := "short prompt"
	if Preview(short) != short {
		t.Error("short text should be unchanged")
	}

	long := strings.Repeat("é", PreviewLimit+10)
	got := Preview(long)
	if len([]rune(got)) != PreviewLimit+1 || !strings.HasSuffix(got, "…") {
		t.Errorf("Preview() length = %d runes", len([]rune(got)))
	}
}

func TestPlural(t *testing.T) {
	if Plural(1, "row", "rows") != "row" || Plural(2, "row", "rows") != "rows" {
		t.Error("Plural() picked the wrong form")
	}
}
