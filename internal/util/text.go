// ABOUTME: Text normalization helpers for labels, identifiers, and embedding input
// ABOUTME: Case folding and NFC normalization come from golang.org/x/text
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PreviewLimit is the maximum rune length of a prompt preview.
const PreviewLimit = 280

// FoldKey trims s and case-folds it for case-insensitive comparison.
// A new Caser is built per call since Casers are not goroutine safe.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NormalizeIdentifierValue collapses internal whitespace and case-folds.
func NormalizeIdentifierValue(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// NormalizeIdentifierLabel keeps only letters and digits, case-folded.
func NormalizeIdentifierLabel(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return cases.Fold().String(b.String())
}

// DedupeFold trims values, drops blanks, and removes case-insensitive
// duplicates while keeping the first spelling and the original order.
func DedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := FoldKey(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// CleanText prepares free text for embedding: invalid UTF-8 is dropped,
// the result is NFC-normalized and trimmed.
func CleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(strings.ToValidUTF8(s, "")))
}

// JoinParagraphs joins the trimmed non-empty parts with a blank line.
func JoinParagraphs(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n\n")
}

// Preview shortens text to PreviewLimit runes, marking the cut with an ellipsis.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return text
	}
	return string(runes[:PreviewLimit]) + "…"
}

// Plural picks the singular or plural form for n.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
