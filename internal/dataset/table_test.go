// ABOUTME: Tests for the delimited-text table reader
// ABOUTME: Covers delimiter sniffing, row caps, alignment, and unsupported files
package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/harper/facultymatch/internal/errs"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestReadTable_Delimiters(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"tabs", "Name\tEmail\nAda\tada@x.edu\n"},
		{"commas", "Name,Email\nAda,ada@x.edu\n"},
		{"semicolons", "Name;Email\nAda;ada@x.edu\n"},
		{"leading blank line", "\nName,Email\nAda,ada@x.edu\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "data.tsv", tt.content)
			table, err := ReadTable(path, 0)
			if err != nil {
				t.Fatalf("ReadTable() error = %v", err)
			}
			if !reflect.DeepEqual(table.Headers, []string{"Name", "Email"}) {
				t.Errorf("Headers = %q", table.Headers)
			}
			if len(table.Rows) != 1 || table.Rows[0][1] != "ada@x.edu" {
				t.Errorf("Rows = %q", table.Rows)
			}
		})
	}
}

func TestReadTable_MaxRowsAndAlignment(t *testing.T) {
	content := "\uFEFFA\tB\n1\n2\t3\t4\n5\t6\n"
	path := writeFile(t, "data.txt", content)

	table, err := ReadTable(path, 2)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}
	if !reflect.DeepEqual(table.Headers, []string{"A", "B", ""}) {
		t.Errorf("Headers = %q", table.Headers)
	}
	if !reflect.DeepEqual(table.Rows[0], []string{"1", "", ""}) {
		t.Errorf("Rows[0] = %q", table.Rows[0])
	}
}

func TestReadTable_Errors(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "missing.tsv"), 0)
	if !errs.Is(err, errs.KindResource) {
		t.Errorf("missing file error kind = %v, want resource", errs.KindOf(err))
	}

	path := writeFile(t, "book.xlsx", "binary")
	_, err = ReadTable(path, 0)
	if !errs.Is(err, errs.KindResource) || !strings.Contains(err.Error(), "book.xlsx") {
		t.Errorf("xlsx error = %v", err)
	}
}

func TestTable_Row(t *testing.T) {
	table := &Table{Headers: []string{"a"}, Rows: [][]string{{"x"}}}
	if table.Row(0)[0] != "x" || table.Row(1) != nil || table.Row(-1) != nil {
		t.Error("Row() returned unexpected values")
	}
}

func TestWriteTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "matches.tsv")
	if err := WriteTSV(path, []string{"a", "b"}, [][]string{{"1", "two words"}}); err != nil {
		t.Fatalf("WriteTSV() error = %v", err)
	}
	table, err := ReadTable(path, 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if table.Rows[0][1] != "two words" {
		t.Errorf("round trip row = %q", table.Rows[0])
	}
}
