// ABOUTME: Delimited-text table reader and writer for datasets and rosters
// ABOUTME: Sniffs tab, comma, or semicolon delimiters and aligns ragged rows
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/facultymatch/internal/errs"
)

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// PreviewRows is the row cap used when only a preview is needed.
const PreviewRows = 10

// ReadTable reads a TSV/CSV file. maxRows <= 0 reads every row.
func ReadTable(path string, maxRows int) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls", ".xlsm":
		return nil, errs.Resource(path, nil, "Excel workbooks are not supported; export the sheet as TSV or CSV")
	}

	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, errs.Resource(path, err, "Unable to open the spreadsheet")
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	delimiter, err := sniffDelimiter(br)
	if err != nil {
		return nil, errs.Resource(path, err, "Unable to inspect the spreadsheet")
	}

	table, err := parse(br, delimiter, maxRows)
	if err != nil {
		return nil, errs.Resource(path, err, "Unable to read the spreadsheet")
	}
	return table, nil
}

// ParseTable reads delimited text from r with a known delimiter.
func ParseTable(r io.Reader, delimiter rune, maxRows int) (*Table, error) {
	return parse(r, delimiter, maxRows)
}

func parse(r io.Reader, delimiter rune, maxRows int) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table := &Table{}
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\uFEFF")
			}
			table.Headers = record
			first = false
			continue
		}
		table.Rows = append(table.Rows, record)
		if maxRows > 0 && len(table.Rows) >= maxRows {
			break
		}
	}

	table.Align()
	return table, nil
}

// sniffDelimiter peeks at the first non-blank lines and picks the most
// frequent of tab, comma, and semicolon, defaulting to tab.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	peek, err := br.Peek(64 * 1024)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, err
	}

	lines := strings.Split(string(peek), "\n")
	checked := 0
	for _, line := range lines {
		if checked >= 5 {
			break
		}
		checked++
		if strings.TrimSpace(line) == "" {
			continue
		}
		best, bestCount := '\t', 0
		for _, d := range []rune{'\t', ',', ';'} {
			if n := strings.Count(line, string(d)); n > bestCount {
				best, bestCount = d, n
			}
		}
		if bestCount > 0 {
			return best, nil
		}
	}
	return '\t', nil
}

// Align pads or truncates every row, and pads the header row, to the widest row.
func (t *Table) Align() {
	width := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(t.Headers) < width {
		t.Headers = append(t.Headers, "")
	}
	for i, row := range t.Rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		case len(row) > width:
			t.Rows[i] = row[:width]
		}
	}
}

// Row returns the data row at index, or nil when out of range.
func (t *Table) Row(index int) []string {
	if index < 0 || index >= len(t.Rows) {
		return nil
	}
	return t.Rows[index]
}

// WriteTSV writes headers and rows as tab-separated text to path.
func WriteTSV(path string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Resource(path, err, "Unable to create the output directory")
	}
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return errs.Resource(path, err, "Unable to create the output file")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(headers); err != nil {
		_ = f.Close()
		return errs.Resource(path, err, "Unable to write the output file")
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return errs.Resource(path, err, "Unable to write the output file")
	}
	if err := f.Close(); err != nil {
		return errs.Resource(path, err, "Unable to finish writing the output file")
	}
	return nil
}

func (t *Table) String() string {
	return fmt.Sprintf("table(%d columns, %d rows)", len(t.Headers), len(t.Rows))
}
