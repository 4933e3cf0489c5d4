// ABOUTME: Plain text and Word document extraction for document prompts
// ABOUTME: Normalizes line endings and reports lossy decoding as warnings
package core

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/harper/facultymatch/internal/errs"
)

var documentExtensions = []string{"txt", "md", "pdf", "doc", "docx"}

const (
	invalidUTF8Warning = "The document contained invalid UTF-8 characters. Some characters were replaced during decoding."
	docAsTextWarning   = "The .doc file was treated as plain text. Save the document as .docx if formatting is important."
)

// Extraction is the normalized text of a document plus decoding warnings.
type Extraction struct {
	Text     string
	Warnings []string
}

// ExtractDocument reads path and returns its text. The format is chosen by
// extension, falling back to content sniffing for unknown extensions.
func ExtractDocument(path string) (*Extraction, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errs.Resource(path, err, "Unable to read document")
	}

	out := &Extraction{}
	var raw string
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "txt", "md", "text":
		raw = decodeText(data, out)
	case "docx":
		raw, err = extractDOCX(data)
	case "pdf":
		err = errPDFUnsupported
	case "doc":
		switch {
		case looksLikeDOCX(data):
			raw, err = extractDOCX(data)
		case looksLikePDF(data):
			err = errPDFUnsupported
		default:
			out.Warnings = append(out.Warnings, docAsTextWarning)
			raw = decodeText(data, out)
		}
	default:
		switch {
		case looksLikePDF(data):
			err = errPDFUnsupported
		case looksLikeDOCX(data):
			raw, err = extractDOCX(data)
		case utf8.Valid(data):
			raw = string(data)
		default:
			err = errUnsupportedFormat
		}
	}
	if err != nil {
		return nil, errs.Resource(path, err, "Unable to extract text from the document")
	}

	out.Text = normalizeDocumentText(raw)
	return out, nil
}

var (
	errPDFUnsupported    = errors.New("PDF text extraction is not available; save the document as .docx or plain text")
	errUnsupportedFormat = errors.New("the document format is not supported; provide a Word document or plain text file")
)

func decodeText(data []byte, out *Extraction) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out.Warnings = append(out.Warnings, invalidUTF8Warning)
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

func normalizeDocumentText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\f\v")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func looksLikePDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func looksLikeDOCX(data []byte) bool {
	return len(data) > 4 && bytes.HasPrefix(data, []byte("PK"))
}

// extractDOCX collects paragraph text from word/document.xml.
func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var body *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("the archive has no word/document.xml part")
	}

	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		paragraphs = append(paragraphs, s)
	}
	return strings.Join(paragraphs, "\n"), nil
}
