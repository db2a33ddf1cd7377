// Package ingest turns uploaded or imported files into documents: kind
// sniffing by extension, PDF text extraction, and placeholder text for binary
// office formats that cannot be parsed as text.
package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"synapsesync/pkg/domain"
)

// FromUpload builds a new document from an uploaded file. The document
// starts with an empty version list and full materialization; persistence is
// the caller's job.
func FromUpload(ownerID, filename string, data []byte, now time.Time) domain.Document {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return domain.Document{
		ID:              uuid.NewString(),
		Title:           filepath.Base(filename),
		Kind:            KindForExtension(ext),
		OwnerID:         ownerID,
		CurrentContent:  extractContent(filename, ext, data),
		LastUpdated:     now.UTC(),
		Versions:        []domain.Version{},
		Materialization: domain.MaterializationFull,
	}
}

// KindForExtension sniffs the document kind from a file extension.
func KindForExtension(ext string) domain.DocumentKind {
	switch ext {
	case "csv", "xls", "xlsx":
		return domain.KindSheet
	case "txt", "md", "json", "log":
		return domain.KindText
	default:
		return domain.KindDoc
	}
}

func extractContent(filename, ext string, data []byte) string {
	switch ext {
	case "pdf":
		if text, err := extractPDFText(data); err == nil {
			return text
		}
		return placeholder(filename, ext)
	case "doc", "docx", "xls", "xlsx":
		// Binary office formats are not parsed; readers get a stand-in.
		return placeholder(filename, ext)
	default:
		if !utf8.Valid(data) {
			return placeholder(filename, ext)
		}
		return string(data)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return out, nil
}

func placeholder(filename, ext string) string {
	return fmt.Sprintf("[Binary content extracted from %s]\n\nThe original %s file could not be read as text. This placeholder represents its content.",
		filepath.Base(filename), strings.ToUpper(ext))
}
