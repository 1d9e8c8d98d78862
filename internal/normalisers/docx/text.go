// Package docx extracts paragraph text from Office Open XML word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// MIMEType is the media type Extract handles.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Extract returns the document title, when set in the core properties,
// followed by one line per paragraph.
func Extract(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a zip archive", domain.ErrInvalidInput)
	}

	raw, err := readPart(reader, documentPart)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, documentPart)
	}
	body := parseDocumentXML(raw)

	title := extractTitle(reader)
	if title == "" || strings.HasPrefix(body, title) {
		return body, nil
	}
	if body == "" {
		return title, nil
	}
	return title + "\n\n" + body, nil
}

// readPart returns nil, nil when the archive has no such part.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s", domain.ErrInvalidInput, name)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s", domain.ErrInvalidInput, name)
		}
		return content, nil
	}
	return nil, nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins runs within a paragraph and paragraphs with newlines.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, text := range r.Text {
				result.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(result.String())
}

type coreXML struct {
	Title string `xml:"title"`
}

func extractTitle(reader *zip.Reader) string {
	raw, err := readPart(reader, corePart)
	if err != nil || raw == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(raw, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
