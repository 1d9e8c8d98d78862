// Package eml parses RFC 5322 messages into email documents. Multipart
// bodies prefer text/plain parts; HTML-only bodies are stripped to text.
package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/normalisers/html"
)

// MIMEType is the media type Extract handles.
const MIMEType = "message/rfc822"

// Parse reads a raw message. Missing headers are left empty; a message
// without a parseable Date keeps the zero time.
func Parse(raw []byte, source string) (domain.EmailMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.EmailMessage{}, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return domain.EmailMessage{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	body, err := extractBody(msg.Header, msg.Body)
	if err != nil {
		return domain.EmailMessage{}, err
	}

	out := domain.EmailMessage{
		Source:    source,
		MessageID: strings.Trim(strings.TrimSpace(msg.Header.Get("Message-Id")), "<>"),
		From:      decodeHeader(msg.Header.Get("From")),
		To:        decodeHeader(msg.Header.Get("To")),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		Body:      strings.TrimSpace(body),
	}
	if date, err := msg.Header.Date(); err == nil {
		out.Date = date
	}
	return out, nil
}

// Extract renders a message file as document text.
func Extract(data []byte) (string, error) {
	msg, err := Parse(data, "")
	if err != nil {
		return "", err
	}
	return msg.Text(), nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the input on failure.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func extractBody(h mail.Header, body io.Reader) (string, error) {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	content := decodeTransfer(h.Get("Content-Transfer-Encoding"), body)

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		data, readErr := io.ReadAll(content)
		if readErr != nil {
			return "", fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, readErr)
		}
		return string(data), nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(content, params["boundary"]), nil
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}
	if mediaType == html.MIMEType {
		return html.Strip(string(data)), nil
	}
	return string(data), nil
}

// extractMultipartBody walks parts recursively. Unreadable parts are skipped.
func extractMultipartBody(r io.Reader, boundary string) string {
	if boundary == "" {
		return ""
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "text/plain"
		}
		if isAttachment(part.Header.Get("Content-Disposition")) {
			part.Close()
			continue
		}

		// NextPart already strips quoted-printable encoding.
		content, readErr := io.ReadAll(decodeTransfer(part.Header.Get("Content-Transfer-Encoding"), part))
		part.Close()
		if readErr != nil {
			continue
		}

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, string(content))
		case mediaType == html.MIMEType:
			htmlParts = append(htmlParts, html.Strip(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested := extractMultipartBody(bytes.NewReader(content), params["boundary"]); nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n")
	}
	return strings.Join(htmlParts, "\n")
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func isAttachment(disposition string) bool {
	if disposition == "" {
		return false
	}
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}
