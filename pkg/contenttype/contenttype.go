// Package contenttype classifies the Content-Type of downloaded documents.
package contenttype

import (
	"mime"
	"strings"
)

// Category represents a broad content-type classification.
type Category string

const (
	PDF    Category = "pdf"
	DOCX   Category = "docx"
	HTML   Category = "html"
	JSON   Category = "json"
	Text   Category = "text"
	Binary Category = "binary"
)

const docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Classify returns the broad content category for a content-type header value.
// Uses mime.ParseMediaType to strip parameters (charset, boundary, etc.)
// before matching. Falls back to strings.ToLower for malformed values.
// Returns Binary for empty content-type strings.
func Classify(contentType string) Category {
	if contentType == "" {
		return Binary
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case strings.Contains(mediaType, "pdf"):
		return PDF
	case mediaType == docxMediaType, mediaType == "application/msword":
		return DOCX
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return HTML
	case strings.Contains(mediaType, "json"):
		return JSON
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	}

	// octet-stream, zip and anything unknown
	return Binary
}

// Matches reports whether contentType is plausible for a document with the
// given extension. Generic binary types match every extension because the
// portal often serves documents as application/octet-stream.
func Matches(contentType, ext string) bool {
	switch Classify(contentType) {
	case Binary:
		return true
	case PDF:
		return ext == string(PDF)
	case DOCX:
		return ext == string(DOCX)
	default:
		return false
	}
}

// IsErrorPage reports whether contentType looks like a rendered page or API
// error rather than a document.
func IsErrorPage(contentType string) bool {
	switch Classify(contentType) {
	case HTML, JSON, Text:
		return true
	}
	return false
}
