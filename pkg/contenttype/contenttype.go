// Package contenttype classifies HTTP content-type header values.
package contenttype

import (
	"mime"
	"strings"
	"unicode/utf8"
)

// Category is a broad content classification.
type Category string

const (
	JSON   Category = "json"
	XML    Category = "xml"
	HTML   Category = "html"
	Form   Category = "form"
	Text   Category = "text"
	Binary Category = "binary"
)

// Classify maps a content-type header value to a broad category.
// Parameters (charset, boundary) are stripped before matching; malformed
// values fall back to a lowercase substring match. Empty input is Binary.
func Classify(contentType string) Category {
	if contentType == "" {
		return Binary
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case strings.Contains(mediaType, "json"):
		// application/json, application/vnd.*+json, text/json
		return JSON
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return HTML
	case strings.Contains(mediaType, "xml"):
		return XML
	case mediaType == "application/x-www-form-urlencoded":
		return Form
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	}
	return Binary
}

// IsJSON reports whether the content type indicates a JSON body.
func IsJSON(contentType string) bool {
	return Classify(contentType) == JSON
}

// IsBinary reports whether the body should be treated as binary. When the
// content type is empty or unrecognized the data itself is checked for
// valid UTF-8.
func IsBinary(contentType string, data []byte) bool {
	switch Classify(contentType) {
	case JSON, XML, HTML, Form, Text:
		return false
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "javascript") || strings.Contains(ct, "css") {
		return false
	}
	if ct == "" {
		return !utf8.Valid(data)
	}
	return true
}
