// Package capture models recorded HTTP traffic and reads it from HAR
// (HTTP Archive) files. Entries are immutable once decoded; their sequence
// index preserves the temporal order of the capture.
package capture

import (
	"net/url"
	"strings"
	"time"
)

// Header is one request header pair, original casing preserved.
type Header struct {
	Name  string
	Value string
}

// QueryPair is one query-string key/value pair in original order.
type QueryPair struct {
	Name  string
	Value string
}

// URL is a decomposed request URL.
type URL struct {
	Raw      string
	Scheme   string
	Host     string
	Path     string
	Segments []string // path segments, no empty leading segment
	Query    []QueryPair
}

// Body is a request or response payload with its declared content type.
type Body struct {
	Data        []byte
	ContentType string
}

// Entry is one recorded request/response pair.
type Entry struct {
	Seq        int // position in the capture
	StartedAt  time.Time
	Method     string // uppercase
	URL        URL
	ReqHeaders []Header
	Request    *Body // nil when the request carried no body
	Status     int
	Response   *Body // nil when the response carried no body
}

// StatusClass buckets an HTTP status code ("2xx", "4xx", ...).
func StatusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	}
	return "other"
}

// ParseURL decomposes a raw URL into its parts.
func ParseURL(raw string) (URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return URL{}, err
	}

	out := URL{
		Raw:    raw,
		Scheme: parsed.Scheme,
		Host:   strings.ToLower(parsed.Host),
		Path:   parsed.Path,
	}

	trimmed := strings.Trim(parsed.Path, "/")
	if trimmed != "" {
		out.Segments = strings.Split(trimmed, "/")
	}

	// Preserve query order; url.Values loses it.
	for _, part := range strings.Split(parsed.RawQuery, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		out.Query = append(out.Query, QueryPair{Name: name, Value: value})
	}

	return out, nil
}

// QueryNames returns the distinct query parameter names in first-seen order.
func (u URL) QueryNames() []string {
	seen := make(map[string]bool, len(u.Query))
	names := make([]string, 0, len(u.Query))
	for _, q := range u.Query {
		if !seen[q.Name] {
			seen[q.Name] = true
			names = append(names, q.Name)
		}
	}
	return names
}
