package capture

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// HAR wire format, the subset this reader consumes.

type harFile struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Entries []harEntry `json:"entries"`
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harRequest struct {
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	Headers     []harNVP     `json:"headers"`
	QueryString []harNVP     `json:"queryString"`
	PostData    *harPostData `json:"postData"`
}

type harPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type harResponse struct {
	Status  int         `json:"status"`
	Headers []harNVP    `json:"headers"`
	Content *harContent `json:"content"`
}

type harContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding"`
}

type harNVP struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ReadFile reads a HAR capture from disk.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a HAR document into the ordered entry sequence. Entries
// with unparseable URLs are dropped with a debug log; a malformed document
// as a whole is an error.
func Decode(r io.Reader) ([]Entry, error) {
	var doc harFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding HAR: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Log.Entries))
	for i, raw := range doc.Log.Entries {
		u, err := ParseURL(raw.Request.URL)
		if err != nil {
			slog.Debug("skipping entry with unparseable URL", "index", i, "url", raw.Request.URL, "error", err)
			continue
		}

		entry := Entry{
			Seq:    len(entries),
			Method: strings.ToUpper(raw.Request.Method),
			URL:    u,
			Status: raw.Response.Status,
		}

		if raw.StartedDateTime != "" {
			if ts, err := time.Parse(time.RFC3339Nano, raw.StartedDateTime); err == nil {
				entry.StartedAt = ts
			}
		}

		for _, h := range raw.Request.Headers {
			entry.ReqHeaders = append(entry.ReqHeaders, Header{Name: h.Name, Value: h.Value})
		}

		if pd := raw.Request.PostData; pd != nil && pd.Text != "" {
			entry.Request = &Body{
				Data:        []byte(pd.Text),
				ContentType: firstNonEmpty(pd.MimeType, headerValue(raw.Request.Headers, "content-type")),
			}
		}

		if c := raw.Response.Content; c != nil && c.Text != "" {
			data := []byte(c.Text)
			if strings.EqualFold(c.Encoding, "base64") {
				decoded, err := base64.StdEncoding.DecodeString(c.Text)
				if err != nil {
					slog.Debug("skipping undecodable response body", "index", i, "error", err)
					data = nil
				} else {
					data = decoded
				}
			}
			if data != nil {
				entry.Response = &Body{
					Data:        data,
					ContentType: firstNonEmpty(c.MimeType, headerValue(raw.Response.Headers, "content-type")),
				}
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func headerValue(headers []harNVP, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
