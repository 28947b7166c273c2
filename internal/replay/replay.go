// Package replay re-sends captured entries against a live server and
// compares the returned status with the recorded one. It asserts nothing
// beyond the status: body differences are a consumer concern.
package replay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/harmodel/pkg/capture"
)

// hop-by-hop and connection-managed headers are never forwarded.
var skipHeaders = map[string]bool{
	"connection":          true,
	"proxy-connection":    true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
	"upgrade":             true,
	"host":                true,
	"content-length":      true,
}

// Options tunes a replay run.
type Options struct {
	// BaseURL overrides the captured scheme and host. Empty replays
	// against the original URLs.
	BaseURL string

	// Workers bounds concurrent in-flight requests.
	Workers int

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

const (
	defaultWorkers = 8
	defaultTimeout = 30 * time.Second
)

// RequestResult is the outcome of replaying one entry.
type RequestResult struct {
	Seq            int    `json:"seq"`
	Method         string `json:"method"`
	URL            string `json:"url"`
	ExpectedStatus int    `json:"expected_status"`
	Status         int    `json:"status,omitempty"`
	LatencyMs      int64  `json:"latency_ms"`
	Match          bool   `json:"match"`
	Error          string `json:"error,omitempty"`
}

// RunResult aggregates one replay run. Results stay in capture order.
type RunResult struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMs int64           `json:"duration_ms"`
	Results    []RequestResult `json:"results"`
	Matched    int             `json:"matched"`
	Mismatched int             `json:"mismatched"`
	Failed     int             `json:"failed"`
}

// Replayer replays capture entries.
type Replayer struct {
	opts   Options
	client *http.Client
}

// New creates a replayer.
func New(opts Options) *Replayer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Replayer{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
	}
}

// Run replays the entries with bounded concurrency. Individual request
// failures are recorded, not returned; the error is non-nil only when the
// context is cancelled.
func (r *Replayer) Run(ctx context.Context, entries []capture.Entry) (*RunResult, error) {
	workers := r.opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	run := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]RequestResult, len(entries)),
	}
	slog.Info("replay run starting", "run_id", run.RunID, "entries", len(entries), "workers", workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run.Results[i] = r.replayOne(ctx, &entries[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("replay run %s: %w", run.RunID, err)
	}

	for _, res := range run.Results {
		switch {
		case res.Error != "":
			run.Failed++
		case res.Match:
			run.Matched++
		default:
			run.Mismatched++
		}
	}
	run.DurationMs = time.Since(run.StartedAt).Milliseconds()
	slog.Info("replay run finished",
		"run_id", run.RunID,
		"matched", run.Matched, "mismatched", run.Mismatched, "failed", run.Failed)
	return run, nil
}

func (r *Replayer) replayOne(ctx context.Context, entry *capture.Entry) RequestResult {
	result := RequestResult{
		Seq:            entry.Seq,
		Method:         entry.Method,
		URL:            r.targetURL(entry),
		ExpectedStatus: entry.Status,
	}

	req, err := r.buildRequest(ctx, entry, result.URL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		slog.Debug("draining replay response", "seq", entry.Seq, "error", err)
	}

	result.Status = resp.StatusCode
	result.Match = resp.StatusCode == entry.Status
	return result
}

// targetURL rebuilds the request URL, substituting the base override when
// configured. Query order follows the capture.
func (r *Replayer) targetURL(entry *capture.Entry) string {
	var sb strings.Builder
	if r.opts.BaseURL != "" {
		sb.WriteString(strings.TrimRight(r.opts.BaseURL, "/"))
	} else {
		sb.WriteString(entry.URL.Scheme)
		sb.WriteString("://")
		sb.WriteString(entry.URL.Host)
	}
	sb.WriteString(entry.URL.Path)

	for i, q := range entry.URL.Query {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(q.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(q.Value))
	}
	return sb.String()
}

func (r *Replayer) buildRequest(ctx context.Context, entry *capture.Entry, target string) (*http.Request, error) {
	var body io.Reader
	if entry.Request != nil && len(entry.Request.Data) > 0 {
		body = bytes.NewReader(entry.Request.Data)
	}

	req, err := http.NewRequestWithContext(ctx, entry.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request for entry %d: %w", entry.Seq, err)
	}

	for _, h := range entry.ReqHeaders {
		if skipHeaders[strings.ToLower(h.Name)] {
			continue
		}
		req.Header.Add(h.Name, h.Value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" && entry.Request.ContentType != "" {
		req.Header.Set("Content-Type", entry.Request.ContentType)
	}
	return req, nil
}
