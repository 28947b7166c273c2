package replay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/harmodel/pkg/capture"
)

func entryFor(t *testing.T, method, rawURL string, status int) capture.Entry {
	t.Helper()
	u, err := capture.ParseURL(rawURL)
	require.NoError(t, err)
	return capture.Entry{Method: method, URL: u, Status: status}
}

func TestRun_StatusComparison(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	entries := []capture.Entry{
		entryFor(t, "GET", "https://orig.test/users", 200),
		entryFor(t, "GET", "https://orig.test/missing", 404),
		entryFor(t, "GET", "https://orig.test/users", 500), // recorded 500, live 200
	}
	for i := range entries {
		entries[i].Seq = i
	}

	run, err := New(Options{BaseURL: srv.URL}).Run(context.Background(), entries)
	require.NoError(t, err)

	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 2, run.Matched)
	assert.Equal(t, 1, run.Mismatched)
	assert.Equal(t, 0, run.Failed)

	require.Len(t, run.Results, 3)
	assert.True(t, run.Results[0].Match)
	assert.Equal(t, 200, run.Results[0].Status)
	assert.False(t, run.Results[2].Match)
	assert.Equal(t, 500, run.Results[2].ExpectedStatus)
}

func TestRun_DistinctRunIDs(t *testing.T) {
	r := New(Options{})
	a, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_ForwardsBodyAndHeaders(t *testing.T) {
	var gotBody atomic.Value
	var gotHeader atomic.Value
	var gotConnHeader atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		gotHeader.Store(r.Header.Get("X-Api-Key"))
		gotConnHeader.Store(r.Header.Get("Proxy-Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	entry := entryFor(t, "POST", "https://orig.test/users", 201)
	entry.ReqHeaders = []capture.Header{
		{Name: "X-Api-Key", Value: "secret"},
		{Name: "Proxy-Authorization", Value: "Basic x"},
		{Name: "Connection", Value: "keep-alive"},
	}
	entry.Request = &capture.Body{Data: []byte(`{"name":"a"}`), ContentType: "application/json"}

	run, err := New(Options{BaseURL: srv.URL}).Run(context.Background(), []capture.Entry{entry})
	require.NoError(t, err)
	require.Equal(t, 1, run.Matched)

	assert.Equal(t, `{"name":"a"}`, gotBody.Load())
	assert.Equal(t, "secret", gotHeader.Load())
	assert.Equal(t, "", gotConnHeader.Load(), "hop-by-hop headers are dropped")
}

func TestRun_QueryPreserved(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
	}))
	defer srv.Close()

	entry := entryFor(t, "GET", "https://orig.test/search?q=hello+world&page=2", 200)
	_, err := New(Options{BaseURL: srv.URL}).Run(context.Background(), []capture.Entry{entry})
	require.NoError(t, err)
	assert.Equal(t, "q=hello+world&page=2", gotQuery.Load())
}

func TestRun_ConnectionFailureRecorded(t *testing.T) {
	entry := entryFor(t, "GET", "http://127.0.0.1:1/nothing", 200)

	run, err := New(Options{Timeout: time.Second}).Run(context.Background(), []capture.Entry{entry})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)
	assert.NotEmpty(t, run.Results[0].Error)
	assert.False(t, run.Results[0].Match)
}

func TestRun_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
	}))
	defer srv.Close()

	entries := make([]capture.Entry, 12)
	for i := range entries {
		entries[i] = entryFor(t, "GET", "https://orig.test/x", 200)
		entries[i].Seq = i
	}

	_, err := New(Options{BaseURL: srv.URL, Workers: 2}).Run(context.Background(), entries)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []capture.Entry{entryFor(t, "GET", "https://orig.test/x", 200)}
	_, err := New(Options{}).Run(ctx, entries)
	require.Error(t, err)
}

func TestTargetURL_OriginalWhenNoOverride(t *testing.T) {
	r := New(Options{})
	entry := entryFor(t, "GET", "https://api.example.com/users/1?x=1", 200)
	assert.Equal(t, "https://api.example.com/users/1?x=1", r.targetURL(&entry))
}
