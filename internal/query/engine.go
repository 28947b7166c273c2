// Package query runs jq expressions over the JSON bodies of captured
// traffic. It is the exploratory counterpart to consolidation: instead of
// inferring shapes it extracts concrete values, across many entries at
// once, with per-entry labels in error output.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/harmodel/internal/cache"
	"github.com/usestring/harmodel/pkg/capture"
	"github.com/usestring/harmodel/pkg/contenttype"
)

// Engine compiles and executes jq expressions.
type Engine struct {
	bodies *cache.BodyCache
}

// NewEngine creates an engine. The body cache is optional; when present,
// parsed bodies are shared with consolidation instead of re-decoded.
func NewEngine(bodies *cache.BodyCache) *Engine {
	return &Engine{bodies: bodies}
}

// Options tunes a query run.
type Options struct {
	// Deduplicate drops values already emitted by an earlier entry.
	Deduplicate bool

	// MaxResults stops the run once this many values are collected
	// (0 = unlimited).
	MaxResults int

	// Requests queries request bodies instead of response bodies.
	Requests bool
}

// Result is the outcome of running one expression over a set of entries.
type Result struct {
	Values []any `json:"values"`

	// Errors holds per-entry problems (malformed JSON, jq runtime errors).
	// Errors never abort the run.
	Errors []string `json:"errors,omitempty"`

	// RawCount is the number of values produced before deduplication.
	RawCount int `json:"raw_count"`

	// Matched lists the sequence numbers of entries that produced at
	// least one value, in capture order.
	Matched []int `json:"matched,omitempty"`
}

// Compile parses and compiles an expression without running it.
func Compile(expression string) (*gojq.Code, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at offset %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compiling jq expression: %w", err)
	}
	return code, nil
}

// Run executes the expression against the selected side of every entry.
// Entries without a parseable JSON body are reported in Errors or silently
// skipped when they carry no body at all.
func (e *Engine) Run(entries []capture.Entry, expression string, opts Options) (*Result, error) {
	code, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	res := &Result{Values: make([]any, 0)}
	seen := make(map[string]bool)
	seenErrors := make(map[string]bool)

	side := cache.SideResponse
	if opts.Requests {
		side = cache.SideRequest
	}

	for i := range entries {
		if opts.MaxResults > 0 && len(res.Values) >= opts.MaxResults {
			break
		}
		entry := &entries[i]
		label := entryLabel(entry)

		input, ok, decodeErr := e.decode(entry, side)
		if decodeErr != nil {
			msg := fmt.Sprintf("%s: invalid JSON: %v", label, decodeErr)
			if !seenErrors[msg] {
				res.Errors = append(res.Errors, msg)
				seenErrors[msg] = true
			}
			continue
		}
		if !ok {
			continue
		}

		matched := false
		iter := code.Run(input)
		for {
			if opts.MaxResults > 0 && len(res.Values) >= opts.MaxResults {
				break
			}
			v, more := iter.Next()
			if !more {
				break
			}
			if err, isErr := v.(error); isErr {
				msg := formatRunError(label, err)
				if !seenErrors[msg] {
					res.Errors = append(res.Errors, msg)
					seenErrors[msg] = true
				}
				continue
			}
			if v == nil {
				continue
			}

			res.RawCount++
			matched = true

			if opts.Deduplicate {
				key := valueKey(v)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			res.Values = append(res.Values, v)
		}
		if matched {
			res.Matched = append(res.Matched, entry.Seq)
		}
	}

	return res, nil
}

// decode returns the parsed JSON body for one side of an entry. The bool
// is false when the entry has no JSON body to query; the error is non-nil
// only for bodies that claim to be JSON but do not parse.
func (e *Engine) decode(entry *capture.Entry, side cache.Side) (any, bool, error) {
	var body *capture.Body
	if side == cache.SideRequest {
		body = entry.Request
	} else {
		body = entry.Response
	}
	if body == nil || len(body.Data) == 0 {
		return nil, false, nil
	}
	if body.ContentType != "" && !contenttype.IsJSON(body.ContentType) {
		return nil, false, nil
	}

	if e.bodies != nil {
		if v, ok := e.bodies.Get(entry.Seq, side); ok {
			return v, true, nil
		}
	}

	var v any
	if err := json.Unmarshal(body.Data, &v); err != nil {
		return nil, false, err
	}
	if e.bodies != nil {
		e.bodies.Put(entry.Seq, side, v)
	}
	return v, true, nil
}

// entryLabel identifies an entry in error output, e.g. "GET /users/1 #3".
func entryLabel(e *capture.Entry) string {
	return e.Method + " " + e.URL.Path + " #" + strconv.Itoa(e.Seq)
}

// formatRunError decorates a jq runtime error with a hint for the common
// mistakes. gojq reports these as plain errors, so the hints are matched
// on message text; they only affect display, never control flow.
func formatRunError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	msg := err.Error()
	var hint string
	switch {
	case strings.Contains(msg, "cannot iterate over: null"):
		hint = " (the path may not exist in this body)"
	case strings.Contains(msg, "cannot index") && strings.Contains(msg, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(msg, "object") && strings.Contains(msg, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(msg, "array") && strings.Contains(msg, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}
	return fmt.Sprintf("%s: %s%s", label, msg, hint)
}

// valueKey builds a deduplication key. Scalars key on their value
// directly; composites fall back to their JSON encoding.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
