// Package consolidate turns a flat capture into a deduplicated set of
// parameterized endpoints with inferred request/response shapes. It is a
// pure batch transform: one invocation owns its accumulators, and the same
// input sequence always yields the same endpoints in the same order.
package consolidate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/usestring/harmodel/internal/cache"
	"github.com/usestring/harmodel/internal/registry"
	"github.com/usestring/harmodel/pkg/capture"
	"github.com/usestring/harmodel/pkg/contenttype"
	"github.com/usestring/harmodel/pkg/typetree"
)

// PathParam is a named placeholder in a path template.
type PathParam struct {
	Name     string
	Position int // segment index
}

// QueryParam is a query key observed on an endpoint. Required means it was
// present on every entry in the group.
type QueryParam struct {
	Name     string
	Required bool
}

// Endpoint is one consolidated logical operation.
type Endpoint struct {
	ID           string
	Method       string
	PathTemplate string
	PathParams   []PathParam
	QueryParams  []QueryParam

	// RequestBody is the inferred request shape, nil when no entry in the
	// group carried a request body.
	RequestBody *typetree.Tree

	// Responses maps status class ("2xx", "4xx", ...) to the inferred
	// response shape for that class. Classes never merge: a 200 body and
	// a 404 body keep separate shapes.
	Responses map[string]*typetree.Tree

	// Examples holds entry sequence numbers kept for documentation and
	// replay, spread across the group.
	Examples []int

	Count         int
	StatusProfile map[string]int // status class -> entry count
}

// Result is the output of one consolidation run.
type Result struct {
	Endpoints []*Endpoint
	Models    *registry.Registry
}

// Consolidator groups capture entries into endpoints.
type Consolidator struct {
	opts   Options
	bodies *cache.BodyCache
}

// New creates a consolidator. The body cache is optional.
func New(opts Options, bodies *cache.BodyCache) *Consolidator {
	return &Consolidator{opts: opts, bodies: bodies}
}

// Consolidate processes the full entry sequence. Endpoints come out in
// order of first occurrence; model identifiers are assigned in that same
// order, so identical inputs produce identical outputs.
func (c *Consolidator) Consolidate(entries []capture.Entry) *Result {
	byLen := make(map[string][]*group)
	var groups []*group

	entryBySeq := make(map[int]*capture.Entry, len(entries))
	for i := range entries {
		e := &entries[i]
		entryBySeq[e.Seq] = e

		key := e.Method + "/" + strconv.Itoa(len(e.URL.Segments))
		var admitted *group
		for _, g := range byLen[key] {
			if g.admit(e.URL.Segments, c.opts) {
				admitted = g
				break
			}
		}
		if admitted == nil {
			admitted = newGroup(e.Method, e.URL.Segments, c.opts)
			byLen[key] = append(byLen[key], admitted)
			groups = append(groups, admitted)
		}
		admitted.entries = append(admitted.entries, e.Seq)
	}

	reg := registry.New()
	endpoints := make([]*Endpoint, 0, len(groups))
	for _, g := range groups {
		endpoints = append(endpoints, c.buildEndpoint(g, entryBySeq, reg))
	}

	return &Result{Endpoints: endpoints, Models: reg}
}

func (c *Consolidator) buildEndpoint(g *group, entryBySeq map[int]*capture.Entry, reg *registry.Registry) *Endpoint {
	ep := &Endpoint{
		ID:            endpointID(g.method, g.template()),
		Method:        g.method,
		PathTemplate:  g.template(),
		PathParams:    g.params(),
		Count:         len(g.entries),
		StatusProfile: make(map[string]int),
		Examples:      spread(g.entries, c.opts.examples()),
	}

	// Query parameters: union of keys; required only when present on
	// every entry of the group.
	queryCounts := make(map[string]int)
	var queryOrder []string
	var reqSamples []any
	respSamples := make(map[string][]any)

	for _, seq := range g.entries {
		e := entryBySeq[seq]

		for _, name := range e.URL.QueryNames() {
			if queryCounts[name] == 0 {
				queryOrder = append(queryOrder, name)
			}
			queryCounts[name]++
		}

		class := capture.StatusClass(e.Status)
		ep.StatusProfile[class]++

		if v, ok := c.parseBody(e, cache.SideRequest); ok {
			reqSamples = append(reqSamples, v)
		}
		if v, ok := c.parseBody(e, cache.SideResponse); ok {
			respSamples[class] = append(respSamples[class], v)
		}
	}

	for _, name := range queryOrder {
		ep.QueryParams = append(ep.QueryParams, QueryParam{
			Name:     name,
			Required: queryCounts[name] == len(g.entries),
		})
	}
	sort.Slice(ep.QueryParams, func(i, j int) bool {
		return ep.QueryParams[i].Name < ep.QueryParams[j].Name
	})

	mergeOpts := typetree.MergeOptions{MaxUnionAlts: c.opts.MaxUnionAlts}
	context := strings.Join(g.contextWords(), " ")

	if len(reqSamples) > 0 {
		tree := typetree.FromSamplesWith(mergeOpts, reqSamples)
		ep.RequestBody = reg.Register(context+" request", tree)
	}

	// Status classes in sorted order keeps model naming deterministic.
	classes := make([]string, 0, len(respSamples))
	for class := range respSamples {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	ep.Responses = make(map[string]*typetree.Tree, len(classes))
	for _, class := range classes {
		tree := typetree.FromSamplesWith(mergeOpts, respSamples[class])
		ctx := context + " response"
		if class != "2xx" {
			ctx = context + " " + class + " response"
		}
		ep.Responses[class] = reg.Register(ctx, tree)
	}

	// Observed status classes with no usable body sample still get a
	// shape: Unknown, never an error.
	for class := range ep.StatusProfile {
		if _, ok := ep.Responses[class]; !ok {
			ep.Responses[class] = typetree.NewUnknown()
		}
	}

	return ep
}

// parseBody returns the parsed JSON body for one side of an entry. Bodies
// that are absent, non-JSON, oversized, or malformed contribute no sample;
// a malformed body is logged and skipped, never fatal.
func (c *Consolidator) parseBody(e *capture.Entry, side cache.Side) (any, bool) {
	var body *capture.Body
	if side == cache.SideRequest {
		body = e.Request
	} else {
		body = e.Response
	}
	if body == nil || len(body.Data) == 0 {
		return nil, false
	}
	if body.ContentType != "" && !contenttype.IsJSON(body.ContentType) {
		return nil, false
	}
	if c.opts.MaxBodyBytes > 0 && len(body.Data) > c.opts.MaxBodyBytes {
		return nil, false
	}

	if c.bodies != nil {
		if v, ok := c.bodies.Get(e.Seq, side); ok {
			return v, true
		}
	}

	var v any
	if err := json.Unmarshal(body.Data, &v); err != nil {
		slog.Debug("skipping malformed body sample", "seq", e.Seq, "side", int(side), "error", err)
		return nil, false
	}

	if c.bodies != nil {
		c.bodies.Put(e.Seq, side, v)
	}
	return v, true
}

// endpointID derives a short stable identifier from the grouping key.
func endpointID(method, template string) string {
	sum := sha256.Sum256([]byte(method + "\x00" + template))
	return hex.EncodeToString(sum[:])[:12]
}

// spread picks up to count entries distributed across the list, so
// examples cover the group rather than just its head.
func spread(seqs []int, count int) []int {
	if len(seqs) <= count {
		out := make([]int, len(seqs))
		copy(out, seqs)
		return out
	}
	out := make([]int, count)
	step := len(seqs) / count
	for i := 0; i < count; i++ {
		out[i] = seqs[i*step]
	}
	return out
}
