// Package index maintains roaring-bitmap posting lists over a decoded
// capture so callers can pre-filter entries by method, host, or status
// class before consolidation. The consolidator itself never filters.
package index

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/harmodel/pkg/capture"
)

// Scope selects a subset of the capture. Empty fields match everything.
type Scope struct {
	Method      string // e.g. "GET"
	Host        string // lowercase host match
	StatusClass string // e.g. "2xx"
}

// Index holds per-dimension bitmaps over the entry sequence. Entry Seq is
// used directly as the document ID.
type Index struct {
	entries []capture.Entry
	all     *roaring.Bitmap
	byMethod map[string]*roaring.Bitmap
	byHost   map[string]*roaring.Bitmap
	byClass  map[string]*roaring.Bitmap
}

// Build indexes a capture.
func Build(entries []capture.Entry) *Index {
	ix := &Index{
		entries:  entries,
		all:      roaring.New(),
		byMethod: make(map[string]*roaring.Bitmap),
		byHost:   make(map[string]*roaring.Bitmap),
		byClass:  make(map[string]*roaring.Bitmap),
	}
	for _, e := range entries {
		doc := uint32(e.Seq)
		ix.all.Add(doc)
		addPosting(ix.byMethod, e.Method, doc)
		addPosting(ix.byHost, e.URL.Host, doc)
		addPosting(ix.byClass, capture.StatusClass(e.Status), doc)
	}
	return ix
}

func addPosting(m map[string]*roaring.Bitmap, key string, doc uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(doc)
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Select resolves a scope to the matching entries in capture order.
func (ix *Index) Select(scope Scope) []capture.Entry {
	bm := ix.resolve(scope)

	out := make([]capture.Entry, 0, bm.GetCardinality())
	iter := bm.Iterator()
	for iter.HasNext() {
		out = append(out, ix.entries[iter.Next()])
	}
	return out
}

func (ix *Index) resolve(scope Scope) *roaring.Bitmap {
	result := ix.all.Clone()

	if scope.Method != "" {
		result = intersect(result, ix.byMethod[strings.ToUpper(scope.Method)])
	}
	if scope.Host != "" {
		result = intersect(result, ix.byHost[strings.ToLower(scope.Host)])
	}
	if scope.StatusClass != "" {
		result = intersect(result, ix.byClass[strings.ToLower(scope.StatusClass)])
	}
	return result
}

func intersect(a, b *roaring.Bitmap) *roaring.Bitmap {
	if b == nil {
		return roaring.New()
	}
	return roaring.And(a, b)
}

// Hosts returns the distinct hosts seen, sorted.
func (ix *Index) Hosts() []string {
	hosts := make([]string, 0, len(ix.byHost))
	for h := range ix.byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// Counts returns entry counts per method and per status class.
func (ix *Index) Counts() (methods, classes map[string]int) {
	methods = make(map[string]int, len(ix.byMethod))
	for m, bm := range ix.byMethod {
		methods[m] = int(bm.GetCardinality())
	}
	classes = make(map[string]int, len(ix.byClass))
	for c, bm := range ix.byClass {
		classes[c] = int(bm.GetCardinality())
	}
	return methods, classes
}
