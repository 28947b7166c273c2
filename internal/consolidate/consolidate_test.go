package consolidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/harmodel/internal/cache"
	"github.com/usestring/harmodel/pkg/capture"
	"github.com/usestring/harmodel/pkg/typetree"
)

type entrySpec struct {
	method   string
	url      string
	status   int
	reqBody  string
	respBody string
}

func buildEntries(t *testing.T, specs []entrySpec) []capture.Entry {
	t.Helper()
	entries := make([]capture.Entry, 0, len(specs))
	for i, s := range specs {
		u, err := capture.ParseURL(s.url)
		require.NoError(t, err)
		e := capture.Entry{Seq: i, Method: s.method, URL: u, Status: s.status}
		if s.reqBody != "" {
			e.Request = &capture.Body{Data: []byte(s.reqBody), ContentType: "application/json"}
		}
		if s.respBody != "" {
			e.Response = &capture.Body{Data: []byte(s.respBody), ContentType: "application/json"}
		}
		entries = append(entries, e)
	}
	return entries
}

func consolidateSpecs(t *testing.T, specs []entrySpec) *Result {
	t.Helper()
	return New(DefaultOptions(), nil).Consolidate(buildEntries(t, specs))
}

func TestConsolidate_NumericSegmentsTemplate(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/1", status: 200, respBody: `{"id":1}`},
		{method: "GET", url: "https://api.test/users/2", status: 200, respBody: `{"id":2}`},
	})

	require.Len(t, res.Endpoints, 1)
	ep := res.Endpoints[0]
	assert.Equal(t, "/users/{id}", ep.PathTemplate)
	assert.Equal(t, 2, ep.Count)
	require.Len(t, ep.PathParams, 1)
	assert.Equal(t, "id", ep.PathParams[0].Name)
	assert.Equal(t, 1, ep.PathParams[0].Position)
}

func TestConsolidate_DistinctLiteralsStaySeparate(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users", status: 200},
		{method: "GET", url: "https://api.test/orders", status: 200},
	})

	require.Len(t, res.Endpoints, 2)
	assert.Equal(t, "/users", res.Endpoints[0].PathTemplate)
	assert.Equal(t, "/orders", res.Endpoints[1].PathTemplate)
}

func TestConsolidate_MethodsStaySeparate(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users", status: 200},
		{method: "POST", url: "https://api.test/users", status: 201},
	})
	assert.Len(t, res.Endpoints, 2)
}

func TestConsolidate_VaryingSegmentWithAnchorMerges(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/alice", status: 200},
		{method: "GET", url: "https://api.test/users/bob", status: 200},
	})

	require.Len(t, res.Endpoints, 1)
	assert.Equal(t, "/users/{param}", res.Endpoints[0].PathTemplate)
}

func TestConsolidate_MergeVaryingDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.MergeVarying = false
	res := New(opts, nil).Consolidate(buildEntries(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/alice", status: 200},
		{method: "GET", url: "https://api.test/users/bob", status: 200},
	}))
	assert.Len(t, res.Endpoints, 2)
}

func TestConsolidate_UUIDAndRepeatedIDs(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/550e8400-e29b-41d4-a716-446655440000/posts/7", status: 200},
	})

	require.Len(t, res.Endpoints, 1)
	assert.Equal(t, "/users/{uuid}/posts/{id}", res.Endpoints[0].PathTemplate)
}

func TestConsolidate_RepeatedParamNamesUniquified(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/1/posts/2", status: 200},
	})

	require.Len(t, res.Endpoints, 1)
	ep := res.Endpoints[0]
	assert.Equal(t, "/users/{id}/posts/{id2}", ep.PathTemplate)
	require.Len(t, ep.PathParams, 2)
	assert.Equal(t, "id", ep.PathParams[0].Name)
	assert.Equal(t, "id2", ep.PathParams[1].Name)
}

func TestConsolidate_QueryParamOptionality(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/search?q=a&page=1", status: 200},
		{method: "GET", url: "https://api.test/search?q=b", status: 200},
	})

	require.Len(t, res.Endpoints, 1)
	params := res.Endpoints[0].QueryParams
	require.Len(t, params, 2)
	assert.Equal(t, QueryParam{Name: "page", Required: false}, params[0])
	assert.Equal(t, QueryParam{Name: "q", Required: true}, params[1])
}

func TestConsolidate_StatusClassPartitioning(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/1", status: 200, respBody: `{"id":1,"name":"a"}`},
		{method: "GET", url: "https://api.test/users/2", status: 404, respBody: `{"error":"not found"}`},
	})

	require.Len(t, res.Endpoints, 1)
	ep := res.Endpoints[0]
	require.Len(t, ep.Responses, 2)

	ok := ep.Responses["2xx"]
	require.Equal(t, typetree.Ref, ok.Kind)
	notFound := ep.Responses["4xx"]
	require.Equal(t, typetree.Ref, notFound.Kind)
	assert.NotEqual(t, ok.Name, notFound.Name, "200 and 404 shapes never merge")

	okModel, found := res.Models.Lookup(ok.Name)
	require.True(t, found)
	assert.Equal(t, []string{"id", "name"}, okModel.Tree.FieldNames())
}

func TestConsolidate_RequestBodyInference(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "POST", url: "https://api.test/users", status: 201, reqBody: `{"name":"a"}`, respBody: `{"id":1}`},
		{method: "POST", url: "https://api.test/users", status: 201, reqBody: `{"name":"b","admin":true}`, respBody: `{"id":2}`},
	})

	require.Len(t, res.Endpoints, 1)
	ep := res.Endpoints[0]
	require.NotNil(t, ep.RequestBody)
	require.Equal(t, typetree.Ref, ep.RequestBody.Kind)

	model, found := res.Models.Lookup(ep.RequestBody.Name)
	require.True(t, found)
	assert.False(t, model.Tree.Fields["name"].Optional)
	assert.True(t, model.Tree.Fields["admin"].Optional)
}

func TestConsolidate_MalformedBodySkippedNotFatal(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/1", status: 200, respBody: `{"id":1}`},
		{method: "GET", url: "https://api.test/users/2", status: 200, respBody: `{not json`},
	})

	require.Len(t, res.Endpoints, 1)
	ep := res.Endpoints[0]
	assert.Equal(t, 2, ep.Count, "malformed entry still belongs to the group")

	tree := ep.Responses["2xx"]
	require.Equal(t, typetree.Ref, tree.Kind)
	model, found := res.Models.Lookup(tree.Name)
	require.True(t, found)
	assert.False(t, model.Tree.Fields["id"].Optional, "malformed sample contributes no shape")
}

func TestConsolidate_NoValidBodiesYieldsUnknown(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/ping", status: 204},
	})

	require.Len(t, res.Endpoints, 1)
	ep := res.Endpoints[0]
	assert.Nil(t, ep.RequestBody)
	require.Contains(t, ep.Responses, "2xx")
	assert.Equal(t, typetree.Unknown, ep.Responses["2xx"].Kind)
}

func TestConsolidate_EmptyInput(t *testing.T) {
	res := New(DefaultOptions(), nil).Consolidate(nil)
	assert.Empty(t, res.Endpoints)
	assert.Empty(t, res.Models.Models())
}

func TestConsolidate_Deterministic(t *testing.T) {
	specs := []entrySpec{
		{method: "GET", url: "https://api.test/users/1", status: 200, respBody: `{"id":1}`},
		{method: "POST", url: "https://api.test/users", status: 201, reqBody: `{"name":"x"}`, respBody: `{"id":2}`},
		{method: "GET", url: "https://api.test/orders", status: 200, respBody: `[{"total":1.5}]`},
		{method: "GET", url: "https://api.test/users/2", status: 404, respBody: `{"error":"gone"}`},
	}

	run := func() ([]string, []string) {
		res := consolidateSpecs(t, specs)
		var ids, names []string
		for _, ep := range res.Endpoints {
			ids = append(ids, ep.Method+" "+ep.PathTemplate)
		}
		for _, m := range res.Models.Models() {
			names = append(names, m.Name)
		}
		return ids, names
	}

	ids1, names1 := run()
	ids2, names2 := run()
	assert.Equal(t, ids1, ids2)
	assert.Equal(t, names1, names2)

	// First-occurrence ordering.
	assert.Equal(t, []string{"GET /users/{id}", "POST /users", "GET /orders"}, ids1)
}

func TestConsolidate_StructuralDedupAcrossEndpoints(t *testing.T) {
	res := consolidateSpecs(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/1", status: 200, respBody: `{"id":1,"name":"a"}`},
		{method: "GET", url: "https://api.test/accounts/2", status: 200, respBody: `{"name":"b","id":2}`},
	})

	require.Len(t, res.Endpoints, 2)
	a := res.Endpoints[0].Responses["2xx"]
	b := res.Endpoints[1].Responses["2xx"]
	require.Equal(t, typetree.Ref, a.Kind)
	require.Equal(t, typetree.Ref, b.Kind)
	assert.Equal(t, a.Name, b.Name, "structurally identical shapes share a model")
	assert.Len(t, res.Models.Models(), 1)
}

func TestConsolidate_BodyCacheUsed(t *testing.T) {
	bodies, err := cache.NewBodyCache(16)
	require.NoError(t, err)

	entries := buildEntries(t, []entrySpec{
		{method: "GET", url: "https://api.test/users/1", status: 200, respBody: `{"id":1}`},
	})
	New(DefaultOptions(), bodies).Consolidate(entries)
	assert.Equal(t, 1, bodies.Len())

	_, ok := bodies.Get(0, cache.SideResponse)
	assert.True(t, ok)
}

func TestSpread(t *testing.T) {
	assert.Equal(t, []int{1, 2}, spread([]int{1, 2}, 3))
	assert.Len(t, spread([]int{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3), 3)
	assert.Equal(t, []int{1, 4, 7}, spread([]int{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3))
}
