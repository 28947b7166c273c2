package capture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHAR = `{
  "log": {
    "version": "1.2",
    "entries": [
      {
        "startedDateTime": "2026-03-01T10:00:00.000Z",
        "request": {
          "method": "get",
          "url": "https://api.example.com/users/42?include=profile&page=2",
          "headers": [{"name": "Accept", "value": "application/json"}],
          "queryString": [{"name": "include", "value": "profile"}]
        },
        "response": {
          "status": 200,
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "content": {"mimeType": "application/json", "text": "{\"id\":42}"}
        }
      },
      {
        "request": {
          "method": "POST",
          "url": "https://api.example.com/users",
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "postData": {"mimeType": "application/json", "text": "{\"name\":\"a\"}"}
        },
        "response": {
          "status": 201,
          "headers": [],
          "content": {"mimeType": "application/json", "text": "eyJpZCI6MX0=", "encoding": "base64"}
        }
      },
      {
        "request": {"method": "GET", "url": "://not-a-url", "headers": []},
        "response": {"status": 200, "headers": []}
      }
    ]
  }
}`

func TestDecode(t *testing.T) {
	entries, err := Decode(strings.NewReader(sampleHAR))
	require.NoError(t, err)
	require.Len(t, entries, 2, "the unparseable-URL entry is dropped")

	first := entries[0]
	assert.Equal(t, 0, first.Seq)
	assert.Equal(t, "GET", first.Method, "method is uppercased")
	assert.Equal(t, "api.example.com", first.URL.Host)
	assert.Equal(t, []string{"users", "42"}, first.URL.Segments)
	assert.Equal(t, []QueryPair{{"include", "profile"}, {"page", "2"}}, first.URL.Query)
	assert.Equal(t, 200, first.Status)
	require.NotNil(t, first.Response)
	assert.JSONEq(t, `{"id":42}`, string(first.Response.Data))
	assert.Equal(t, "application/json", first.Response.ContentType)
	assert.Nil(t, first.Request)
	assert.False(t, first.StartedAt.IsZero())

	second := entries[1]
	assert.Equal(t, 1, second.Seq)
	require.NotNil(t, second.Request)
	assert.JSONEq(t, `{"name":"a"}`, string(second.Request.Data))
	require.NotNil(t, second.Response, "base64 response body is decoded")
	assert.JSONEq(t, `{"id":1}`, string(second.Response.Data))
}

func TestDecode_MalformedDocument(t *testing.T) {
	_, err := Decode(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestParseURL(t *testing.T) {
	u, err := ParseURL("https://Example.COM/a/b/c?x=1&y=2&x=3")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)
	assert.Equal(t, []string{"a", "b", "c"}, u.Segments)
	assert.Equal(t, []string{"x", "y"}, u.QueryNames(), "distinct names in first-seen order")
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{101, "1xx"},
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{0, "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusClass(tt.code), "status %d", tt.code)
	}
}
