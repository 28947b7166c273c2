package emit

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/usestring/harmodel/internal/consolidate"
	"github.com/usestring/harmodel/internal/registry"
	"github.com/usestring/harmodel/pkg/typetree"
)

// GoClient renders a typed HTTP client with one method per endpoint. Path
// parameters become string arguments, query parameters an optional
// url.Values, and request/response bodies use the generated model types
// where a shape was inferred.
func GoClient(endpoints []*consolidate.Endpoint, opts GoOptions) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("// Code generated by harmodel. DO NOT EDIT.\n\n")
	sb.WriteString("package " + opts.pkg() + "\n\n")
	sb.WriteString(clientPreamble)

	used := map[string]bool{}
	for _, ep := range endpoints {
		writeClientMethod(&sb, ep, methodName(ep, used))
	}

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("formatting generated client: %w", err)
	}
	return src, nil
}

const clientPreamble = `import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client replays captured API traffic against a live server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: http.DefaultClient}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

`

// methodName derives a unique Go method name from an endpoint, e.g.
// GET /users/{id} becomes GetUsersById.
func methodName(ep *consolidate.Endpoint, used map[string]bool) string {
	words := []string{strings.ToLower(ep.Method)}
	for _, seg := range strings.Split(strings.Trim(ep.PathTemplate, "/"), "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") {
			words = append(words, "by", strings.Trim(seg, "{}"))
		} else {
			words = append(words, seg)
		}
	}

	name := registry.Identifier(strings.Join(words, " "))
	if name == "" {
		name = "Call"
	}
	if !used[name] {
		used[name] = true
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

func writeClientMethod(sb *strings.Builder, ep *consolidate.Endpoint, name string) {
	fmt.Fprintf(sb, "// %s calls %s %s.\n", name, ep.Method, ep.PathTemplate)

	args := []string{"ctx context.Context"}
	for _, p := range ep.PathParams {
		args = append(args, p.Name+" string")
	}
	if len(ep.QueryParams) > 0 {
		args = append(args, "query url.Values")
	}

	bodyExpr := "nil"
	if ep.RequestBody != nil {
		if ep.RequestBody.Kind == typetree.Ref {
			args = append(args, "body *"+ep.RequestBody.Name)
		} else {
			args = append(args, "body any")
		}
		bodyExpr = "body"
	}

	queryExpr := "nil"
	if len(ep.QueryParams) > 0 {
		queryExpr = "query"
	}

	outType := responseType(ep)

	if outType == "" {
		fmt.Fprintf(sb, "func (c *Client) %s(%s) error {\n", name, strings.Join(args, ", "))
		fmt.Fprintf(sb, "\treturn c.do(ctx, %q, %s, %s, %s, nil)\n", ep.Method, pathExpr(ep), queryExpr, bodyExpr)
		sb.WriteString("}\n\n")
		return
	}

	retType := outType
	retExpr := "&out"
	if outType[0] != '[' {
		retType = "*" + outType
	} else {
		retExpr = "out"
	}

	fmt.Fprintf(sb, "func (c *Client) %s(%s) (%s, error) {\n", name, strings.Join(args, ", "), retType)
	fmt.Fprintf(sb, "\tvar out %s\n", outType)
	fmt.Fprintf(sb, "\tif err := c.do(ctx, %q, %s, %s, %s, &out); err != nil {\n", ep.Method, pathExpr(ep), queryExpr, bodyExpr)
	sb.WriteString("\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(sb, "\treturn %s, nil\n", retExpr)
	sb.WriteString("}\n\n")
}

// responseType picks the Go type for the success response, empty when no
// usable shape was inferred.
func responseType(ep *consolidate.Endpoint) string {
	tree, ok := ep.Responses["2xx"]
	if !ok || tree == nil {
		return ""
	}
	switch tree.Kind {
	case typetree.Ref:
		return tree.Name
	case typetree.Array:
		if tree.Elem != nil && tree.Elem.Kind == typetree.Ref {
			return "[]" + tree.Elem.Name
		}
	}
	return ""
}

// pathExpr renders the Go expression building the request path, escaping
// each parameter value.
func pathExpr(ep *consolidate.Endpoint) string {
	segs := strings.Split(strings.Trim(ep.PathTemplate, "/"), "/")
	if len(segs) == 1 && segs[0] == "" {
		return `"/"`
	}

	var parts []string
	literal := ""
	for _, seg := range segs {
		if strings.HasPrefix(seg, "{") {
			if literal != "" {
				parts = append(parts, fmt.Sprintf("%q", literal+"/"))
			} else {
				parts = append(parts, `"/"`)
			}
			parts = append(parts, "url.PathEscape("+strings.Trim(seg, "{}")+")")
			literal = ""
			continue
		}
		literal += "/" + seg
	}
	if literal != "" {
		parts = append(parts, fmt.Sprintf("%q", literal))
	}
	return strings.Join(parts, " + ")
}
