package emit

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/usestring/harmodel/internal/consolidate"
	"github.com/usestring/harmodel/pkg/typetree"
)

const componentsPrefix = "#/components/schemas/"

// OpenAPI builds an OpenAPI 3 document from a consolidation result:
// one path item per endpoint with path/query parameters, request bodies
// and per-status-class responses, plus component schemas for every
// registered model.
func OpenAPI(res *consolidate.Result, title, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, m := range res.Models.Models() {
		doc.Components.Schemas[m.Name] = openapiSchema(m.Tree)
	}

	used := map[string]bool{}
	for _, ep := range res.Endpoints {
		item := doc.Paths.Value(ep.PathTemplate)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(ep.PathTemplate, item)
		}
		item.SetOperation(ep.Method, operation(ep, methodName(ep, used)))
	}

	return doc
}

func operation(ep *consolidate.Endpoint, id string) *openapi3.Operation {
	op := &openapi3.Operation{OperationID: id}

	for _, p := range ep.PathParams {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     p.Name,
				In:       openapi3.ParameterInPath,
				Required: true,
				Schema:   openapi3.NewStringSchema().NewRef(),
			},
		})
	}
	for _, q := range ep.QueryParams {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     q.Name,
				In:       openapi3.ParameterInQuery,
				Required: q.Required,
				Schema:   openapi3.NewStringSchema().NewRef(),
			},
		})
	}

	if ep.RequestBody != nil {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchemaRef(openapiSchema(ep.RequestBody)),
		}
	}

	var respOpts []openapi3.NewResponsesOption
	for _, class := range sortedClasses(ep.Responses) {
		tree := ep.Responses[class]
		resp := openapi3.NewResponse().WithDescription(classDescription(class))
		if tree != nil && tree.Kind != typetree.Unknown {
			resp = resp.WithJSONSchemaRef(openapiSchema(tree))
		}
		// OpenAPI status ranges use an uppercase wildcard: 2XX, 4XX.
		respOpts = append(respOpts, openapi3.WithName(strings.ToUpper(class), resp))
	}
	op.Responses = openapi3.NewResponses(respOpts...)

	return op
}

// sortedClasses orders status classes lexically, which puts 2xx before
// 4xx before 5xx.
func sortedClasses(responses map[string]*typetree.Tree) []string {
	classes := make([]string, 0, len(responses))
	for class := range responses {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

func classDescription(class string) string {
	switch class {
	case "1xx":
		return "Informational"
	case "2xx":
		return "Success"
	case "3xx":
		return "Redirection"
	case "4xx":
		return "Client error"
	case "5xx":
		return "Server error"
	}
	return "Response"
}

// openapiSchema converts a tree to an OpenAPI schema reference. Ref nodes
// point into components/schemas; nullability uses the 3.0 nullable flag.
func openapiSchema(t *typetree.Tree) *openapi3.SchemaRef {
	if t == nil {
		return openapi3.NewSchemaRef("", &openapi3.Schema{})
	}

	if t.Kind == typetree.Ref {
		return openapi3.NewSchemaRef(componentsPrefix+t.Name, nil)
	}

	var s *openapi3.Schema
	switch t.Kind {
	case typetree.Bool:
		s = openapi3.NewBoolSchema()
	case typetree.Int:
		s = openapi3.NewInt64Schema()
	case typetree.Float:
		s = openapi3.NewFloat64Schema()
	case typetree.String:
		s = openapi3.NewStringSchema()

	case typetree.Array:
		s = openapi3.NewArraySchema()
		if t.Elem != nil && t.Elem.Kind != typetree.Unknown {
			s.Items = openapiSchema(t.Elem)
		}

	case typetree.Object:
		s = openapi3.NewObjectSchema()
		s.Properties = make(openapi3.Schemas, len(t.Fields))
		for _, name := range t.FieldNames() {
			f := t.Fields[name]
			s.Properties[name] = openapiSchema(f.Type)
			if !f.Optional && !f.Nullable() {
				s.Required = append(s.Required, name)
			}
		}

	case typetree.Union:
		s = &openapi3.Schema{}
		for _, alt := range t.Alts {
			s.AnyOf = append(s.AnyOf, openapiSchema(alt))
		}

	default:
		s = &openapi3.Schema{}
	}

	s.Nullable = t.Nullable
	return openapi3.NewSchemaRef("", s)
}
