package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/usestring/harmodel/internal/cache"
	"github.com/usestring/harmodel/internal/consolidate"
	"github.com/usestring/harmodel/internal/emit"
	"github.com/usestring/harmodel/pkg/capture"
	"github.com/usestring/harmodel/pkg/contenttype"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var pkgName string
	var artifacts []string
	var openapiFormat string
	var title string
	var docVersion string
	var check bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Consolidate a capture and emit models, client, OpenAPI and schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, bodies, entries, err := ctx.consolidateEntries()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			wanted := make(map[string]bool, len(artifacts))
			for _, a := range artifacts {
				wanted[strings.ToLower(strings.TrimSpace(a))] = true
			}

			opts := emit.GoOptions{Package: pkgName}

			if wanted["models"] {
				src, err := emit.GoModels(res.Models, opts)
				if err != nil {
					return err
				}
				if err := writeArtifact(cmd, outDir, "models.go", src); err != nil {
					return err
				}
			}

			if wanted["client"] {
				src, err := emit.GoClient(res.Endpoints, opts)
				if err != nil {
					return err
				}
				if err := writeArtifact(cmd, outDir, "client.go", src); err != nil {
					return err
				}
			}

			if wanted["openapi"] {
				doc := emit.OpenAPI(res, title, docVersion)
				name := "openapi.json"
				var data []byte
				if openapiFormat == "yaml" {
					name = "openapi.yaml"
					data, err = yamlFromJSONMarshaler(doc)
				} else {
					data, err = json.MarshalIndent(doc, "", "  ")
				}
				if err != nil {
					return fmt.Errorf("encoding OpenAPI document: %w", err)
				}
				if err := writeArtifact(cmd, outDir, name, data); err != nil {
					return err
				}
			}

			if wanted["schema"] {
				if err := emitSchemas(cmd, ctx, res, bodies, entries, outDir, check); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "harmodel-out", "Output directory")
	cmd.Flags().StringVar(&pkgName, "package", "api", "Package name for generated Go source")
	cmd.Flags().StringSliceVar(&artifacts, "artifacts", []string{"models", "client", "openapi", "schema"},
		"Artifacts to emit (models, client, openapi, schema)")
	cmd.Flags().StringVar(&openapiFormat, "openapi-format", "json", "OpenAPI serialization (json or yaml)")
	cmd.Flags().StringVar(&title, "title", "captured API", "OpenAPI document title")
	cmd.Flags().StringVar(&docVersion, "doc-version", "0.1.0", "OpenAPI document version")
	cmd.Flags().BoolVar(&check, "check", false, "Validate example bodies against emitted schemas before writing")

	return cmd
}

// emitSchemas writes one JSON Schema document per endpoint response class.
// With --check, each document must accept the endpoint's example bodies or
// emission fails.
func emitSchemas(cmd *cobra.Command, ctx *commandContext, res *consolidate.Result, bodies *cache.BodyCache, entries []capture.Entry, outDir string, check bool) error {
	bySeq := make(map[int]*capture.Entry, len(entries))
	for i := range entries {
		bySeq[entries[i].Seq] = &entries[i]
	}

	for _, ep := range res.Endpoints {
		for class, tree := range ep.Responses {
			doc := emit.SchemaDocument(res.Models, tree)
			data, err := emit.SchemaJSON(doc)
			if err != nil {
				return err
			}

			if check {
				samples := exampleBodies(ep, class, bySeq, bodies)
				if err := emit.CheckSchema(data, samples); err != nil {
					return fmt.Errorf("endpoint %s %s (%s): %w", ep.Method, ep.PathTemplate, class, err)
				}
			}

			name := fmt.Sprintf("%s_%s.schema.json", ep.ID, class)
			if err := writeArtifact(cmd, outDir, name, data); err != nil {
				return err
			}
		}
	}
	return nil
}

// exampleBodies parses the response bodies of an endpoint's example
// entries that fall in the given status class.
func exampleBodies(ep *consolidate.Endpoint, class string, bySeq map[int]*capture.Entry, bodies *cache.BodyCache) []any {
	var samples []any
	for _, seq := range ep.Examples {
		e, ok := bySeq[seq]
		if !ok || capture.StatusClass(e.Status) != class {
			continue
		}
		if v, ok := bodies.Get(seq, cache.SideResponse); ok {
			samples = append(samples, v)
			continue
		}
		if e.Response == nil || len(e.Response.Data) == 0 {
			continue
		}
		if e.Response.ContentType != "" && !contenttype.IsJSON(e.Response.ContentType) {
			continue
		}
		var v any
		if err := json.Unmarshal(e.Response.Data, &v); err == nil {
			samples = append(samples, v)
		}
	}
	return samples
}

func writeArtifact(cmd *cobra.Command, dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
	return nil
}

// yamlFromJSONMarshaler converts a value with a custom JSON marshaler to
// YAML by round-tripping through JSON.
func yamlFromJSONMarshaler(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	return yaml.Marshal(plain)
}
