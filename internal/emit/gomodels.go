package emit

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/usestring/harmodel/internal/registry"
)

// GoOptions tunes Go source emission.
type GoOptions struct {
	// Package is the package name for the generated file.
	Package string
}

func (o GoOptions) pkg() string {
	if o.Package == "" {
		return "api"
	}
	return o.Package
}

// GoModels renders one struct per registered model, in registration order,
// as a single gofmt-formatted source file.
func GoModels(reg *registry.Registry, opts GoOptions) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("// Code generated by harmodel. DO NOT EDIT.\n\n")
	sb.WriteString("package " + opts.pkg() + "\n\n")

	for _, m := range reg.Models() {
		writeModel(&sb, m)
	}

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("formatting generated models: %w", err)
	}
	return src, nil
}

func writeModel(sb *strings.Builder, m *registry.Model) {
	fmt.Fprintf(sb, "// %s models %q bodies observed in the capture.\n", m.Name, m.Context)
	fmt.Fprintf(sb, "type %s struct {\n", m.Name)

	used := map[string]bool{}
	for _, name := range m.Tree.FieldNames() {
		f := m.Tree.Fields[name]
		goName := fieldName(name, used)
		tag := name
		if f.Optional {
			tag += ",omitempty"
		}
		fmt.Fprintf(sb, "\t%s %s `json:%q`\n", goName, fieldType(f), tag)
	}
	sb.WriteString("}\n\n")
}

// fieldName derives a unique exported field name from a JSON key. Keys
// that normalize to the same identifier get numeric suffixes; a key with
// no usable runes falls back to Field.
func fieldName(key string, used map[string]bool) string {
	name := registry.Identifier(key)
	if name == "" {
		name = "Field"
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
