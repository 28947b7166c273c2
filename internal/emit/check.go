package emit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer localizes validation error messages.
var printer = message.NewPrinter(language.English)

// CheckSchema compiles an emitted JSON Schema document and validates every
// sample against it. A failure means emission produced a schema that no
// longer accepts the data it was inferred from, so the error carries the
// sample index and the leaf validation messages.
func CheckSchema(schemaJSON []byte, samples []any) error {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return fmt.Errorf("decoding schema document: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	for i, sample := range samples {
		if err := compiled.Validate(sample); err != nil {
			return fmt.Errorf("sample %d rejected by emitted schema: %s", i, validationDetail(err))
		}
	}
	return nil
}

// validationDetail flattens a validation error into its leaf messages.
func validationDetail(err error) string {
	var valErr *jsonschema.ValidationError
	if !errors.As(err, &valErr) {
		return err.Error()
	}

	var msgs []string
	seen := make(map[string]bool)
	collectLeaves(valErr, seen, &msgs)
	if len(msgs) == 0 {
		return err.Error()
	}
	return strings.Join(msgs, "; ")
}

func collectLeaves(err *jsonschema.ValidationError, seen map[string]bool, out *[]string) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if strings.HasPrefix(msg, "$ref ") || strings.HasPrefix(msg, "doesn't validate with") {
			return
		}
		if len(err.InstanceLocation) > 0 {
			msg = "/" + strings.Join(err.InstanceLocation, "/") + ": " + msg
		}
		if !seen[msg] {
			seen[msg] = true
			*out = append(*out, msg)
		}
	}
	for _, cause := range err.Causes {
		collectLeaves(cause, seen, out)
	}
}
