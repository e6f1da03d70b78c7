package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

var (
	compileOnce sync.Once
	compiled    *sjsonschema.Schema
	compileErr  error
)

// wizardSchema compiles the generated wizard/v0 JSON Schema once.
func wizardSchema() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := schema.GenerateWizardJSONSchema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource(schema.SchemaID, doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schema.SchemaID)
	})
	return compiled, compileErr
}

// validateSemanticYAML checks the document as written, so missing keys and
// wrong value types are reported before defaults hide them.
func validateSemanticYAML(data []byte) []*ValidationError {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []*ValidationError{errorf("semantic", "", "decode document: %s", err)}
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "convert document to JSON: %s", err)}
	}
	return validateSemanticJSON(js)
}

// validateSemanticWizard checks an in-memory definition.
func validateSemanticWizard(w *schema.Wizard) []*ValidationError {
	js, err := json.Marshal(w)
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "marshal for schema validation: %s", err)}
	}
	return validateSemanticJSON(js)
}

func validateSemanticJSON(js []byte) []*ValidationError {
	sch, err := wizardSchema()
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "compile schema: %s", err)}
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "unmarshal document: %s", err)}
	}
	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*sjsonschema.ValidationError)
	if !ok {
		return []*ValidationError{errorf("semantic", "", "%s", err)}
	}
	var errs []*ValidationError
	for _, cause := range flattenValidationErrors(ve) {
		errs = append(errs, &ValidationError{
			Phase:    "semantic",
			Path:     strings.Join(cause.InstanceLocation, "/"),
			Message:  fmt.Sprintf("%v", cause.ErrorKind),
			Severity: "error",
		})
	}
	return errs
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
