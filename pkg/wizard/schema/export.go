package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the canonical identifier of the wizard/v0 JSON Schema.
const SchemaID = "https://github.com/aayaan07/quantum-kavach/schemas/wizard-v0.json"

// GenerateWizardJSONSchema produces a JSON Schema Draft 2020-12 document
// from the wizard/v0 Go types.
func GenerateWizardJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&Wizard{})
	s.ID = SchemaID
	s.Title = "Guided Workflow Wizard — wizard/v0"
	s.Description = "Schema for wizard/v0 step definition documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal wizard schema: %w", err)
	}
	return data, nil
}
