// Package schema defines the wizard/v0 definition types: the ordered step
// table each guided workflow is driven by.
package schema

// API version constant for wizard/v0.
const APIVersionWizard = "wizard/v0"

// ---------------------------------------------------------------------------
// Wizard
// ---------------------------------------------------------------------------

// Wizard is the top-level wizard/v0 document.
type Wizard struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion"`
	Meta       Meta       `yaml:"meta"       json:"meta"`
	Fields     []FieldDef `yaml:"fields"     json:"fields"`
	Steps      []Step     `yaml:"steps"      json:"steps"`
}

// Meta contains wizard metadata.
type Meta struct {
	Name        string `yaml:"name"                  json:"name"`
	Kind        string `yaml:"kind"                  json:"kind"`
	Title       string `yaml:"title,omitempty"       json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	IDPrefix    string `yaml:"id_prefix"             json:"id_prefix"`
}

// ---------------------------------------------------------------------------
// Fields
// ---------------------------------------------------------------------------

// FieldType enumerates the value kinds a form field can hold.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldBool     FieldType = "bool"
	FieldChoice   FieldType = "choice"
	FieldEvidence FieldType = "evidence"
)

// FieldDef declares one form field.
type FieldDef struct {
	Name        string    `yaml:"name"                  json:"name"`
	Type        FieldType `yaml:"type"                  json:"type" jsonschema:"enum=string,enum=bool,enum=choice,enum=evidence"`
	Label       string    `yaml:"label,omitempty"       json:"label,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Sensitive   bool      `yaml:"sensitive,omitempty"   json:"sensitive,omitempty"`
	Options     []Option  `yaml:"options,omitempty"     json:"options,omitempty"`
}

// Option is one allowed value of a choice field. Help and Severity are
// presentational hints carried through to collaborators.
type Option struct {
	Value    string `yaml:"value"              json:"value"`
	Label    string `yaml:"label,omitempty"    json:"label,omitempty"`
	Help     string `yaml:"help,omitempty"     json:"help,omitempty"`
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// HasOption reports whether v is one of the field's option values.
func (f *FieldDef) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Step
// ---------------------------------------------------------------------------

// Step is one unit of the wizard sequence. Its position is its 1-based
// index in Wizard.Steps.
type Step struct {
	ID          string   `yaml:"id"                    json:"id"`
	Title       string   `yaml:"title,omitempty"       json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Required    []string `yaml:"required,omitempty"    json:"required,omitempty"`
	Optional    []string `yaml:"optional,omitempty"    json:"optional,omitempty"`
	Rules       []Rule   `yaml:"rules,omitempty"       json:"rules,omitempty"`
	Branches    []Branch `yaml:"branches,omitempty"    json:"branches,omitempty"`
}

// Rule is a boolean expression over the form state that must hold before
// the step can be left forward.
type Rule struct {
	Expr    string `yaml:"expr"              json:"expr"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// Label returns the rule's message, falling back to its expression.
func (r Rule) Label() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Expr
}

// Branch is conditional sub-content shown on a step while When holds.
type Branch struct {
	ID     string `yaml:"id"     json:"id"`
	When   string `yaml:"when"   json:"when"`
	Notice string `yaml:"notice,omitempty" json:"notice,omitempty"`
}

// Fields returns the step's required fields followed by its optional ones.
func (s *Step) Fields() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	out = append(out, s.Optional...)
	return out
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

// Total returns the step count N.
func (w *Wizard) Total() int {
	return len(w.Steps)
}

// StepAt returns the step at 1-based position pos.
func (w *Wizard) StepAt(pos int) (*Step, bool) {
	if pos < 1 || pos > len(w.Steps) {
		return nil, false
	}
	return &w.Steps[pos-1], true
}

// Field looks up a declared field by name.
func (w *Wizard) Field(name string) (*FieldDef, bool) {
	for i := range w.Fields {
		if w.Fields[i].Name == name {
			return &w.Fields[i], true
		}
	}
	return nil, false
}

// EvidenceField returns the name of the wizard's evidence field, or "" if
// the wizard collects no evidence.
func (w *Wizard) EvidenceField() string {
	for _, f := range w.Fields {
		if f.Type == FieldEvidence {
			return f.Name
		}
	}
	return ""
}

// SensitiveFields returns the names of fields marked sensitive.
func (w *Wizard) SensitiveFields() []string {
	var out []string
	for _, f := range w.Fields {
		if f.Sensitive {
			out = append(out, f.Name)
		}
	}
	return out
}
