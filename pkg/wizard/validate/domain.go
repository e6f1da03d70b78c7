package validate

import (
	"fmt"
	"regexp"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/eval"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

var (
	prefixPattern = regexp.MustCompile(`^[A-Z]+$`)
	namePattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// validateDomain runs wizard/v0 domain-level validation rules.
func validateDomain(w *schema.Wizard) []*ValidationError {
	var errs []*ValidationError

	// D1: apiVersion must be wizard/v0
	if w.APIVersion != schema.APIVersionWizard {
		errs = append(errs, errorf("domain", "apiVersion", "expected %q, got %q", schema.APIVersionWizard, w.APIVersion))
	}

	// D2: meta identity
	if w.Meta.Name == "" {
		errs = append(errs, errorf("domain", "meta.name", "meta.name is required"))
	}
	if w.Meta.Kind == "" {
		errs = append(errs, errorf("domain", "meta.kind", "meta.kind is required"))
	}
	if !prefixPattern.MatchString(w.Meta.IDPrefix) {
		errs = append(errs, errorf("domain", "meta.id_prefix", "id_prefix %q must be upper-case letters only", w.Meta.IDPrefix))
	}

	// D3: field declarations
	errs = append(errs, validateFields(w)...)

	// D4: a definition has at least one step
	if len(w.Steps) == 0 {
		errs = append(errs, errorf("domain", "steps", "at least one step is required"))
	}

	// D5: step ID uniqueness
	ids := map[string]string{}
	for i, s := range w.Steps {
		path := stepPath(i)
		if s.ID == "" {
			errs = append(errs, errorf("domain", path+".id", "step ID is required"))
			continue
		}
		if prev, ok := ids[s.ID]; ok {
			errs = append(errs, errorf("domain", path+".id", "duplicate step ID %q (first at %s)", s.ID, prev))
		} else {
			ids[s.ID] = path
		}
	}

	// D6: field references, D7: expressions compile
	used := map[string]bool{}
	for i := range w.Steps {
		errs = append(errs, validateStep(w, &w.Steps[i], stepPath(i), used)...)
	}

	// D8: declared fields should be presented by some step
	for i, f := range w.Fields {
		if f.Name != "" && !used[f.Name] {
			errs = append(errs, warningf("domain", fmt.Sprintf("fields[%d]", i), "field %q is not used by any step", f.Name))
		}
	}

	return errs
}

func validateFields(w *schema.Wizard) []*ValidationError {
	var errs []*ValidationError
	seen := map[string]bool{}
	evidence := ""
	for i, f := range w.Fields {
		path := fmt.Sprintf("fields[%d]", i)
		if !namePattern.MatchString(f.Name) {
			errs = append(errs, errorf("domain", path+".name", "field name %q must be an identifier", f.Name))
		}
		if seen[f.Name] {
			errs = append(errs, errorf("domain", path+".name", "duplicate field %q", f.Name))
		}
		seen[f.Name] = true

		switch f.Type {
		case schema.FieldString, schema.FieldBool:
			if len(f.Options) > 0 {
				errs = append(errs, errorf("domain", path+".options", "options are only valid on choice fields"))
			}
		case schema.FieldChoice:
			if len(f.Options) == 0 {
				errs = append(errs, errorf("domain", path+".options", "choice field %q requires options", f.Name))
			}
			values := map[string]bool{}
			for j, o := range f.Options {
				if o.Value == "" {
					errs = append(errs, errorf("domain", fmt.Sprintf("%s.options[%d].value", path, j), "option value is required"))
				}
				if values[o.Value] {
					errs = append(errs, errorf("domain", fmt.Sprintf("%s.options[%d].value", path, j), "duplicate option %q", o.Value))
				}
				values[o.Value] = true
			}
		case schema.FieldEvidence:
			if evidence != "" {
				errs = append(errs, errorf("domain", path+".type", "only one evidence field is allowed (already %q)", evidence))
			}
			evidence = f.Name
		default:
			errs = append(errs, errorf("domain", path+".type", "unknown field type %q", f.Type))
		}
	}
	return errs
}

func validateStep(w *schema.Wizard, s *schema.Step, path string, used map[string]bool) []*ValidationError {
	var errs []*ValidationError

	required := map[string]bool{}
	for j, name := range s.Required {
		p := fmt.Sprintf("%s.required[%d]", path, j)
		if _, ok := w.Field(name); !ok {
			errs = append(errs, errorf("domain", p, "required field %q is not declared", name))
		}
		required[name] = true
		used[name] = true
	}
	for j, name := range s.Optional {
		p := fmt.Sprintf("%s.optional[%d]", path, j)
		if _, ok := w.Field(name); !ok {
			errs = append(errs, errorf("domain", p, "optional field %q is not declared", name))
		}
		if required[name] {
			errs = append(errs, errorf("domain", p, "field %q is both required and optional", name))
		}
		used[name] = true
	}

	for j, r := range s.Rules {
		p := fmt.Sprintf("%s.rules[%d].expr", path, j)
		if _, err := eval.Compile(r.Expr); err != nil {
			errs = append(errs, errorf("domain", p, "rule does not compile: %s", err))
		}
		if r.Message == "" {
			errs = append(errs, warningf("domain", p, "rule has no message; the expression will be shown to users"))
		}
	}

	branchIDs := map[string]bool{}
	for j, b := range s.Branches {
		p := fmt.Sprintf("%s.branches[%d]", path, j)
		if b.ID == "" {
			errs = append(errs, errorf("domain", p+".id", "branch ID is required"))
		} else if branchIDs[b.ID] {
			errs = append(errs, errorf("domain", p+".id", "duplicate branch ID %q", b.ID))
		}
		branchIDs[b.ID] = true
		if _, err := eval.Compile(b.When); err != nil {
			errs = append(errs, errorf("domain", p+".when", "branch condition does not compile: %s", err))
		}
		if b.Notice == "" {
			errs = append(errs, warningf("domain", p+".notice", "branch %q has no notice", b.ID))
		}
	}
	return errs
}

func stepPath(i int) string {
	return fmt.Sprintf("steps[%d]", i)
}
