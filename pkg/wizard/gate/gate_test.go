package gate

import (
	"testing"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

func builtin(t *testing.T, kind string) *schema.Wizard {
	t.Helper()
	w, err := schema.Builtin(kind)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func step(t *testing.T, w *schema.Wizard, pos int) *schema.Step {
	t.Helper()
	s, ok := w.StepAt(pos)
	if !ok {
		t.Fatalf("no step %d", pos)
	}
	return s
}

func TestCheck_RequiredFields(t *testing.T) {
	w := builtin(t, "auth")
	s := step(t, w, 1)

	tests := []struct {
		name    string
		vals    form.Values
		allowed bool
		missing int
	}{
		{"nothing set", form.Values{}, false, 2},
		{"branch only", form.Values{"branch": "army"}, false, 1},
		{"blank service number", form.Values{"branch": "army", "serviceNumber": "  "}, false, 1},
		{"both set", form.Values{"branch": "army", "serviceNumber": "IC-12345"}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(s, tt.vals)
			if res.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v", res.Allowed, tt.allowed)
			}
			if len(res.Missing) != tt.missing {
				t.Errorf("Missing = %v, want %d entries", res.Missing, tt.missing)
			}
			if CanAdvance(s, tt.vals) != tt.allowed {
				t.Error("CanAdvance disagrees with Check")
			}
		})
	}
}

func TestCheck_OTPLength(t *testing.T) {
	s := step(t, builtin(t, "auth"), 3)
	for otp, want := range map[string]bool{
		"":        false,
		"12345":   false,
		"123456":  true,
		"1234567": false,
		"abcdef":  false,
		"12 456":  false,
	} {
		if got := CanAdvance(s, form.Values{"otp": otp}); got != want {
			t.Errorf("otp %q: CanAdvance = %v, want %v", otp, got, want)
		}
	}
	res := Check(s, form.Values{"otp": "123"})
	if len(res.FailedRules) != 1 || res.FailedRules[0] != "OTP must be exactly 6 digits" {
		t.Errorf("FailedRules = %v", res.FailedRules)
	}
}

func TestCheck_ConsentOnTerminalStep(t *testing.T) {
	w := builtin(t, "incident")
	review := step(t, w, 4)
	if CanAdvance(review, form.Values{"contactConsent": false}) {
		t.Error("review must be blocked without consent")
	}
	if !CanAdvance(review, form.Values{"contactConsent": true}) {
		t.Error("review must pass with consent")
	}
	// Consent is irrelevant before the terminal step.
	if !CanAdvance(step(t, w, 3), form.Values{}) {
		t.Error("evidence step has no required fields")
	}
}

func TestCheck_RuleErrorCountsAsFailure(t *testing.T) {
	s := &schema.Step{Rules: []schema.Rule{{Expr: "len(otp) == 6"}}}
	res := Check(s, form.Values{"otp": 123456})
	if res.Allowed {
		t.Error("runtime error must block")
	}
	if res.FailedRules[0] != "len(otp) == 6" {
		t.Errorf("label = %q, want expression fallback", res.FailedRules[0])
	}
}

func TestCheck_EvidenceRequired(t *testing.T) {
	s := &schema.Step{Required: []string{"evidence"}}
	if CanAdvance(s, form.Values{"evidence": []form.EvidenceItem{}}) {
		t.Error("empty evidence list must block")
	}
	if !CanAdvance(s, form.Values{"evidence": []form.EvidenceItem{{Name: "a"}}}) {
		t.Error("one item must pass")
	}
}

func TestCheck_NilStep(t *testing.T) {
	if CanAdvance(nil, form.Values{}) {
		t.Error("nil step must never allow advance")
	}
}

// Every builtin step blocks while empty when it has requirements, and
// passes once its required fields are set and its rules satisfied.
func TestCheck_AllBuiltins(t *testing.T) {
	filled := map[string]any{
		"otp":            "654321",
		"contactConsent": true,
	}
	for _, kind := range schema.BuiltinKinds() {
		w := builtin(t, kind)
		for i := range w.Steps {
			s := &w.Steps[i]
			if len(s.Required) > 0 && CanAdvance(s, form.Values{}) {
				t.Errorf("%s step %d: allowed with empty form", kind, i+1)
			}
			vals := form.Values{}
			for _, name := range s.Required {
				vals[name] = "value"
			}
			for k, v := range filled {
				vals[k] = v
			}
			if !CanAdvance(s, vals) {
				t.Errorf("%s step %d: blocked with all fields set: %+v", kind, i+1, Check(s, vals))
			}
		}
	}
}
