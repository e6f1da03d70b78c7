package eval

import "testing"

func TestEvalBool(t *testing.T) {
	tests := []struct {
		name string
		expr string
		env  map[string]any
		want bool
	}{
		{"empty is true", "", nil, true},
		{"length match", "len(otp) == 6", map[string]any{"otp": "123456"}, true},
		{"length mismatch", "len(otp) == 6", map[string]any{"otp": "12345"}, false},
		{"bool true", "contactConsent == true", map[string]any{"contactConsent": true}, true},
		{"bool false", "contactConsent == true", map[string]any{"contactConsent": false}, false},
		{"string equality", `urgency == "emergency"`, map[string]any{"urgency": "emergency"}, true},
		{"string inequality", `urgency == "emergency"`, map[string]any{"urgency": "soon"}, false},
		{"undefined var compares nil", `urgency == "emergency"`, map[string]any{}, false},
		{"slice length", "len(evidence) > 0", map[string]any{"evidence": []string{"a"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalBool(tt.expr, tt.env)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("EvalBool(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, src := range []string{"   ", "otp ==", `"not a bool"`} {
		if _, err := Compile(src); err == nil {
			t.Errorf("Compile(%q): expected error", src)
		}
	}
}

func TestCompile_Cached(t *testing.T) {
	a, err := Compile("x == 1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile("  x == 1 ")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected cached program for identical source")
	}
	if a.Source() != "x == 1" {
		t.Errorf("Source = %q", a.Source())
	}
}

func TestEval_RuntimeError(t *testing.T) {
	p, err := Compile("len(otp) == 6")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Eval(map[string]any{"otp": 42}); err == nil {
		t.Error("expected runtime error for len(int)")
	}
}
