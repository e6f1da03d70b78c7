package role

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aayaan07/quantum-kavach/pkg/logging"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

func TestParse(t *testing.T) {
	for _, r := range All() {
		got, err := Parse(string(r))
		if err != nil || got != r {
			t.Errorf("Parse(%q) = %q, %v", r, got, err)
		}
	}
	for _, bad := range []string{"", "Serving", "admin", " veteran"} {
		if _, err := Parse(bad); !errors.Is(err, ErrUnknownRole) {
			t.Errorf("Parse(%q) err = %v, want ErrUnknownRole", bad, err)
		}
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		role    Role
		title   string
		wizards []string
	}{
		{Serving, "Defence Cyber Command", []string{"incident"}},
		{Veteran, "Veteran Cyber Portal", []string{"incident"}},
		{Family, "Defence Family Cyber Safety", []string{"family"}},
	}
	for _, tt := range tests {
		d, err := Route(tt.role)
		if err != nil {
			t.Fatalf("Route(%s): %v", tt.role, err)
		}
		if d.Role != tt.role || d.Title != tt.title {
			t.Errorf("Route(%s) = %+v", tt.role, d)
		}
		if diff := cmp.Diff(tt.wizards, d.Wizards); diff != "" {
			t.Errorf("Route(%s) wizards (-want +got):\n%s", tt.role, diff)
		}
		for _, k := range tt.wizards {
			if _, err := schema.Builtin(k); err != nil {
				t.Errorf("dashboard %s offers missing wizard %q", tt.role, k)
			}
		}
	}
	if _, err := Route(Role("admin")); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("Route(admin) err = %v", err)
	}
}

func TestDashboard_CanLaunch(t *testing.T) {
	d, _ := Route(Family)
	if !d.CanLaunch("family") || d.CanLaunch("incident") {
		t.Errorf("family dashboard launch set = %v", d.Wizards)
	}
}

func TestDescribe(t *testing.T) {
	p, err := Describe(Veteran)
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Veteran/Ex-Serviceman" {
		t.Errorf("profile = %+v", p)
	}
}

// completeAuth walks the auth wizard with the given declared role.
func completeAuth(t *testing.T, declared string) engine.CompletionRecord {
	t.Helper()
	w, err := schema.Builtin("auth")
	if err != nil {
		t.Fatal(err)
	}
	var rec engine.CompletionRecord
	s, err := engine.NewSession(w, engine.Config{
		Role:     declared,
		Logger:   logging.Discard(),
		Listener: engine.ListenerFuncs{OnCompleted: func(r engine.CompletionRecord) { rec = r }},
	})
	if err != nil {
		t.Fatal(err)
	}
	steps := [][]any{
		{"branch", "airforce", "serviceNumber", "AF-778"},
		{"email", "pilot@iaf.gov.in", "phone", "9000000001"},
		{"otp", "000111"},
		{"securityAnswer", "delhi"},
		{},
	}
	for _, kv := range steps {
		for i := 0; i < len(kv); i += 2 {
			if err := s.SetField(kv[i].(string), kv[i+1]); err != nil {
				t.Fatal(err)
			}
		}
		s.Next()
	}
	if s.Status() != engine.StatusSubmitted {
		t.Fatalf("auth did not submit, at step %d", s.Position())
	}
	return rec
}

// A veteran's completed auth routes to the veteran context; an unset role
// is a configuration error rather than a default dashboard.
func TestFromRecord(t *testing.T) {
	d, err := FromRecord(completeAuth(t, "veteran"))
	if err != nil {
		t.Fatal(err)
	}
	if d.Role != Veteran || d.Name != "veteran" {
		t.Errorf("dashboard = %+v", d)
	}

	if _, err := FromRecord(completeAuth(t, "")); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("unset role err = %v, want ErrUnknownRole", err)
	}
}

func TestFromRecord_NotAuth(t *testing.T) {
	rec := engine.CompletionRecord{ID: "RPT-000001", Kind: "incident", Role: "serving"}
	if _, err := FromRecord(rec); err == nil {
		t.Error("expected error for non-auth record")
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		declared, kind string
		wantErr        bool
	}{
		{"", "incident", false},
		{"serving", "auth", false},
		{"serving", "incident", false},
		{"veteran", "incident", false},
		{"family", "family", false},
		{"family", "incident", true},
		{"serving", "family", true},
		{"admiral", "auth", true},
	}
	for _, tt := range tests {
		err := Authorize(tt.declared, tt.kind)
		if (err != nil) != tt.wantErr {
			t.Errorf("Authorize(%q, %q) = %v, wantErr %v", tt.declared, tt.kind, err, tt.wantErr)
		}
	}
	if err := Authorize("admiral", "auth"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("err = %v, want ErrUnknownRole", err)
	}
}
