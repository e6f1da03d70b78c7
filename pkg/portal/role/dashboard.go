package role

import (
	"fmt"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
)

// Dashboard is the downstream context entered after authentication.
type Dashboard struct {
	Role    Role     `json:"role"`
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Welcome string   `json:"welcome"`
	Wizards []string `json:"wizards"` // wizard kinds the dashboard can launch
}

// CanLaunch reports whether the dashboard offers the wizard kind.
func (d Dashboard) CanLaunch(kind string) bool {
	for _, k := range d.Wizards {
		if k == kind {
			return true
		}
	}
	return false
}

type dashboards struct{}

func (dashboards) Serving() Dashboard {
	return Dashboard{
		Role:    Serving,
		Name:    "serving",
		Title:   "Defence Cyber Command",
		Welcome: "Report incidents and track threats targeting serving personnel.",
		Wizards: []string{"incident"},
	}
}

func (dashboards) Veteran() Dashboard {
	return Dashboard{
		Role:    Veteran,
		Name:    "veteran",
		Title:   "Veteran Cyber Portal",
		Welcome: "Welcome, Veteran. Report suspicious contact and review current threats.",
		Wizards: []string{"incident"},
	}
}

func (dashboards) Family() Dashboard {
	return Dashboard{
		Role:    Family,
		Name:    "family",
		Title:   "Defence Family Cyber Safety",
		Welcome: "Welcome to Family Cyber Safety. We will guide you step by step.",
		Wizards: []string{"family"},
	}
}

// Route selects the dashboard for r. Unknown roles are an error, never a
// default dashboard.
func Route(r Role) (Dashboard, error) {
	return Match[Dashboard](r, dashboards{})
}

// FromRecord routes a completed authentication record by its declared role.
func FromRecord(rec engine.CompletionRecord) (Dashboard, error) {
	if rec.Kind != "auth" {
		return Dashboard{}, fmt.Errorf("record %s is a %q record, not auth", rec.ID, rec.Kind)
	}
	r, err := Parse(rec.Role)
	if err != nil {
		return Dashboard{}, fmt.Errorf("route %s: %w", rec.ID, err)
	}
	return Route(r)
}

// Authorize checks that a declared role may open the wizard kind directly.
// An empty role is not checked and auth is open to every known role.
func Authorize(declared, kind string) error {
	if declared == "" {
		return nil
	}
	r, err := Parse(declared)
	if err != nil {
		return err
	}
	if kind == "auth" {
		return nil
	}
	d, err := Route(r)
	if err != nil {
		return err
	}
	if !d.CanLaunch(kind) {
		return fmt.Errorf("the %s dashboard does not offer the %s wizard", d.Name, kind)
	}
	return nil
}
