package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/aayaan07/quantum-kavach/pkg/evidence"
	"github.com/aayaan07/quantum-kavach/pkg/portal/role"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

var commandNames = []string{"set", "attach", "remove", "next", "back", "cancel",
	"status", "fields", "options", "start", "help", "quit"}

// active returns the session if it can still be edited.
func (c *Console) active() (*engine.Session, bool) {
	if c.session == nil {
		c.printf("No wizard running. Use 'start <kind>'.\n")
		return nil, false
	}
	if c.session.Status() != engine.StatusActive {
		c.printf("The %s wizard has ended (%s). Use 'start <kind>'.\n", c.session.Wizard().Meta.Kind, c.session.Status())
		return nil, false
	}
	return c.session, true
}

// handleSet assigns the rest of the line to a field.
func (c *Console) handleSet(line string, parts []string) {
	s, ok := c.active()
	if !ok {
		return
	}
	if len(parts) < 2 {
		c.printf("Usage: set <field> <value>\n")
		return
	}
	name := parts[1]
	fd, ok := s.Wizard().Field(name)
	if !ok {
		c.printf("Unknown field %q. Type 'fields' to list this step's fields.\n", name)
		return
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
	raw := strings.TrimSpace(strings.TrimPrefix(rest, name))
	value, err := engine.ParseFieldValue(fd, raw)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	if err := s.SetField(name, value); err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	c.printf("  %s = %s\n", name, display(fd, value))
}

// handleAttach attaches files, or bare names when no such file exists.
func (c *Console) handleAttach(parts []string) {
	s, ok := c.active()
	if !ok {
		return
	}
	if len(parts) < 2 {
		c.printf("Usage: attach <path> [<path>...]\n")
		return
	}
	var items []form.EvidenceItem
	for _, p := range parts[1:] {
		items = append(items, evidence.FromPath(p))
	}
	n, err := s.Attach(items...)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	c.printf("  attached %d item(s); analysing evidence...\n", n)
}

func (c *Console) handleRemove(parts []string) {
	s, ok := c.active()
	if !ok {
		return
	}
	if len(parts) != 2 {
		c.printf("Usage: remove <index>\n")
		return
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		c.printf("Error: index must be a number\n")
		return
	}
	removed, err := s.RemoveEvidence(idx)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	c.printf("  removed %s\n", removed.Name)
}

func (c *Console) handleNext() {
	s, ok := c.active()
	if !ok {
		return
	}
	tr := s.Next()
	switch tr.Kind {
	case engine.TransitionBlocked:
		c.printf("  ✗ cannot continue yet\n")
		for _, m := range tr.Check.Missing {
			c.printf("    - %s is required\n", m)
		}
		for _, r := range tr.Check.FailedRules {
			c.printf("    - %s\n", r)
		}
	case engine.TransitionAdvanced:
		c.showStep()
	case engine.TransitionSubmitted:
		c.onSubmitted()
	}
}

func (c *Console) onSubmitted() {
	rec, _ := c.rec.Record()
	c.printf("  ✓ submitted %s\n", rec.ID)
	if rec.Enrichment != nil {
		c.printf("    evidence score %d (%s)\n", rec.Enrichment.Score, rec.Enrichment.Tier)
	}
	if rec.Kind != "auth" {
		return
	}
	d, err := role.FromRecord(rec)
	if err != nil {
		c.printf("  ✗ cannot open a dashboard: %v\n", err)
		return
	}
	c.dashboard = &d
	c.printf("\n%s\n%s\n", d.Title, d.Welcome)
	for _, k := range d.Wizards {
		c.printf("  start %s\n", k)
	}
}

func (c *Console) handleBack() {
	s, ok := c.active()
	if !ok {
		return
	}
	tr := s.Back()
	if tr.Kind == engine.TransitionAbandoned {
		c.printf("  wizard abandoned\n")
		return
	}
	c.showStep()
}

func (c *Console) handleCancel() {
	s, ok := c.active()
	if !ok {
		return
	}
	s.Cancel()
	c.printf("  wizard abandoned\n")
}

func (c *Console) handleStart(parts []string) {
	if len(parts) != 2 {
		c.printf("Usage: start <%s>\n", strings.Join(schema.BuiltinKinds(), "|"))
		return
	}
	if err := c.Start(parts[1]); err != nil {
		c.printf("Error: %v\n", err)
	}
}

// handleStatus shows position, gate, branches and enrichment.
func (c *Console) handleStatus() {
	if c.session == nil {
		c.printf("No wizard running.\n")
		return
	}
	v := c.session.View()
	c.printf("%s  %s  step %d/%d (%s)  %.0f%%\n", v.Wizard, v.Status, v.Position, v.Total, v.StepID, v.Progress*100)
	if v.Status != engine.StatusActive {
		return
	}
	if v.Gate.Allowed {
		c.printf("  ready to continue\n")
	} else {
		c.printf("  missing: %s\n", strings.Join(v.Gate.Missing, ", "))
		for _, r := range v.Gate.FailedRules {
			c.printf("  rule: %s\n", r)
		}
	}
	for _, b := range v.Branches {
		c.printf("  ! %s\n", b.Notice)
	}
	switch v.EnrichmentState {
	case enrich.StateRunning:
		c.printf("  evidence: analysing...\n")
	case enrich.StateComplete:
		if v.Enrichment != nil {
			c.printf("  evidence: score %d (%s)\n", v.Enrichment.Score, v.Enrichment.Tier)
		}
	case enrich.StateFailed:
		c.printf("  evidence: analysis failed\n")
	}
}

// handleFields lists the current step's fields with their values.
func (c *Console) handleFields() {
	s, ok := c.active()
	if !ok {
		return
	}
	step := s.Current()
	vals := s.Values()
	w := s.Wizard()

	labels := make([]string, 0, len(step.Fields()))
	width := 0
	for _, name := range step.Fields() {
		label := name
		if fd, ok := w.Field(name); ok && fd.Label != "" {
			label = fd.Label
		}
		labels = append(labels, label)
		if lw := runewidth.StringWidth(label); lw > width {
			width = lw
		}
	}
	if len(labels) == 0 {
		c.printf("  (no fields on this step)\n")
		return
	}
	required := map[string]bool{}
	for _, r := range step.Required {
		required[r] = true
	}
	for i, name := range step.Fields() {
		mark := " "
		if required[name] {
			mark = "*"
		}
		fd, _ := w.Field(name)
		c.printf(" %s %s  %-16s %s\n", mark, runewidth.FillRight(labels[i], width), name, display(fd, vals[name]))
	}
}

func (c *Console) handleOptions(parts []string) {
	s, ok := c.active()
	if !ok {
		return
	}
	if len(parts) != 2 {
		c.printf("Usage: options <field>\n")
		return
	}
	fd, ok := s.Wizard().Field(parts[1])
	if !ok || fd.Type != schema.FieldChoice {
		c.printf("%q is not a choice field\n", parts[1])
		return
	}
	width := 0
	for _, o := range fd.Options {
		if lw := runewidth.StringWidth(o.Value); lw > width {
			width = lw
		}
	}
	for _, o := range fd.Options {
		line := fmt.Sprintf("  %s  %s", runewidth.FillRight(o.Value, width), o.Label)
		if o.Severity != "" {
			line += " [" + o.Severity + "]"
		}
		c.printf("%s\n", line)
		if o.Help != "" {
			c.printf("  %s  %s\n", strings.Repeat(" ", width), o.Help)
		}
	}
}

func (c *Console) showStep() {
	step := c.session.Current()
	c.printf("\nStep %d/%d: %s\n", c.session.Position(), c.session.Total(), step.Title)
	if step.Description != "" {
		c.printf("%s\n", step.Description)
	}
	for _, b := range c.session.ActiveBranches() {
		c.printf("! %s\n", b.Notice)
	}
}

// display renders a value for the terminal, masking sensitive fields.
func display(fd *schema.FieldDef, v any) string {
	if fd != nil && fd.Sensitive && !form.IsEmpty(v) {
		return trace.Redacted
	}
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case []form.EvidenceItem:
		if len(val) == 0 {
			return "-"
		}
		names := make([]string, len(val))
		for i, it := range val {
			names[i] = fmt.Sprintf("[%d] %s (%s)", i, it.Name, it.Kind)
		}
		return strings.Join(names, ", ")
	default:
		return fmt.Sprint(val)
	}
}

func (c *Console) handleHelp() {
	c.printf(`Commands:
  set <field> <value>   Set a field on the current step
  attach <path>...      Attach evidence files
  remove <index>        Remove an attached evidence item
  next (n)              Continue, or submit on the last step
  back (b)              Go back; on the first step this abandons the wizard
  cancel                Abandon the wizard
  status (s)            Show progress, missing fields and evidence analysis
  fields (f)            List this step's fields (* = required)
  options <field>       List the choices for a field
  start <kind>          Start a wizard (auth, incident, family)
  help (?)              Show this help
  quit (q)              Exit
`)
}
