package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

// View renders the current phase.
func (m Model) View() string {
	var body string
	focused := kindNone
	switch m.phase {
	case phaseDashboard:
		body = m.viewDashboard()
	case phaseDone:
		body = m.viewDone()
	default:
		body = m.viewWizard()
		focused = kindOf(m.focusedField())
	}

	var b strings.Builder
	b.WriteString(body)
	if m.status != "" {
		b.WriteString("\n\n")
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(okStyle.Render(m.status))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(keyBarStyle.Render(keyBarText(m.phase, focused)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) header(title string) string {
	h := headerStyle.Render(title)
	if m.opts.Role != "" {
		h = lipgloss.JoinHorizontal(lipgloss.Center, h, " ", roleBadgeStyle.Render(strings.ToUpper(m.opts.Role)))
	}
	return h
}

func (m Model) viewWizard() string {
	v := m.session.View()
	w := m.session.Wizard()
	step := m.session.Current()

	var b strings.Builder
	b.WriteString(m.header(w.Meta.Title))
	b.WriteString("\n")
	b.WriteString(progressBar(v.Position, v.Total, 30))
	b.WriteString("\n\n")
	b.WriteString(stepTitleStyle.Render(step.Title))
	b.WriteString("\n")
	if step.Description != "" {
		b.WriteString(renderMarkdown(step.Description))
		b.WriteString("\n")
	}

	required := map[string]bool{}
	for _, r := range step.Required {
		required[r] = true
	}
	var fields []string
	for i, name := range step.Fields() {
		fd, ok := w.Field(name)
		if !ok {
			continue
		}
		fields = append(fields, m.viewField(fd, v.Fields[name], i == m.focus, required[name]))
	}
	if len(fields) > 0 {
		b.WriteString("\n")
		b.WriteString(panelBorder.Render(strings.Join(fields, "\n")))
	}

	for _, br := range v.Branches {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(GlyphNotice + " " + strings.TrimSpace(br.Notice)))
	}

	if w.EvidenceField() != "" {
		if line := m.viewEnrichment(v); line != "" {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}

func (m Model) viewField(fd *schema.FieldDef, value any, focused, required bool) string {
	label := fd.Label
	if label == "" {
		label = fd.Name
	}
	prefix := "  "
	labelStyled := fieldLabelStyle.Render(label)
	if focused {
		prefix = GlyphFocus + " "
		labelStyled = fieldFocusStyle.Render(label)
	}
	if required {
		labelStyled += requiredStyle.Render(" *")
	}

	var b strings.Builder
	b.WriteString(prefix + labelStyled)
	switch kindOf(fd) {
	case kindBool:
		box := GlyphUnchecked
		if on, _ := value.(bool); on {
			box = GlyphChecked
		}
		b.WriteString(" " + box)

	case kindChoice:
		cur, _ := value.(string)
		cursor := m.choices[fd.Name]
		for j, o := range fd.Options {
			mark := GlyphOption
			if o.Value == cur {
				mark = GlyphSelected
			}
			pointer := "   "
			if focused && j == cursor {
				pointer = " " + GlyphFocus + " "
			}
			text := o.Label
			if text == "" {
				text = o.Value
			}
			if o.Severity != "" {
				text += " [" + o.Severity + "]"
			}
			b.WriteString("\n" + pointer + mark + " " + text)
			if focused && j == cursor && o.Help != "" {
				b.WriteString("\n       " + optionHelpStyle.Render(o.Help))
			}
		}

	case kindEvidence:
		items, _ := value.([]form.EvidenceItem)
		for j, it := range items {
			b.WriteString(fmt.Sprintf("\n    [%d] %s (%s)", j, it.Name, it.Kind))
		}
		if focused {
			b.WriteString("\n    " + m.input.View())
		}

	default:
		if focused {
			b.WriteString("\n    " + m.input.View())
		} else {
			b.WriteString("  " + hintStyle.Render(displayValue(fd, value)))
		}
	}
	return b.String()
}

func (m Model) viewEnrichment(v engine.View) string {
	switch v.EnrichmentState {
	case enrich.StateRunning:
		return m.spinner.View() + " analysing evidence..."
	case enrich.StateComplete:
		if v.Enrichment != nil {
			return "evidence score " + tierStyle(string(v.Enrichment.Tier)).Render(
				fmt.Sprintf("%d (%s)", v.Enrichment.Score, v.Enrichment.Tier))
		}
	case enrich.StateFailed:
		return errorStyle.Render(GlyphFailed + " evidence analysis failed")
	}
	return ""
}

func (m Model) viewDashboard() string {
	d := m.dashboard
	var b strings.Builder
	b.WriteString(m.header(d.Title))
	b.WriteString("\n")
	b.WriteString(d.Welcome)
	b.WriteString("\n\n")
	for i, kind := range d.Wizards {
		title := kind
		if w, err := schema.Builtin(kind); err == nil && w.Meta.Title != "" {
			title = w.Meta.Title
		}
		if i == m.dashIdx {
			b.WriteString(fieldFocusStyle.Render(GlyphFocus + " " + title))
		} else {
			b.WriteString("  " + title)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewDone() string {
	if m.record == nil {
		return bannerStyle.Render("Wizard closed")
	}
	rec := m.record
	lines := []string{fmt.Sprintf("%s %s submitted", GlyphDone, rec.Wizard), "Reference " + rec.ID}
	if rec.Enrichment != nil {
		lines = append(lines, fmt.Sprintf("Evidence score %d (%s)", rec.Enrichment.Score, rec.Enrichment.Tier))
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

// progressBar renders "▰▰▱▱ step 2/4".
func progressBar(pos, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := pos * width / total
	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return hintStyle.Render(fmt.Sprintf("%s step %d/%d", bar, pos, total))
}

// displayValue renders a value, masking sensitive fields.
func displayValue(fd *schema.FieldDef, v any) string {
	if fd.Sensitive && !form.IsEmpty(v) {
		return trace.Redacted
	}
	if form.IsEmpty(v) {
		return "-"
	}
	return fmt.Sprint(v)
}
