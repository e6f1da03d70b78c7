// Package tui is the Bubble Tea front end for the portal wizards: it walks
// authentication, routes to the role dashboard and runs the wizards that
// dashboard offers.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aayaan07/quantum-kavach/pkg/ecosystem/recorder"
	"github.com/aayaan07/quantum-kavach/pkg/evidence"
	"github.com/aayaan07/quantum-kavach/pkg/logging"
	"github.com/aayaan07/quantum-kavach/pkg/portal/role"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

type phase int

const (
	phaseWizard phase = iota
	phaseDashboard
	phaseDone
)

type fieldKind int

const (
	kindNone fieldKind = iota
	kindString
	kindBool
	kindChoice
	kindEvidence
)

func kindOf(fd *schema.FieldDef) fieldKind {
	if fd == nil {
		return kindNone
	}
	switch fd.Type {
	case schema.FieldBool:
		return kindBool
	case schema.FieldChoice:
		return kindChoice
	case schema.FieldEvidence:
		return kindEvidence
	default:
		return kindString
	}
}

// Options configures the TUI.
type Options struct {
	Role     string                 // declared role carried into the auth record
	Kind     string                 // first wizard; "" starts with auth
	Analyzer func() enrich.Analyzer // nil uses enrich.NewSimulated
	Trace    *trace.Writer
	Logger   *slog.Logger
}

// Messages delivered from the session listener.
type (
	enrichmentMsg       struct{ res enrich.Result }
	enrichmentFailedMsg struct{ err error }
)

// Model is the Bubble Tea model for a portal run.
type Model struct {
	opts   Options
	log    *slog.Logger
	events chan tea.Msg

	phase     phase
	session   *engine.Session
	rec       *recorder.Recorder
	dashboard *role.Dashboard
	dashIdx   int

	focus   int
	input   textinput.Model
	choices map[string]int // option cursor per choice field
	spinner spinner.Model

	status    string
	statusErr bool
	record    *engine.CompletionRecord
	width     int
}

// NewModel creates the model and opens the first wizard. A declared role
// must be allowed to launch a non-auth kind.
func NewModel(opts Options) (Model, error) {
	if opts.Kind == "" {
		opts.Kind = "auth"
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		opts:    opts,
		log:     log,
		events:  make(chan tea.Msg, 16),
		input:   ti,
		spinner: sp,
		width:   80,
	}

	if err := role.Authorize(opts.Role, opts.Kind); err != nil {
		return Model{}, err
	}
	if err := m.start(opts.Kind); err != nil {
		return Model{}, err
	}
	return m, nil
}

// start opens a session for kind and focuses its first field.
func (m *Model) start(kind string) error {
	w, err := schema.Builtin(kind)
	if err != nil {
		return err
	}
	events := m.events
	rec := recorder.New(engine.ListenerFuncs{
		OnEnrichmentUpdated: func(res enrich.Result) { send(events, enrichmentMsg{res: res}) },
		OnEnrichmentFailed:  func(err error) { send(events, enrichmentFailedMsg{err: err}) },
	})
	rec.SetSensitive(w.SensitiveFields())

	id := engine.GenerateSessionID()
	cfg := engine.Config{
		ID:       id,
		Role:     m.opts.Role,
		Listener: rec,
		Logger:   m.log,
	}
	if m.opts.Analyzer != nil {
		cfg.Analyzer = m.opts.Analyzer()
	}
	if m.opts.Trace != nil {
		cfg.Trace = m.opts.Trace.WithSession(id)
	}
	s, err := engine.NewSession(w, cfg)
	if err != nil {
		return err
	}
	m.session = s
	m.rec = rec
	m.record = nil
	m.choices = map[string]int{}
	m.phase = phaseWizard
	m.setStatus("", false)
	m.focusField(0)
	return nil
}

// send drops msg when the buffer is full.
func send(ch chan tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}

// waitForEvent returns a command that waits for the next listener message.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Init starts the spinner and the listener subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), textinput.Blink)
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 20 {
			m.input.Width = msg.Width - 20
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case enrichmentMsg:
		m.setStatus(fmt.Sprintf("%s evidence analysed: score %d (%s)", GlyphDone, msg.res.Score, msg.res.Tier), false)
		return m, m.waitForEvent()

	case enrichmentFailedMsg:
		m.setStatus(fmt.Sprintf("%s evidence analysis failed: %v", GlyphFailed, msg.err), true)
		return m, m.waitForEvent()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		if m.session != nil && m.session.Status() == engine.StatusActive {
			m.session.Cancel()
		}
		return m, tea.Quit
	}
	switch m.phase {
	case phaseDashboard:
		return m.handleDashboardKey(msg)
	case phaseDone:
		return m.handleDoneKey(msg)
	}
	return m.handleWizardKey(msg)
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dashboard
	switch {
	case key.Matches(msg, keys.Up):
		if m.dashIdx > 0 {
			m.dashIdx--
		}
	case key.Matches(msg, keys.Down):
		if m.dashIdx < len(d.Wizards)-1 {
			m.dashIdx++
		}
	case key.Matches(msg, keys.Next):
		if len(d.Wizards) == 0 {
			return m, nil
		}
		if err := m.start(d.Wizards[m.dashIdx]); err != nil {
			m.setStatus(err.Error(), true)
		}
	}
	return m, nil
}

func (m Model) handleDoneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, keys.Next) {
		return m, nil
	}
	if m.dashboard == nil {
		return m, tea.Quit
	}
	m.phase = phaseDashboard
	m.setStatus("", false)
	return m, nil
}

func (m Model) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fd := m.focusedField()
	kind := kindOf(fd)

	switch {
	case key.Matches(msg, keys.Next):
		if kind == kindEvidence && strings.TrimSpace(m.input.Value()) != "" {
			m.attach(m.input.Value())
			return m, nil
		}
		if !m.commit() {
			return m, nil
		}
		return m.next()

	case key.Matches(msg, keys.Back):
		m.commit()
		return m.back()

	case key.Matches(msg, keys.NextField):
		if m.commit() {
			m.focusField(m.focus + 1)
		}
		return m, nil

	case key.Matches(msg, keys.PrevField):
		if m.commit() {
			m.focusField(m.focus - 1)
		}
		return m, nil

	case kind == kindChoice && key.Matches(msg, keys.Up):
		if m.choices[fd.Name] > 0 {
			m.choices[fd.Name]--
		}
		return m, nil

	case kind == kindChoice && key.Matches(msg, keys.Down):
		if m.choices[fd.Name] < len(fd.Options)-1 {
			m.choices[fd.Name]++
		}
		return m, nil

	case kind == kindChoice && key.Matches(msg, keys.Toggle):
		m.selectChoice(fd)
		return m, nil

	case kind == kindBool && key.Matches(msg, keys.Toggle):
		cur, _ := m.session.Values()[fd.Name].(bool)
		m.set(fd, !cur)
		return m, nil
	}

	if kind == kindString || kind == kindEvidence {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// next advances, reports the blocking gate, or submits.
func (m Model) next() (tea.Model, tea.Cmd) {
	tr := m.session.Next()
	switch tr.Kind {
	case engine.TransitionBlocked:
		var reasons []string
		for _, f := range tr.Check.Missing {
			reasons = append(reasons, m.label(f)+" is required")
		}
		reasons = append(reasons, tr.Check.FailedRules...)
		m.setStatus(GlyphFailed+" "+strings.Join(reasons, "; "), true)
	case engine.TransitionAdvanced:
		m.setStatus("", false)
		m.focusField(0)
	case engine.TransitionSubmitted:
		m.onSubmitted()
	}
	return m, nil
}

func (m Model) back() (tea.Model, tea.Cmd) {
	tr := m.session.Back()
	if tr.Kind != engine.TransitionAbandoned {
		m.setStatus("", false)
		m.focusField(0)
		return m, nil
	}
	m.input.Blur()
	if m.dashboard != nil {
		m.phase = phaseDashboard
		m.setStatus("wizard abandoned", false)
		return m, nil
	}
	m.phase = phaseDone
	m.setStatus("wizard abandoned", true)
	return m, nil
}

// onSubmitted records the completion and routes an auth record to its
// dashboard.
func (m *Model) onSubmitted() {
	m.input.Blur()
	m.phase = phaseDone
	rec, ok := m.rec.Record()
	if !ok {
		m.setStatus("submission was not recorded", true)
		return
	}
	m.record = &rec
	m.setStatus(GlyphDone+" submitted "+rec.ID, false)
	if rec.Kind != "auth" {
		return
	}
	d, err := role.FromRecord(rec)
	if err != nil {
		m.setStatus(fmt.Sprintf("%s cannot open a dashboard: %v", GlyphFailed, err), true)
		return
	}
	m.dashboard = &d
	m.dashIdx = 0
	m.phase = phaseDashboard
}

// commit writes the text input into the focused string field. It reports
// false when the value was rejected.
func (m *Model) commit() bool {
	fd := m.focusedField()
	if kindOf(fd) != kindString {
		return true
	}
	v, err := engine.ParseFieldValue(fd, m.input.Value())
	if err != nil {
		m.setStatus(err.Error(), true)
		return false
	}
	return m.set(fd, v)
}

func (m *Model) set(fd *schema.FieldDef, v any) bool {
	if err := m.session.SetField(fd.Name, v); err != nil {
		m.setStatus(err.Error(), true)
		return false
	}
	return true
}

func (m *Model) selectChoice(fd *schema.FieldDef) {
	idx := m.choices[fd.Name]
	if idx < 0 || idx >= len(fd.Options) {
		return
	}
	if m.set(fd, fd.Options[idx].Value) {
		m.setStatus("", false)
	}
}

// attach adds the file at path as an evidence item.
func (m *Model) attach(path string) {
	item := evidence.FromPath(strings.TrimSpace(path))
	if _, err := m.session.Attach(item); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.input.Reset()
	m.setStatus("attached "+item.Name+"; analysing evidence", false)
}

// focusField moves focus to the i-th field of the current step, clamped,
// and loads its value into the text input.
func (m *Model) focusField(i int) {
	names := m.session.Current().Fields()
	if len(names) == 0 {
		m.focus = 0
		m.input.Blur()
		return
	}
	if i < 0 {
		i = len(names) - 1
	}
	if i >= len(names) {
		i = 0
	}
	m.focus = i
	fd := m.focusedField()
	m.input.Reset()
	m.input.EchoMode = textinput.EchoNormal
	switch kindOf(fd) {
	case kindString:
		s, _ := m.session.Values()[fd.Name].(string)
		m.input.SetValue(s)
		m.input.Placeholder = fd.Label
		if fd.Sensitive {
			m.input.EchoMode = textinput.EchoPassword
		}
		m.input.Focus()
	case kindEvidence:
		m.input.Placeholder = "path to a file, enter to attach"
		m.input.Focus()
	case kindChoice:
		cur, _ := m.session.Values()[fd.Name].(string)
		for j, o := range fd.Options {
			if o.Value == cur {
				m.choices[fd.Name] = j
			}
		}
		m.input.Blur()
	default:
		m.input.Blur()
	}
}

func (m Model) focusedField() *schema.FieldDef {
	if m.session == nil || m.session.Status() != engine.StatusActive {
		return nil
	}
	names := m.session.Current().Fields()
	if m.focus < 0 || m.focus >= len(names) {
		return nil
	}
	fd, _ := m.session.Wizard().Field(names[m.focus])
	return fd
}

func (m Model) label(name string) string {
	if fd, ok := m.session.Wizard().Field(name); ok && fd.Label != "" {
		return fd.Label
	}
	return name
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// Session returns the current wizard session.
func (m Model) Session() *engine.Session { return m.session }

// Dashboard returns the dashboard entered after authentication, if any.
func (m Model) Dashboard() (role.Dashboard, bool) {
	if m.dashboard == nil {
		return role.Dashboard{}, false
	}
	return *m.dashboard, true
}

// Record returns the last completion record, if any.
func (m Model) Record() (engine.CompletionRecord, bool) {
	if m.record == nil {
		return engine.CompletionRecord{}, false
	}
	return *m.record, true
}

// Run starts the TUI program and blocks until it exits.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.session != nil && fm.session.Status() == engine.StatusActive {
		fm.session.Cancel()
	}
	return nil
}
