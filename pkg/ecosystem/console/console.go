// Package console implements a line-oriented walkthrough of the portal
// wizards on top of readline.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/aayaan07/quantum-kavach/pkg/ecosystem/recorder"
	"github.com/aayaan07/quantum-kavach/pkg/logging"
	"github.com/aayaan07/quantum-kavach/pkg/portal/role"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

// Options configures a console.
type Options struct {
	Role     string                 // declared role; routes auth and restricts wizards
	Analyzer func() enrich.Analyzer // nil uses enrich.NewSimulated
	Trace    *trace.Writer
	Logger   *slog.Logger
	Output   io.Writer // nil uses os.Stdout
}

// Console walks one wizard session at a time.
type Console struct {
	opts Options
	log  *slog.Logger

	outMu  sync.Mutex
	output io.Writer

	session   *engine.Session
	rec       *recorder.Recorder
	dashboard *role.Dashboard
}

// New creates a console. Call Start to open the first wizard.
func New(opts Options) *Console {
	log := opts.Logger
	if log == nil {
		log = logging.New("console")
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &Console{opts: opts, log: log, output: out}
}

// Session returns the current session, if any.
func (c *Console) Session() *engine.Session {
	return c.session
}

// Dashboard returns the dashboard entered after authentication, if any.
func (c *Console) Dashboard() (role.Dashboard, bool) {
	if c.dashboard == nil {
		return role.Dashboard{}, false
	}
	return *c.dashboard, true
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.output, format, args...)
}

// Start opens a session for the wizard kind. Once a dashboard has been
// entered, only the wizards it offers can be started.
func (c *Console) Start(kind string) error {
	if c.session != nil && c.session.Status() == engine.StatusActive {
		return fmt.Errorf("a %s session is still active; cancel it first", c.session.Wizard().Meta.Kind)
	}
	if c.dashboard != nil && !c.dashboard.CanLaunch(kind) {
		return fmt.Errorf("the %s dashboard does not offer the %s wizard", c.dashboard.Name, kind)
	}
	if c.dashboard == nil {
		if err := role.Authorize(c.opts.Role, kind); err != nil {
			return err
		}
	}
	w, err := schema.Builtin(kind)
	if err != nil {
		return err
	}

	rec := recorder.New(engine.ListenerFuncs{
		OnEnrichmentUpdated: func(res enrich.Result) {
			c.printf("\n  ✓ evidence analysed: score %d (%s)\n", res.Score, res.Tier)
		},
		OnEnrichmentFailed: func(err error) {
			c.printf("\n  ✗ evidence analysis failed: %v\n", err)
		},
	})
	rec.SetSensitive(w.SensitiveFields())

	id := engine.GenerateSessionID()
	cfg := engine.Config{
		ID:       id,
		Role:     c.opts.Role,
		Listener: rec,
		Logger:   c.log,
	}
	if c.opts.Analyzer != nil {
		cfg.Analyzer = c.opts.Analyzer()
	}
	if c.opts.Trace != nil {
		cfg.Trace = c.opts.Trace.WithSession(id)
	}
	s, err := engine.NewSession(w, cfg)
	if err != nil {
		return err
	}
	c.session = s
	c.rec = rec

	c.printf("%s — %d steps\n", w.Meta.Title, w.Total())
	c.showStep()
	return nil
}

// Run starts the interactive REPL loop.
func (c *Console) Run(ctx context.Context) error {
	var completer = readline.NewPrefixCompleter()
	for _, cmd := range commandNames {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	c.outMu.Lock()
	c.output = rl.Stdout()
	c.outMu.Unlock()

	c.printf("Type 'help' for available commands.\n\n")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rl.SetPrompt(c.prompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				c.shutdown()
				return nil
			}
			return err
		}
		if quit := c.Exec(line); quit {
			c.shutdown()
			return nil
		}
	}
}

// shutdown abandons an unfinished session.
func (c *Console) shutdown() {
	if c.session != nil && c.session.Status() == engine.StatusActive {
		c.session.Cancel()
	}
}

// prompt creates the prompt string: portal[N/total | step_id]>
func (c *Console) prompt() string {
	if c.session == nil || c.session.Status() != engine.StatusActive {
		return "portal> "
	}
	step := c.session.Current()
	return fmt.Sprintf("portal[%d/%d | %s]> ", c.session.Position(), c.session.Total(), step.ID)
}

// Exec runs one command line. It reports whether the console should exit.
func (c *Console) Exec(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	parts := strings.Fields(line)
	cmd := parts[0]

	switch cmd {
	case "set":
		c.handleSet(line, parts)
	case "attach", "a":
		c.handleAttach(parts)
	case "remove", "rm":
		c.handleRemove(parts)
	case "next", "n":
		c.handleNext()
	case "back", "b":
		c.handleBack()
	case "cancel":
		c.handleCancel()
	case "status", "s":
		c.handleStatus()
	case "fields", "f":
		c.handleFields()
	case "options", "o":
		c.handleOptions(parts)
	case "start":
		c.handleStart(parts)
	case "help", "?":
		c.handleHelp()
	case "quit", "q":
		c.printf("Exiting.\n")
		return true
	default:
		c.printf("Unknown command: %q. Type 'help' for available commands.\n", cmd)
	}
	return false
}
