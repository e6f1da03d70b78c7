// Package main provides the portal binary: the guided wizards of the
// defence cyber portal as a terminal UI, a line console and an MCP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/aayaan07/quantum-kavach/pkg/config"
	"github.com/aayaan07/quantum-kavach/pkg/logging"
	"github.com/aayaan07/quantum-kavach/pkg/portal/role"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/validate"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Global flags and the state PersistentPreRunE resolves from them.
var (
	flagLogLevel  string
	flagLogFormat string
	flagTrace     string
	flagEnvFile   string

	cfg         *config.Config
	traceWriter *trace.Writer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "portal",
	Short:             "Quantum Kavach defence cyber portal",
	Long:              "portal — guided authentication, incident reporting and family reporting wizards for defence personnel and their families.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if traceWriter != nil {
			return traceWriter.Close()
		}
		return nil
	},
}

// setup loads the config, applies flag overrides, and initializes logging
// and the optional trace file.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(flagEnvFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = flagLogFormat
	}
	if flags.Changed("trace") {
		c.Trace = flagTrace
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid --log-format %q: expected text or json", c.LogFormat)
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(level, c.LogFormat, os.Stderr)

	if c.Trace != "" {
		tw, err := trace.NewFileWriter(c.Trace, "")
		if err != nil {
			return err
		}
		traceWriter = tw
	}
	cfg = c
	return nil
}

// analyzer builds a per-session analyzer from the config.
func analyzer() enrich.Analyzer {
	if cfg == nil {
		return enrich.NewSimulated()
	}
	return cfg.Enrich.Analyzer()
}

// --- wizards ---

var wizardsCmd = &cobra.Command{
	Use:   "wizards",
	Short: "List the built-in wizard definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listWizards(cmd.OutOrStdout())
	},
}

func listWizards(w io.Writer) error {
	type row struct{ kind, name, steps, dashboards string }
	rows := []row{{"KIND", "NAME", "STEPS", "DASHBOARDS"}}
	for _, kind := range schema.BuiltinKinds() {
		wiz, err := schema.Builtin(kind)
		if err != nil {
			return err
		}
		var ds []string
		for _, r := range role.All() {
			if d, err := role.Route(r); err == nil && d.CanLaunch(kind) {
				ds = append(ds, d.Name)
			}
		}
		if kind == "auth" {
			ds = []string{"(entry)"}
		}
		rows = append(rows, row{kind, wiz.Meta.Name, fmt.Sprint(wiz.Total()), strings.Join(ds, ",")})
	}

	var wKind, wName, wSteps int
	for _, r := range rows {
		wKind = max(wKind, runewidth.StringWidth(r.kind))
		wName = max(wName, runewidth.StringWidth(r.name))
		wSteps = max(wSteps, runewidth.StringWidth(r.steps))
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			runewidth.FillRight(r.kind, wKind),
			runewidth.FillRight(r.name, wName),
			runewidth.FillLeft(r.steps, wSteps),
			r.dashboards)
	}
	return nil
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [wizard.yaml]",
	Short: "Validate a wizard definition file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
	},
}

func runValidate(stdout, stderr io.Writer, path string) error {
	w, errs := validate.ValidateFile(path)
	var failures, warnings []*validate.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			warnings = append(warnings, e)
		} else {
			failures = append(failures, e)
		}
	}
	for _, e := range warnings {
		fmt.Fprintf(stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
		if e.Path != "" {
			fmt.Fprintf(stderr, "    at: %s\n", e.Path)
		}
	}
	if len(failures) > 0 {
		fmt.Fprintf(stderr, "Validation failed: %d error(s)\n\n", len(failures))
		for i, e := range failures {
			fmt.Fprintf(stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(failures))
	}
	fmt.Fprintf(stdout, "✓ %s is valid (%d steps)\n", w.Meta.Name, w.Total())
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for wizard definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.GenerateWizardJSONSchema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		return enc.Encode(map[string]string{"version": version, "commit": commit})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn or error (overrides PORTAL_LOG_LEVEL)")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format: text or json (overrides PORTAL_LOG_FORMAT)")
	pf.StringVar(&flagTrace, "trace", "", "Append a JSONL audit trail of session events to this file (overrides PORTAL_TRACE)")
	pf.StringVar(&flagEnvFile, "env", "", "Load settings from this .env file instead of ./.env")

	rootCmd.AddCommand(wizardsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
