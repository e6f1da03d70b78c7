package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

// sessionSummary condenses one session's trace events.
type sessionSummary struct {
	ID         string
	Wizard     string
	Kind       string
	Events     int
	Blocked    int
	Outcome    string // submitted, abandoned or open
	RecordID   string
	Enrichment string
	Start      time.Time
	End        time.Time
}

// summarize groups events by session in order of first appearance.
func summarize(events []trace.Event) []sessionSummary {
	var order []string
	byID := map[string]*sessionSummary{}
	for _, evt := range events {
		s, ok := byID[evt.SessionID]
		if !ok {
			s = &sessionSummary{ID: evt.SessionID, Outcome: "open", Start: evt.Timestamp}
			byID[evt.SessionID] = s
			order = append(order, evt.SessionID)
		}
		s.Events++
		s.End = evt.Timestamp
		switch evt.Type {
		case trace.EventSessionStart:
			s.Wizard, _ = evt.Data["wizard"].(string)
			s.Kind, _ = evt.Data["kind"].(string)
		case trace.EventValidationBlocked:
			s.Blocked++
		case trace.EventEnrichmentComplete:
			s.Enrichment = fmt.Sprintf("%v (%v)", evt.Data["score"], evt.Data["tier"])
		case trace.EventEnrichmentFailed:
			s.Enrichment = "failed"
		case trace.EventSessionSubmitted:
			s.Outcome = "submitted"
			s.RecordID, _ = evt.Data["record_id"].(string)
		case trace.EventSessionAbandoned:
			s.Outcome = "abandoned"
		}
	}
	out := make([]sessionSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

func printSummaries(w io.Writer, sums []sessionSummary) {
	for _, s := range sums {
		fmt.Fprintf(w, "%s  %s (%s)  %s", s.ID, s.Wizard, s.Kind, s.Outcome)
		if s.RecordID != "" {
			fmt.Fprintf(w, " %s", s.RecordID)
		}
		fmt.Fprintf(w, "\n    %d events, %d blocked, %s", s.Events, s.Blocked, s.End.Sub(s.Start).Round(time.Millisecond))
		if s.Enrichment != "" {
			fmt.Fprintf(w, ", evidence %s", s.Enrichment)
		}
		fmt.Fprintln(w)
	}
}

var traceSummaryCmd = &cobra.Command{
	Use:   "summary [trace.jsonl]",
	Short: "Summarize the sessions recorded in a trace file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		events, err := trace.ReadEvents(f)
		if err != nil {
			return err
		}
		sums := summarize(events)
		if len(sums) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no sessions recorded")
			return nil
		}
		printSummaries(cmd.OutOrStdout(), sums)
		return nil
	},
}

func init() {
	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace file operations",
	}
	traceCmd.AddCommand(traceSummaryCmd)
	rootCmd.AddCommand(traceCmd)
}
