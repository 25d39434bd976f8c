package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/Veraticus/leech-actions/internal/model"
)

// RenderReport writes a batch report as a plain table.
func RenderReport(w io.Writer, report *model.BatchReport) error {
	ew := &errWriter{w: w}

	ew.printf("%s (tag: %s)\n\n", reportTitle(report.Mode), report.LeechTag)

	if report.Total() == 0 {
		ew.printf("No leech cards found.\n")
	} else {
		tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  CARD\tDECK\tNOTE TYPE\tRULE\tSTATUS\tDETAIL")
		for _, o := range report.Outcomes {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%s\n",
				o.CardID, orDash(o.Deck), orDash(o.NoteType), ruleNumber(o), o.Status, outcomeDetail(o))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}

	ew.printf("\nSummary: %s\n", report.Summary())
	if n := report.NotAttempted(); report.Interrupted && n > 0 {
		ew.printf("Interrupted: %s not attempted.\n", pluralCards(n))
	}
	return ew.err
}

// RenderRules writes the ordered rule list. Rule numbers start at 1.
func RenderRules(w io.Writer, rules []model.Rule) error {
	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, "No rules configured. Every leech will be skipped.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tDECK\tNOTE TYPE\tACTIONS")
	for i, r := range rules {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", i+1, r.Deck, r.NoteType, r.ActionSummary())
	}
	return tw.Flush()
}

// RenderRuns writes run history, newest first as given.
func RenderRuns(w io.Writer, runs []model.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  STARTED\tMODE\tCARDS\tSUMMARY")
	for _, run := range runs {
		summary := run.Summary
		if run.Interrupted {
			summary += " (interrupted)"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\n",
			run.StartedAt.Format("2006-01-02 15:04"), run.Mode, run.Total, summary)
	}
	return tw.Flush()
}

func reportTitle(mode model.RunMode) string {
	switch mode {
	case model.RunModePreview:
		return "Leech run preview"
	case model.RunModeCommit:
		return "Leech run committed"
	case model.RunModeAuto:
		return "Automatic leech run"
	}
	return "Leech run"
}

func outcomeDetail(o model.ProcessingOutcome) string {
	switch o.Status {
	case model.OutcomePending, model.OutcomeApplied:
		return model.Rule{Actions: o.Actions}.ActionSummary()
	}
	return o.Detail
}

func ruleNumber(o model.ProcessingOutcome) string {
	if !o.Matched() {
		return "-"
	}
	return strconv.Itoa(o.RuleIndex + 1)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func pluralCards(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}

// errWriter keeps the first write error so rendering code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e, format, args...)
}
