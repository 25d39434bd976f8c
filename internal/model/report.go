package model

import (
	"fmt"
	"strings"
	"time"
)

// OutcomeStatus is the per-card result of a batch run.
type OutcomeStatus string

// Outcome statuses.
const (
	// OutcomeSkipped means no rule matched or the card is gone; nothing was attempted.
	OutcomeSkipped OutcomeStatus = "skipped"
	// OutcomePending is a preview result: the actions would run on commit.
	OutcomePending OutcomeStatus = "pending"
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeFailed  OutcomeStatus = "failed"
	// OutcomeNotAttempted marks cards left over when a commit was interrupted.
	OutcomeNotAttempted OutcomeStatus = "not_attempted"
)

// RunMode describes how a batch report was produced.
type RunMode string

// Run modes.
const (
	RunModePreview RunMode = "preview"
	RunModeCommit  RunMode = "commit"
	RunModeAuto    RunMode = "auto"
)

// ProcessingOutcome is the result for one card.
type ProcessingOutcome struct {
	Rule      *Rule
	Deck      string
	NoteType  string
	Status    OutcomeStatus
	Detail    string
	Actions   []Action
	CardID    int64
	RuleIndex int
}

// Matched reports whether a rule selected this card.
func (o ProcessingOutcome) Matched() bool {
	return o.Rule != nil
}

// BatchReport aggregates outcomes of one preview, commit, or automatic run.
type BatchReport struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Counts      map[ActionKind]int
	RunID       string
	LeechTag    string
	Mode        RunMode
	Outcomes    []ProcessingOutcome
	Skipped     int
	Interrupted bool
}

// NewBatchReport creates an empty report.
func NewBatchReport(runID string, mode RunMode, startedAt time.Time) *BatchReport {
	return &BatchReport{
		RunID:     runID,
		Mode:      mode,
		StartedAt: startedAt,
		Counts:    make(map[ActionKind]int),
	}
}

// Add records an outcome and updates the counters.
// Action counts include pending and applied outcomes only.
func (r *BatchReport) Add(o ProcessingOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case OutcomeSkipped:
		r.Skipped++
	case OutcomePending, OutcomeApplied:
		for _, a := range o.Actions {
			r.Counts[a.Kind()]++
		}
	}
}

// Total is the number of cards considered.
func (r *BatchReport) Total() int {
	return len(r.Outcomes)
}

// Applied is the number of cards whose actions ran (or would run, for a preview).
func (r *BatchReport) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeApplied || o.Status == OutcomePending {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in candidate order.
func (r *BatchReport) Failures() []ProcessingOutcome {
	var failed []ProcessingOutcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// NotAttempted is the number of cards an interrupted commit never reached.
func (r *BatchReport) NotAttempted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeNotAttempted {
			n++
		}
	}
	return n
}

// HasWork reports whether committing the report would change anything.
func (r *BatchReport) HasWork() bool {
	for _, o := range r.Outcomes {
		if o.Status == OutcomePending {
			return true
		}
	}
	return false
}

// Summary renders the counts in a single line, e.g. "delete: 1, delay: 2, skipped: 3".
func (r *BatchReport) Summary() string {
	var parts []string
	for _, kind := range ActionKinds {
		if n := r.Counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", kind, n))
		}
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("skipped: %d", r.Skipped))
	}
	if failed := len(r.Failures()); failed > 0 {
		parts = append(parts, fmt.Sprintf("failed: %d", failed))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

// RunSummary is the persisted trace of a committed or automatic run.
type RunSummary struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	RunID       string
	Mode        RunMode
	Summary     string
	Total       int
	Applied     int
	Skipped     int
	Failed      int
	Interrupted bool
}

// RunSummary condenses the report for run history.
func (r *BatchReport) RunSummary() RunSummary {
	return RunSummary{
		RunID:       r.RunID,
		Mode:        r.Mode,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Total:       r.Total(),
		Applied:     r.Applied(),
		Skipped:     r.Skipped,
		Failed:      len(r.Failures()),
		Interrupted: r.Interrupted,
		Summary:     r.Summary(),
	}
}
