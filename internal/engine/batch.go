package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/leech-actions/internal/common"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/pattern"
	"github.com/Veraticus/leech-actions/internal/service"
)

var (
	// ErrNotAPreview is returned when Commit is handed a report that is not a preview.
	ErrNotAPreview = errors.New("report is not a preview")
	// ErrCommitAborted wraps a WithBeforeCommit failure. Nothing was mutated.
	ErrCommitAborted = errors.New("commit aborted before any change")
)

// ProgressFunc is called after each card of a commit.
type ProgressFunc func(done, total int, outcome model.ProcessingOutcome)

// CommitResult is delivered by CommitAsync when the commit ends.
type CommitResult struct {
	Report *model.BatchReport
	Err    error
}

// Processor drives the matcher and executor over candidate cards.
type Processor struct {
	store        service.CardStore
	recorder     RunRecorder
	progress     ProgressFunc
	beforeCommit func(ctx context.Context, mode model.RunMode) error
	now          Clock
	newID        func() string
	retry        service.RetryOptions
}

// Option configures a Processor.
type Option func(*Processor)

// WithRecorder records every committed and automatic run.
func WithRecorder(r RunRecorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithProgress reports per-card commit progress.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Processor) { p.progress = fn }
}

// WithBeforeCommit runs fn once before the first mutation of a commit that has
// work to do. An error aborts the commit with nothing mutated.
func WithBeforeCommit(fn func(ctx context.Context, mode model.RunMode) error) Option {
	return func(p *Processor) { p.beforeCommit = fn }
}

// WithClock overrides the time source used for delays and report timestamps.
func WithClock(now Clock) Option {
	return func(p *Processor) { p.now = now }
}

// WithRetry sets the retry policy for busy-database errors.
func WithRetry(opts service.RetryOptions) Option {
	return func(p *Processor) { p.retry = opts }
}

// NewProcessor creates a batch processor over store.
func NewProcessor(store service.CardStore, opts ...Option) *Processor {
	p := &Processor{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preview computes what a commit would do without mutating anything.
// Cards that vanished are skipped. Busy reads are retried; a read that still
// fails aborts the preview.
func (p *Processor) Preview(ctx context.Context, candidates []int64, cfg model.Configuration) (*model.BatchReport, error) {
	return p.plan(ctx, candidates, cfg, true)
}

// plan builds the preview report. Unless strict, a card that cannot be read
// becomes a failed outcome and the remaining cards are still planned.
func (p *Processor) plan(ctx context.Context, candidates []int64, cfg model.Configuration, strict bool) (*model.BatchReport, error) {
	matcher, err := pattern.NewMatcher(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	report := model.NewBatchReport(p.newID(), model.RunModePreview, p.now())
	report.LeechTag = cfg.LeechTag

	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, err := p.previewCard(ctx, matcher, id)
		if err != nil {
			if strict {
				return nil, err
			}
			slog.Warn("Could not read leech card", "card_id", id, "error", err)
			outcome.Status = model.OutcomeFailed
			outcome.Detail = err.Error()
		}
		report.Add(outcome)
	}

	report.FinishedAt = p.now()
	slog.Debug("Previewed leech cards",
		"run_id", report.RunID,
		"candidates", len(candidates),
		"pending", report.Applied(),
		"skipped", report.Skipped)
	return report, nil
}

func (p *Processor) previewCard(ctx context.Context, matcher pattern.RuleMatcher, id int64) (model.ProcessingOutcome, error) {
	outcome := model.ProcessingOutcome{CardID: id, RuleIndex: -1, Status: model.OutcomeSkipped}

	var card *model.Card
	err := common.WithRetry(ctx, func() error {
		var readErr error
		card, readErr = p.store.GetCard(ctx, id)
		return readErr
	}, p.retry)
	if errors.Is(err, common.ErrNotFound) {
		outcome.Detail = "card no longer exists"
		return outcome, nil
	}
	if err != nil {
		return outcome, fmt.Errorf("failed to read card %d: %w", id, err)
	}

	outcome.Deck = card.Deck
	outcome.NoteType = card.NoteType

	rule, index, ok := matcher.Match(card.Deck, card.NoteType)
	if !ok {
		outcome.Detail = "no matching rule"
		return outcome, nil
	}

	outcome.Rule = &rule
	outcome.RuleIndex = index
	outcome.Actions = rule.Actions
	outcome.Status = model.OutcomePending
	return outcome, nil
}

// Commit applies the actions a preview matched. Per-card failures are recorded
// and never stop the batch. Cancelling ctx stops between cards: the rest are
// marked not attempted and the partial report is returned with Interrupted set.
func (p *Processor) Commit(ctx context.Context, preview *model.BatchReport) (*model.BatchReport, error) {
	if preview == nil || preview.Mode != model.RunModePreview {
		return nil, ErrNotAPreview
	}
	return p.apply(ctx, preview, model.RunModeCommit)
}

// CommitAsync runs Commit on a worker goroutine. The channel receives exactly
// one result and is then closed.
func (p *Processor) CommitAsync(ctx context.Context, preview *model.BatchReport) <-chan CommitResult {
	results := make(chan CommitResult, 1)
	go func() {
		defer close(results)
		report, err := p.Commit(ctx, preview)
		results <- CommitResult{Report: report, Err: err}
	}()
	return results
}

// Run is the automatic path: match and apply without a confirmation step.
// A card that cannot be read is reported as failed; the others still run.
func (p *Processor) Run(ctx context.Context, candidates []int64, cfg model.Configuration) (*model.BatchReport, error) {
	preview, err := p.plan(ctx, candidates, cfg, false)
	if err != nil {
		return nil, err
	}
	return p.apply(ctx, preview, model.RunModeAuto)
}

func (p *Processor) apply(ctx context.Context, preview *model.BatchReport, mode model.RunMode) (*model.BatchReport, error) {
	if p.beforeCommit != nil && preview.HasWork() {
		if err := p.beforeCommit(ctx, mode); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCommitAborted, err)
		}
	}

	report := model.NewBatchReport(p.newID(), mode, p.now())
	report.LeechTag = preview.LeechTag
	executor := NewExecutor(p.store, preview.LeechTag, p.now, p.retry)

	// A card's actions run as one unit even if ctx is cancelled midway.
	cardCtx := context.WithoutCancel(ctx)
	total := len(preview.Outcomes)

	for i, planned := range preview.Outcomes {
		outcome := planned
		if planned.Status == model.OutcomePending {
			if ctx.Err() != nil {
				report.Interrupted = true
				outcome.Status = model.OutcomeNotAttempted
				outcome.Detail = "run interrupted"
			} else {
				outcome = p.applyCard(cardCtx, executor, planned)
			}
		}

		report.Add(outcome)
		if p.progress != nil {
			p.progress(i+1, total, outcome)
		}
	}

	report.FinishedAt = p.now()
	p.record(cardCtx, report)

	slog.Info("Processed leech cards",
		"run_id", report.RunID,
		"mode", mode,
		"summary", report.Summary(),
		"interrupted", report.Interrupted)
	return report, nil
}

func (p *Processor) applyCard(ctx context.Context, executor *Executor, planned model.ProcessingOutcome) model.ProcessingOutcome {
	outcome := planned
	results := executor.ApplyAll(ctx, planned.CardID, planned.Actions)
	if len(results) == 0 {
		outcome.Status = model.OutcomeApplied
		return outcome
	}

	last := results[len(results)-1]
	if last.OK() {
		outcome.Status = model.OutcomeApplied
		return outcome
	}

	outcome.Status = model.OutcomeFailed
	outcome.Detail = last.Err.Error()
	slog.Warn("Leech action failed",
		"card_id", planned.CardID,
		"deck", planned.Deck,
		"action", last.Action,
		"error", last.Err)
	return outcome
}

func (p *Processor) record(ctx context.Context, report *model.BatchReport) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.SaveRun(ctx, report.RunSummary()); err != nil {
		slog.Warn("Failed to record leech run", "run_id", report.RunID, "error", err)
	}
}
