package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/service"
)

// Triggers handles host events. Each handler reads the configuration afresh,
// so a save takes effect on the next event.
type Triggers struct {
	processor *Processor
	store     service.CardReader
	config    ConfigSource
	notifier  Notifier
}

// NewTriggers wires the host event handlers. notifier may be nil.
func NewTriggers(processor *Processor, store service.CardReader, config ConfigSource, notifier Notifier) *Triggers {
	return &Triggers{
		processor: processor,
		store:     store,
		config:    config,
		notifier:  notifier,
	}
}

// OnCardTagged handles a card receiving tag. It runs single-card automatic
// processing only when auto_run_on_tag is on, tag is the leech tag, and the
// card still carries it. A nil report means nothing ran.
func (t *Triggers) OnCardTagged(ctx context.Context, cardID int64, tag string) (*model.BatchReport, error) {
	cfg := t.config.Current()
	if !cfg.AutoRunOnTag {
		slog.Debug("Ignoring tag event, auto run on tag is off", "card_id", cardID)
		return nil, nil
	}
	if tag != cfg.LeechTag {
		slog.Debug("Ignoring tag event for other tag", "card_id", cardID, "tag", tag)
		return nil, nil
	}

	card, err := t.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to read tagged card: %w", err)
	}
	if !card.HasTag(cfg.LeechTag) {
		slog.Debug("Ignoring tag event, card is not tagged", "card_id", cardID, "tag", cfg.LeechTag)
		return nil, nil
	}

	return t.run(ctx, []int64{cardID}, cfg)
}

// OnSyncCompleted runs an automatic batch over every leech when
// auto_run_after_sync is on. A nil report means nothing ran.
func (t *Triggers) OnSyncCompleted(ctx context.Context) (*model.BatchReport, error) {
	cfg := t.config.Current()
	if !cfg.AutoRunAfterSync {
		slog.Debug("Ignoring sync event, auto run after sync is off")
		return nil, nil
	}

	candidates, err := t.store.FindCardsByTag(ctx, cfg.LeechTag)
	if err != nil {
		return nil, fmt.Errorf("failed to gather leech cards: %w", err)
	}
	if len(candidates) == 0 {
		slog.Debug("No leech cards after sync", "tag", cfg.LeechTag)
		return nil, nil
	}

	return t.run(ctx, candidates, cfg)
}

// StartManualRun begins a user-driven sweep.
func (t *Triggers) StartManualRun() *ManualRun {
	return NewManualRun(t.processor, t.store, t.config)
}

func (t *Triggers) run(ctx context.Context, candidates []int64, cfg model.Configuration) (*model.BatchReport, error) {
	report, err := t.processor.Run(ctx, candidates, cfg)
	if err != nil {
		return nil, err
	}

	if t.notifier != nil && cfg.ShowAutoNotifications {
		t.notifier.Notify(ctx, AutoSummary(report), report)
	}
	return report, nil
}

// AutoSummary is the one-line notification for an automatic run.
func AutoSummary(report *model.BatchReport) string {
	return "Processed leech cards: " + report.Summary()
}
