package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/service"
)

// ErrInvalidTransition is returned when a manual run step is attempted from the wrong state.
var ErrInvalidTransition = errors.New("invalid manual run transition")

// RunState is the state of a manual run.
type RunState int

// Manual run states. Committed and Cancelled return to Idle through Reset.
const (
	StateIdle RunState = iota
	StatePreviewed
	StateCommitted
	StateCancelled
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewed:
		return "previewed"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// ManualRun is the user-driven sweep: preview, then confirm or cancel.
// Nothing is mutated before Confirm.
type ManualRun struct {
	processor *Processor
	store     service.CardReader
	config    ConfigSource
	preview   *model.BatchReport
	state     RunState
	mu        sync.Mutex
}

// NewManualRun creates an idle manual run.
func NewManualRun(processor *Processor, store service.CardReader, config ConfigSource) *ManualRun {
	return &ManualRun{
		processor: processor,
		store:     store,
		config:    config,
	}
}

// State returns the current state.
func (r *ManualRun) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Preview gathers every card carrying the leech tag and previews the run.
// On error the run stays Idle.
func (r *ManualRun) Preview(ctx context.Context) (*model.BatchReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return nil, fmt.Errorf("%w: preview from %s", ErrInvalidTransition, r.state)
	}

	cfg := r.config.Current()
	candidates, err := r.store.FindCardsByTag(ctx, cfg.LeechTag)
	if err != nil {
		return nil, fmt.Errorf("failed to gather leech cards: %w", err)
	}

	preview, err := r.processor.Preview(ctx, candidates, cfg)
	if err != nil {
		return nil, err
	}

	r.preview = preview
	r.state = StatePreviewed
	return preview, nil
}

// ConfirmAsync commits the preview on a worker goroutine. If the commit is
// aborted before any change, the run returns to Previewed with the same preview.
func (r *ManualRun) ConfirmAsync(ctx context.Context) (<-chan CommitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePreviewed {
		return nil, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, r.state)
	}

	preview := r.preview
	r.preview = nil
	r.state = StateCommitted

	inner := r.processor.CommitAsync(ctx, preview)
	results := make(chan CommitResult, 1)
	go func() {
		defer close(results)
		result := <-inner
		if errors.Is(result.Err, ErrCommitAborted) {
			r.mu.Lock()
			if r.state == StateCommitted {
				r.preview = preview
				r.state = StatePreviewed
			}
			r.mu.Unlock()
		}
		results <- result
	}()
	return results, nil
}

// Confirm commits the preview and waits for the final report.
func (r *ManualRun) Confirm(ctx context.Context) (*model.BatchReport, error) {
	results, err := r.ConfirmAsync(ctx)
	if err != nil {
		return nil, err
	}
	result := <-results
	return result.Report, result.Err
}

// Cancel discards the preview. Nothing was mutated.
func (r *ManualRun) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePreviewed {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, r.state)
	}

	r.preview = nil
	r.state = StateCancelled
	return nil
}

// Reset returns a finished run to Idle so it can be previewed again.
func (r *ManualRun) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateCommitted && r.state != StateCancelled {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, r.state)
	}

	r.state = StateIdle
	return nil
}
