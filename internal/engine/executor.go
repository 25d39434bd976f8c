// Package engine applies leech rules to cards: the action executor, the
// preview/commit batch processor, the manual run state machine, and the
// host event triggers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/leech-actions/internal/common"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/service"
)

// ErrNoAction is returned when a nil action reaches the executor.
var ErrNoAction = errors.New("no action given")

// RecordMutationError reports the card store rejecting an action on one card.
// It is recorded on the card's outcome and never aborts a batch.
type RecordMutationError struct {
	Err    error
	Action model.ActionKind
	CardID int64
}

func (e *RecordMutationError) Error() string {
	return fmt.Sprintf("card %d: %s failed: %v", e.CardID, e.Action, e.Err)
}

func (e *RecordMutationError) Unwrap() error {
	return e.Err
}

// ActionResult is the outcome of one action on one card.
type ActionResult struct {
	Err    error
	Action model.Action
	CardID int64
}

// OK reports whether the action succeeded.
func (r ActionResult) OK() bool {
	return r.Err == nil
}

// Clock returns the current time.
type Clock func() time.Time

// Executor applies actions to cards through a CardWriter.
// Every action is idempotent: applying it twice leaves the same card state.
type Executor struct {
	store    service.CardWriter
	now      Clock
	leechTag string
	retry    service.RetryOptions
}

// NewExecutor creates an executor that strips leechTag for RemoveLeechTag actions.
func NewExecutor(store service.CardWriter, leechTag string, now Clock, retry service.RetryOptions) *Executor {
	if now == nil {
		now = time.Now
	}
	return &Executor{
		store:    store,
		leechTag: leechTag,
		now:      now,
		retry:    retry,
	}
}

// Apply runs a single action against a card. Busy-database errors are retried;
// any other store rejection becomes a *RecordMutationError in the result.
func (e *Executor) Apply(ctx context.Context, cardID int64, action model.Action) ActionResult {
	result := ActionResult{CardID: cardID, Action: action}
	if action == nil {
		result.Err = &RecordMutationError{CardID: cardID, Err: ErrNoAction}
		return result
	}

	v := &cardVisitor{ctx: ctx, executor: e, cardID: cardID}
	if err := common.WithRetry(ctx, func() error { return action.Accept(v) }, e.retry); err != nil {
		result.Err = &RecordMutationError{CardID: cardID, Action: action.Kind(), Err: err}
	}
	return result
}

// ApplyAll runs actions in order and stops at the first failure.
// The returned slice holds one result per attempted action.
func (e *Executor) ApplyAll(ctx context.Context, cardID int64, actions []model.Action) []ActionResult {
	results := make([]ActionResult, 0, len(actions))
	for _, action := range actions {
		result := e.Apply(ctx, cardID, action)
		results = append(results, result)
		if !result.OK() {
			break
		}
	}
	return results
}

// DelayDue is the due date a Delay of days sets: local midnight today plus days.
// The result does not depend on the card's current due date.
func DelayDue(now time.Time, days int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, now.Location())
}

type cardVisitor struct {
	ctx      context.Context
	executor *Executor
	cardID   int64
}

var _ model.ActionVisitor = (*cardVisitor)(nil)

func (v *cardVisitor) VisitDelete(model.Delete) error {
	return v.executor.store.DeleteCard(v.ctx, v.cardID)
}

func (v *cardVisitor) VisitDelay(a model.Delay) error {
	if a.Days <= 0 {
		return fmt.Errorf("delay days must be positive, got %d", a.Days)
	}
	return v.executor.store.SetSchedule(v.ctx, v.cardID, DelayDue(v.executor.now(), a.Days), a.Days)
}

func (v *cardVisitor) VisitResetProgress(model.ResetProgress) error {
	return v.executor.store.ResetSchedule(v.ctx, v.cardID)
}

func (v *cardVisitor) VisitResetLapses(model.ResetLapses) error {
	return v.executor.store.ResetLapses(v.ctx, v.cardID)
}

func (v *cardVisitor) VisitRemoveLeechTag(model.RemoveLeechTag) error {
	return v.executor.store.RemoveTag(v.ctx, v.cardID, v.executor.leechTag)
}

func (v *cardVisitor) VisitSuspend(model.Suspend) error {
	return v.executor.store.SetSuspended(v.ctx, v.cardID, true)
}
