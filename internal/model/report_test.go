package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBatchReport_Counters(t *testing.T) {
	rule := NewRule("Kanji::*", AnyPattern, RemoveLeechTag{}, Delay{Days: 30})
	report := NewBatchReport("run-1", RunModeCommit, time.Now())

	report.Add(ProcessingOutcome{CardID: 1, Rule: &rule, Actions: rule.Actions, Status: OutcomeApplied})
	report.Add(ProcessingOutcome{CardID: 2, RuleIndex: -1, Status: OutcomeSkipped})
	report.Add(ProcessingOutcome{CardID: 3, Rule: &rule, Actions: rule.Actions, Status: OutcomeFailed, Detail: "card vanished"})
	report.Add(ProcessingOutcome{CardID: 4, Rule: &rule, Actions: rule.Actions, Status: OutcomeNotAttempted})

	assert.Equal(t, 4, report.Total())
	assert.Equal(t, 1, report.Applied())
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.NotAttempted())
	assert.Equal(t, 1, report.Counts[ActionRemoveTag])
	assert.Equal(t, 1, report.Counts[ActionDelay])
	assert.Len(t, report.Failures(), 1)
	assert.Equal(t, int64(3), report.Failures()[0].CardID)
	assert.False(t, report.HasWork())
	assert.Equal(t, "delay: 1, remove_tag: 1, skipped: 1, failed: 1", report.Summary())
}

func TestBatchReport_SummaryNoChanges(t *testing.T) {
	report := NewBatchReport("run-2", RunModePreview, time.Now())
	assert.Equal(t, "no changes", report.Summary())
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"kanji", "leech"}, ParseTags("  leech kanji leech "))
	assert.Empty(t, ParseTags(""))
	assert.Equal(t, " kanji leech ", JoinTags([]string{"leech", "kanji"}))
	assert.Equal(t, "", JoinTags(nil))
}

func TestActionRawRoundTrip(t *testing.T) {
	for _, a := range []Action{Delete{}, Delay{Days: 3}, ResetProgress{}, ResetLapses{}, RemoveLeechTag{}, Suspend{}} {
		got, err := FromRaw(ToRaw(a))
		assert.NoError(t, err)
		assert.Equal(t, a, got)
	}

	_, err := FromRaw(RawAction{Kind: "explode"})
	assert.Error(t, err)
	_, err = FromRaw(RawAction{Kind: ActionDelay})
	assert.Error(t, err)
}

func TestNewRule_NormalizesPatterns(t *testing.T) {
	r := NewRule("", "  ", Delete{})
	assert.Equal(t, AnyPattern, r.Deck)
	assert.Equal(t, AnyPattern, r.NoteType)
	assert.True(t, r.HasAction(ActionDelete))
	assert.False(t, r.HasAction(ActionDelay))
	assert.Equal(t, "delete", r.ActionSummary())
}
