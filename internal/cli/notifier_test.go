package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/leech-actions/internal/model"
)

func TestNotifier_Notify(t *testing.T) {
	report := model.NewBatchReport("run", model.RunModeAuto, reportTime)
	report.Add(model.ProcessingOutcome{CardID: 1, Status: model.OutcomeApplied, Actions: []model.Action{model.Suspend{}}})
	report.Add(model.ProcessingOutcome{CardID: 2, Status: model.OutcomeFailed, Detail: "card 2: suspend failed: disk I/O error"})

	var out bytes.Buffer
	NewNotifier(&out).Notify(context.Background(), "Processed leech cards: suspend: 1, failed: 1", report)

	assert.Contains(t, out.String(), "Processed leech cards: suspend: 1, failed: 1")
	assert.Contains(t, out.String(), "card 2: suspend failed: disk I/O error")
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
}

func TestNotifier_NilReport(t *testing.T) {
	var out bytes.Buffer
	NewNotifier(&out).Notify(context.Background(), "hello", nil)
	assert.Contains(t, out.String(), "hello")
}
