package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/leech-actions/internal/model"
)

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
		retries    int
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes uppercase", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "empty defaults to yes", input: "\n", defaultYes: true, want: true},
		{name: "retries on nonsense", input: "maybe\nsure\ny\n", want: true, retries: 2},
		{name: "answer without newline", input: "y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Continue?", tt.defaultYes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.retries, strings.Count(out.String(), "Please answer y or n."))
		})
	}
}

func TestPrompter_ConfirmEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), io.Discard)

	_, err := p.Confirm(context.Background(), "Continue?", true)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrompter_ConfirmRun(t *testing.T) {
	rules := kanjiRules()
	preview := model.NewBatchReport("run", model.RunModePreview, reportTime)
	preview.LeechTag = "leech"
	preview.Add(matched(rules, 1, model.ProcessingOutcome{CardID: 4, Deck: "Words", NoteType: "Basic", Status: model.OutcomePending}))

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\n"), &out)

	ok, err := p.ConfirmRun(context.Background(), preview)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Leech run preview (tag: leech)")
	assert.Contains(t, out.String(), "Apply actions to 1 card? [y/N]")
}

func TestPrompter_ConfirmRunWithoutWork(t *testing.T) {
	preview := model.NewBatchReport("run", model.RunModePreview, reportTime)
	preview.LeechTag = "leech"
	preview.Add(model.ProcessingOutcome{CardID: 4, RuleIndex: -1, Status: model.OutcomeSkipped, Detail: "no matching rule"})

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\n"), &out)

	ok, err := p.ConfirmRun(context.Background(), preview)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Nothing to apply.")
	assert.NotContains(t, out.String(), "[y/N]")
}
