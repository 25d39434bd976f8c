package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/leech-actions/internal/model"
)

func TestCommitProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewCommitProgress(&out, 3)

	p.Update(1, 3, model.ProcessingOutcome{CardID: 1, Status: model.OutcomeApplied})
	p.Update(2, 3, model.ProcessingOutcome{CardID: 2, Status: model.OutcomeFailed})
	p.Update(3, 3, model.ProcessingOutcome{CardID: 3, Status: model.OutcomeSkipped})
	p.Finish()

	assert.Equal(t, 1, p.Failed())
	assert.Contains(t, out.String(), "3/3")
}
