package engine

import (
	"context"

	"github.com/Veraticus/leech-actions/internal/model"
)

// ConfigSource supplies the live configuration. config.Manager implements it.
type ConfigSource interface {
	Current() model.Configuration
}

// RunRecorder persists the summary of committed and automatic runs.
type RunRecorder interface {
	SaveRun(ctx context.Context, run model.RunSummary) error
}

// Notifier tells the user what an automatic run did.
type Notifier interface {
	Notify(ctx context.Context, message string, report *model.BatchReport)
}
