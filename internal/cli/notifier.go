package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/leech-actions/internal/model"
)

// Notifier prints automatic run summaries. It implements engine.Notifier.
type Notifier struct {
	writer io.Writer
}

// NewNotifier writes notifications to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{writer: w}
}

// Notify prints message and one line per failed card.
func (n *Notifier) Notify(_ context.Context, message string, report *model.BatchReport) {
	lines := []string{FormatInfo(message)}
	if report != nil {
		for _, f := range report.Failures() {
			lines = append(lines, "  "+FormatError(f.Detail))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(n.writer, line); err != nil {
			slog.Warn("Failed to write notification", "error", err)
			return
		}
	}
}
