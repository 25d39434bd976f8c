package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/leech-actions/internal/model"
)

// CommitProgress draws a progress bar for a commit and counts failures as they happen.
type CommitProgress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	failed int
	mu     sync.Mutex
}

// NewCommitProgress creates a bar for total cards.
func NewCommitProgress(writer io.Writer, total int) *CommitProgress {
	p := &CommitProgress{writer: writer}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[magenta][bold]Processing leeches...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Update matches engine.ProgressFunc.
func (p *CommitProgress) Update(done, _ int, outcome model.ProcessingOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if outcome.Status == model.OutcomeFailed {
		p.failed++
	}
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Failed is the number of failed cards seen so far.
func (p *CommitProgress) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// Finish completes the bar, e.g. after an interrupted commit.
func (p *CommitProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
