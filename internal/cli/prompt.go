package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/leech-actions/internal/model"
)

// Prompter asks the user to confirm a manual leech run.
type Prompter struct {
	reader *LineReader
	writer io.Writer
}

// NewPrompter creates a prompter. Nil arguments fall back to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewLineReader(reader),
		writer: writer,
	}
}

// ConfirmRun shows the preview and asks whether to apply it.
// A preview without pending cards is never confirmed.
func (p *Prompter) ConfirmRun(ctx context.Context, preview *model.BatchReport) (bool, error) {
	if err := RenderReport(p.writer, preview); err != nil {
		return false, err
	}
	if !preview.HasWork() {
		if _, err := fmt.Fprintln(p.writer, FormatInfo("Nothing to apply.")); err != nil {
			return false, fmt.Errorf("failed to write message: %w", err)
		}
		return false, nil
	}

	if _, err := fmt.Fprintln(p.writer); err != nil {
		return false, fmt.Errorf("failed to write newline: %w", err)
	}
	return p.Confirm(ctx, fmt.Sprintf("Apply actions to %s?", pluralCards(preview.Applied())), false)
}

// Confirm asks a yes/no question until it gets a valid answer.
// An empty answer picks defaultYes.
func (p *Prompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" "+hint)); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := p.reader.ReadLine(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to read answer: %w", err)
		}

		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatWarning("Please answer y or n.")); err != nil {
			return false, fmt.Errorf("failed to write warning: %w", err)
		}
	}
}
