package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/leech-actions/internal/cli"
	"github.com/Veraticus/leech-actions/internal/engine"
	"github.com/Veraticus/leech-actions/internal/model"
)

func runCmd() *cobra.Command {
	var (
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Preview and apply leech rules to every tagged card",
		Long: `Gather every card carrying the leech tag, show what each rule would do,
and apply the actions after confirmation.

Nothing changes before you confirm. Interrupting a commit keeps the cards
already processed and leaves the rest untouched.`,
		Example: `  # Preview only
  leech run --dry-run

  # Apply without prompting
  leech run --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := interrupts.HandleInterrupts(cmd.Context(), false)
			defer interrupts.Stop()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := openConfig(ctx, store)
			if err != nil {
				return err
			}

			var progress *cli.CommitProgress
			processor, err := newProcessor(store, engine.WithProgress(func(done, total int, o model.ProcessingOutcome) {
				if progress == nil {
					progress = cli.NewCommitProgress(cmd.ErrOrStderr(), total)
				}
				progress.Update(done, total, o)
			}))
			if err != nil {
				return err
			}

			run := engine.NewManualRun(processor, store, mgr)
			preview, err := run.Preview(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				return cli.RenderReport(out, preview)
			}

			if !yes {
				ok, err := cli.NewPrompter(cmd.InOrStdin(), out).ConfirmRun(ctx, preview)
				if err != nil {
					return err
				}
				if !ok {
					_ = run.Cancel()
					fmt.Fprintln(out, cli.SubtleStyle.Render("Run cancelled. Nothing was changed."))
					return nil
				}
			} else if !preview.HasWork() {
				return cli.RenderReport(out, preview)
			}

			interrupts.SetCommitting(true)
			report, err := run.Confirm(ctx)
			if progress != nil && report != nil && report.Interrupted {
				progress.Finish()
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			if err := cli.RenderReport(out, report); err != nil {
				return err
			}

			switch {
			case report.Interrupted:
				fmt.Fprintln(out, cli.FormatWarning("Run interrupted before every card was processed."))
			case len(report.Failures()) > 0:
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d cards failed; see the table above.", len(report.Failures()))))
			default:
				fmt.Fprintln(out, cli.FormatSuccess("Leech run complete"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without asking for confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the preview and exit")

	return cmd
}
