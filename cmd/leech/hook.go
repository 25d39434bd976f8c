package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/leech-actions/internal/cli"
	"github.com/Veraticus/leech-actions/internal/engine"
	"github.com/Veraticus/leech-actions/internal/storage"
)

func hookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Entry points for host events",
		Long: `Hooks let the host application report events. Each one checks its toggle
in the leech configuration and does nothing when it is off.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tagged <card-id> <tag>",
		Short: "A card received a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCardID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			triggers, err := newTriggers(cmd, store)
			if err != nil {
				return err
			}
			_, err = triggers.OnCardTagged(ctx, id, args[1])
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "synced",
		Short: "A sync with the remote collection finished",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			triggers, err := newTriggers(cmd, store)
			if err != nil {
				return err
			}
			report, err := triggers.OnSyncCompleted(ctx)
			if err != nil {
				return err
			}
			if report == nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Nothing to do."))
			}
			return nil
		},
	})

	return cmd
}

func newTriggers(cmd *cobra.Command, store *storage.SQLiteStorage) (*engine.Triggers, error) {
	mgr, err := openConfig(cmd.Context(), store)
	if err != nil {
		return nil, err
	}
	processor, err := newProcessor(store)
	if err != nil {
		return nil, err
	}
	return engine.NewTriggers(processor, store, mgr, cli.NewNotifier(cmd.OutOrStdout())), nil
}
