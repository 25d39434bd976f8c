package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/leech-actions/internal/cli"
	"github.com/Veraticus/leech-actions/internal/config"
	"github.com/Veraticus/leech-actions/internal/model"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, export, import, and change the leech configuration",
		Long: `The leech configuration is stored inside the collection as a versioned
document. Older documents are upgraded automatically when read or imported.`,
	}

	cmd.AddCommand(showConfigCmd())
	cmd.AddCommand(exportConfigCmd())
	cmd.AddCommand(importConfigCmd())
	cmd.AddCommand(setConfigCmd())

	return cmd
}

func showConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings and rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := openConfig(ctx, store)
			if err != nil {
				return err
			}
			cfg := mgr.Current()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Leech configuration"))
			fmt.Fprintf(out, "  Version:                 %d\n", cfg.Version)
			fmt.Fprintf(out, "  Leech tag:               %s\n", cfg.LeechTag)
			fmt.Fprintf(out, "  Run on tag:              %t\n", cfg.AutoRunOnTag)
			fmt.Fprintf(out, "  Run after sync:          %t\n", cfg.AutoRunAfterSync)
			fmt.Fprintf(out, "  Notify on automatic run: %t\n\n", cfg.ShowAutoNotifications)
			return cli.RenderRules(out, cfg.Rules)
		},
	}
}

func exportConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the configuration document as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := openConfig(ctx, store)
			if err != nil {
				return err
			}

			data, err := config.Save(mgr.Current())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exported configuration to "+args[0]))
			return nil
		},
	}
}

func importConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the configuration with a JSON document of any version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := openConfig(ctx, store)
			if err != nil {
				return err
			}

			cfg, err := mgr.SaveRaw(ctx, raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported configuration with %d rules", len(cfg.Rules))))
			return cli.RenderRules(out, cfg.Rules)
		},
	}
}

// settings maps configurable keys to setters.
var settings = map[string]func(cfg *model.Configuration, value string) error{
	"leech_tag": func(cfg *model.Configuration, value string) error {
		cfg.LeechTag = value
		return nil
	},
	"auto_run_on_tag":         boolSetting(func(cfg *model.Configuration, v bool) { cfg.AutoRunOnTag = v }),
	"auto_run_after_sync":     boolSetting(func(cfg *model.Configuration, v bool) { cfg.AutoRunAfterSync = v }),
	"show_auto_notifications": boolSetting(func(cfg *model.Configuration, v bool) { cfg.ShowAutoNotifications = v }),
}

func boolSetting(set func(*model.Configuration, bool)) func(*model.Configuration, string) error {
	return func(cfg *model.Configuration, value string) error {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", value)
		}
		set(cfg, v)
		return nil
	}
}

func setConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting",
		Long:      `Keys: leech_tag, auto_run_on_tag, auto_run_after_sync, show_auto_notifications.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"leech_tag", "auto_run_on_tag", "auto_run_after_sync", "show_auto_notifications"},
		RunE: func(cmd *cobra.Command, args []string) error {
			set, ok := settings[args[0]]
			if !ok {
				return fmt.Errorf("unknown setting %q", args[0])
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := openConfig(ctx, store)
			if err != nil {
				return err
			}

			if err := mgr.Update(ctx, func(cfg *model.Configuration) error {
				return set(cfg, args[1])
			}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s = %s", args[0], args[1])))
			return nil
		},
	}
}
