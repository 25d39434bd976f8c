package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/leech-actions/internal/cli"
	"github.com/Veraticus/leech-actions/internal/config"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/pattern"
	"github.com/Veraticus/leech-actions/internal/tui"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the ordered leech rules",
		Long: `List, add, remove, reorder, and test leech rules.

Rules are evaluated top to bottom and the first match wins. A deck pattern is
"Any", an exact deck name (which also covers its sub-decks), or a glob using
* and ?. Note-type patterns work the same way without the sub-deck rule.`,
		Example: `  # Kanji leeches: drop the tag, reset lapses, and push a month out
  leech rules add --deck 'Kanji::*' --actions remove_tag,reset_lapses,delay:30

  # Everything else gets deleted
  leech rules add --actions delete

  # Which rule would handle a card?
  leech rules test --deck 'Kanji::N5' --note-type Basic`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(removeRuleCmd())
	cmd.AddCommand(moveRuleCmd("move-up", "Move a rule one position up", config.MoveRuleUp))
	cmd.AddCommand(moveRuleCmd("move-down", "Move a rule one position down", config.MoveRuleDown))
	cmd.AddCommand(testRuleCmd())
	cmd.AddCommand(editRulesCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in priority order",
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
			return cli.RenderRules(cmd.OutOrStdout(), mgr.Current().Rules)
		},
	}
}

func addRuleCmd() *cobra.Command {
	var (
		deck     string
		noteType string
		actions  string
		position int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule",
		Long:  `Append a rule, or insert it at --position (1-based).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := config.ParseActions(actions)
			if err != nil {
				return err
			}
			rule := model.NewRule(deck, noteType, parsed...)

			return updateRules(cmd, func(rules []model.Rule) ([]model.Rule, error) {
				if position > 0 {
					return config.InsertRule(rules, position-1, rule)
				}
				return config.AddRule(rules, rule), nil
			}, fmt.Sprintf("Added rule %s / %s → %s", rule.Deck, rule.NoteType, rule.ActionSummary()))
		},
	}

	cmd.Flags().StringVar(&deck, "deck", model.AnyPattern, "deck pattern")
	cmd.Flags().StringVar(&noteType, "note-type", model.AnyPattern, "note type pattern")
	cmd.Flags().StringVar(&actions, "actions", "", "comma separated actions: reset, delay:N, delete, reset_lapses, remove_tag, suspend")
	cmd.Flags().IntVar(&position, "position", 0, "insert at this rule number instead of appending")
	_ = cmd.MarkFlagRequired("actions")

	return cmd
}

func removeRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule-number>",
		Short: "Remove a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseRuleNumber(args[0])
			if err != nil {
				return err
			}
			return updateRules(cmd, func(rules []model.Rule) ([]model.Rule, error) {
				return config.RemoveRule(rules, index)
			}, fmt.Sprintf("Removed rule %d", index+1))
		},
	}
}

func moveRuleCmd(use, short string, move func([]model.Rule, int) ([]model.Rule, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rule-number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseRuleNumber(args[0])
			if err != nil {
				return err
			}
			return updateRules(cmd, func(rules []model.Rule) ([]model.Rule, error) {
				return move(rules, index)
			}, "Rule order updated")
		},
	}
}

// updateRules applies edit to the stored rules, saves, and prints the result.
func updateRules(cmd *cobra.Command, edit func([]model.Rule) ([]model.Rule, error), done string) error {
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

	err = mgr.Update(ctx, func(cfg *model.Configuration) error {
		rules, err := edit(cfg.Rules)
		if err != nil {
			return err
		}
		cfg.Rules = rules
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(done))
	return cli.RenderRules(out, mgr.Current().Rules)
}

func testRuleCmd() *cobra.Command {
	var (
		deck     string
		noteType string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Show which rule a deck and note type would match",
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

			matcher, err := pattern.NewMatcher(mgr.Current().Rules)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rule, index, ok := matcher.Match(deck, noteType)
			if !ok {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("No rule matches %s / %s; the card would be skipped.", deck, noteType)))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Rule %d matches: %s / %s → %s",
				index+1, rule.Deck, rule.NoteType, rule.ActionSummary())))
			return nil
		},
	}

	cmd.Flags().StringVar(&deck, "deck", "", "full deck name, e.g. Kanji::N5")
	cmd.Flags().StringVar(&noteType, "note-type", "", "note type name")
	_ = cmd.MarkFlagRequired("deck")
	_ = cmd.MarkFlagRequired("note-type")

	return cmd
}

func editRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit rules interactively",
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
			return tui.Run(ctx, mgr)
		},
	}
}
