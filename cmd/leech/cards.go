package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/leech-actions/internal/cli"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/service"
)

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Import, list, and tag cards in the collection",
	}

	cmd.AddCommand(importCardsCmd())
	cmd.AddCommand(listCardsCmd())
	cmd.AddCommand(tagCardCmd())
	cmd.AddCommand(untagCardCmd())

	return cmd
}

// cardFile is the YAML layout accepted by "cards import".
type cardFile struct {
	Cards []model.Card `yaml:"cards"`
}

func decodeCards(r io.Reader) ([]model.Card, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file cardFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("card file is empty")
		}
		return nil, fmt.Errorf("failed to parse card file: %w", err)
	}

	for i := range file.Cards {
		if file.Cards[i].State == "" {
			file.Cards[i].State = model.CardStateNew
		}
		if file.Cards[i].NoteID == 0 {
			file.Cards[i].NoteID = file.Cards[i].ID
		}
	}
	return file.Cards, nil
}

func importCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import or update cards from a YAML file",
		Example: `  # cards.yaml
  cards:
    - id: 1
      deck: Kanji::N5
      note_type: Basic
      state: review
      tags: [leech]
      interval: 12
      ease: 1300
      lapses: 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			cards, err := decodeCards(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.ImportCards(ctx, cards)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d cards", n)))
			return nil
		},
	}
}

func listCardsCmd() *cobra.Command {
	var filter service.CardFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cards, err := store.ListCards(ctx, filter)
			if err != nil {
				return err
			}
			return renderCards(cmd.OutOrStdout(), cards)
		},
	}

	cmd.Flags().StringVar(&filter.Tag, "tag", "", "only cards whose note has this tag")
	cmd.Flags().StringVar(&filter.Deck, "deck", "", "only cards in this deck or its sub-decks")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of cards")

	return cmd
}

func renderCards(w io.Writer, cards []model.Card) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, "No cards found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tDECK\tNOTE TYPE\tSTATE\tDUE\tIVL\tLAPSES\tTAGS")
	for _, c := range cards {
		due := "-"
		if !c.Due.IsZero() {
			due = c.Due.Format("2006-01-02")
		}
		state := string(c.State)
		if c.Suspended {
			state += " (suspended)"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			c.ID, c.Deck, c.NoteType, state, due, c.Interval, c.Lapses, strings.Join(c.Tags, " "))
	}
	return tw.Flush()
}

func tagCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <card-id> <tag>",
		Short: "Tag a card's note and fire the tag event",
		Long: `Adds the tag to the card's note, then behaves like the host's tag hook:
if the tag is the leech tag and auto_run_on_tag is on, the card is processed.`,
		Args: cobra.ExactArgs(2),
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

			if err := store.AddTag(ctx, id, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Tagged card %d with %s", id, args[1])))

			triggers, err := newTriggers(cmd, store)
			if err != nil {
				return err
			}
			_, err = triggers.OnCardTagged(ctx, id, args[1])
			return err
		},
	}
}

func untagCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untag <card-id> <tag>",
		Short: "Remove a tag from a card's note",
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

			if err := store.RemoveTag(ctx, id, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed %s from card %d", args[1], id)))
			return nil
		},
	}
}
