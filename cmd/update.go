package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/output"
)

var updateCmd = &cobra.Command{
	Use:     "update <card>",
	Aliases: []string{"edit"},
	Short:   "Update a card's title, description, or tags",
	GroupID: "board",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		card, err := resolveCard(store.Current(), args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		action := board.UpdateCard{CardID: card.ID}
		changed := false

		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			title = strings.TrimSpace(title)
			action.Title = &title
			changed = true
		}
		if cmd.Flags().Changed("desc") {
			desc, _ := cmd.Flags().GetString("desc")
			action.Description = &desc
			changed = true
		}
		if cmd.Flags().Changed("clear-desc") {
			empty := ""
			action.Description = &empty
			changed = true
		}
		if cmd.Flags().Changed("tags") {
			raw, _ := cmd.Flags().GetStringSlice("tags")
			tags := models.NormalizeTags(raw)
			action.Tags = &tags
			changed = true
		}

		if !changed {
			output.Error("nothing to update: pass --title, --desc, --clear-desc, or --tags")
			return fmt.Errorf("nothing to update")
		}

		in := cardInput{Title: card.Title, Description: card.Description, Tags: card.Tags}
		if action.Title != nil {
			in.Title = *action.Title
		}
		if action.Description != nil {
			in.Description = *action.Description
		}
		if action.Tags != nil {
			in.Tags = *action.Tags
		}
		if err := validate.Struct(in); err != nil {
			output.Error("invalid card: %v", err)
			return fmt.Errorf("invalid card")
		}

		state := store.Dispatch(action)
		if i := state.FindCard(card.ID); i >= 0 {
			output.Success("Updated card")
			output.Info("  %s", output.FormatCard(state.Cards[i]))
		}
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:     "tag <card> <tag>...",
	Short:   "Add tags to a card (or remove with --remove)",
	GroupID: "board",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		card, err := resolveCard(store.Current(), args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		removing, _ := cmd.Flags().GetBool("remove")
		tags := card.Tags
		if removing {
			drop := models.NormalizeTags(args[1:])
			kept := tags[:0]
			for _, t := range tags {
				found := false
				for _, d := range drop {
					if t == d {
						found = true
						break
					}
				}
				if !found {
					kept = append(kept, t)
				}
			}
			tags = kept
		} else {
			tags = append(tags, args[1:]...)
		}
		tags = models.NormalizeTags(tags)

		if err := validate.Struct(cardInput{Title: card.Title, Tags: tags}); err != nil {
			output.Error("invalid tags: %v", err)
			return fmt.Errorf("invalid tags")
		}

		state := store.Dispatch(board.UpdateCard{CardID: card.ID, Tags: &tags})
		if i := state.FindCard(card.ID); i >= 0 {
			output.Success("Tags updated")
			output.Info("  %s", output.FormatCard(state.Cards[i]))
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().StringP("desc", "d", "", "New description")
	updateCmd.Flags().Bool("clear-desc", false, "Clear the description")
	updateCmd.Flags().StringSliceP("tags", "t", nil, "Replace all tags")
	tagCmd.Flags().Bool("remove", false, "Remove the given tags instead of adding")
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(tagCmd)
}
