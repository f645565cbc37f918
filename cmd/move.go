package cmd

import (
	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/output"
)

var moveCmd = &cobra.Command{
	Use:     "move <card> <target-list>",
	Aliases: []string{"mv"},
	Short:   "Move a card to another list (or reorder within one)",
	GroupID: "board",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		state := store.Current()
		card, err := resolveCard(state, args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		list, err := resolveList(state, args[1])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		action := board.MoveCard{CardID: card.ID, TargetListID: list.ID}
		if cmd.Flags().Changed("index") {
			idx, _ := cmd.Flags().GetInt("index")
			action.TargetIndex = &idx
		}

		after := store.Dispatch(action)
		if i := after.FindCard(card.ID); i >= 0 {
			output.Success("Moved %q to %q (position %d)", card.Title, list.Title, after.Cards[i].Order)
		}
		return nil
	},
}

func init() {
	moveCmd.Flags().IntP("index", "i", 0, "Target position within the list (0-based; default appends)")
	rootCmd.AddCommand(moveCmd)
}
