package cmd

import (
	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"rm"},
	Short:   "Delete a list or card",
	GroupID: "board",
}

var deleteListCmd = &cobra.Command{
	Use:   "list <list>",
	Short: "Delete a list and all its cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		state := store.Current()
		list, err := resolveList(state, args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		cards := len(state.CardsInList(list.ID))
		store.Dispatch(board.DeleteList{ListID: list.ID})
		if cards > 0 {
			output.Success("Deleted list %q and its %d card(s)", list.Title, cards)
		} else {
			output.Success("Deleted list %q", list.Title)
		}
		output.Info("Changed your mind? trello undo")
		return nil
	},
}

var deleteCardCmd = &cobra.Command{
	Use:   "card <card>",
	Short: "Delete a card",
	Args:  cobra.ExactArgs(1),
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

		store.Dispatch(board.DeleteCard{CardID: card.ID})
		output.Success("Deleted card %q", card.Title)
		return nil
	},
}

func init() {
	deleteCmd.AddCommand(deleteListCmd)
	deleteCmd.AddCommand(deleteCardCmd)
	rootCmd.AddCommand(deleteCmd)
}
