package cmd

import (
	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/output"
)

var archiveCmd = &cobra.Command{
	Use:     "archive <list>",
	Short:   "Archive a list (hidden from the board, cards retained)",
	GroupID: "board",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		list, err := resolveList(store.Current(), args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if list.Archived {
			output.Info("%q is already archived", list.Title)
			return nil
		}

		store.Dispatch(board.ArchiveList{ListID: list.ID})
		output.Success("Archived %q", list.Title)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore <list>",
	Aliases: []string{"unarchive"},
	Short:   "Restore an archived list",
	GroupID: "board",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		list, err := resolveList(store.Current(), args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !list.Archived {
			output.Info("%q is not archived", list.Title)
			return nil
		}

		store.Dispatch(board.RestoreList{ListID: list.ID})
		output.Success("Restored %q", list.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(restoreCmd)
}
