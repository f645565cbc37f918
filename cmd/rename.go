package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/output"
)

var renameCmd = &cobra.Command{
	Use:     "rename <list> <new-title>",
	Short:   "Rename a list",
	GroupID: "board",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(args[1])
		if err := validate.Struct(listInput{Title: title}); err != nil {
			output.Error("invalid title: %v", err)
			return fmt.Errorf("invalid title")
		}

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

		store.Dispatch(board.RenameList{ListID: list.ID, Title: title})
		output.Success("Renamed %q to %q", list.Title, title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
