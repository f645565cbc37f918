package cmd

import (
	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/output"
)

var undoCmd = &cobra.Command{
	Use:     "undo",
	Short:   "Undo the last board edit",
	GroupID: "board",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		if !store.Undo() {
			output.Info("Nothing to undo")
			return nil
		}
		output.Success("Undone")
		return nil
	},
}

var redoCmd = &cobra.Command{
	Use:     "redo",
	Short:   "Redo a previously undone edit",
	GroupID: "board",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		if !store.Redo() {
			output.Info("Nothing to redo")
			return nil
		}
		output.Success("Redone")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
}
