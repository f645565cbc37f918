package cmd

import (
	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/output"
)

var showCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"ls", "board"},
	Short:   "Show the board",
	GroupID: "board",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		state := store.Current()

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			return output.JSON(struct {
				Lists interface{} `json:"lists"`
				Cards interface{} `json:"cards"`
			}{state.Lists, state.Cards})
		}

		all, _ := cmd.Flags().GetBool("all")
		output.Board(state, all)

		if n := len(state.Conflicts); n > 0 {
			output.Warning("%d unresolved conflict(s). Run: trello conflicts", n)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolP("all", "a", false, "Include archived lists")
	showCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(showCmd)
}
