package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/output"
	boardsync "github.com/a7medmo7amady/trello/internal/sync"
)

var conflictsCmd = &cobra.Command{
	Use:     "conflicts",
	Short:   "List unresolved sync conflicts",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		state := store.Current()
		if len(state.Conflicts) == 0 {
			output.Info("No conflicts")
			return nil
		}

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			return output.JSON(state.Conflicts)
		}

		for _, c := range state.Conflicts {
			output.Info("%s", output.FormatConflict(c))
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <conflict> <local|remote>",
	Short: "Resolve a conflict by keeping the local or remote version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		choice := models.Resolution(strings.ToLower(args[1]))
		if !models.IsValidResolution(choice) {
			output.Error("choice must be \"local\" or \"remote\", got %q", args[1])
			return fmt.Errorf("invalid resolution")
		}

		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		// Expand an ID prefix to the full conflict ID before resolving.
		id := args[0]
		for _, c := range store.Current().Conflicts {
			if strings.HasPrefix(c.ID, id) || strings.HasPrefix(c.ItemID, id) {
				id = c.ID
				break
			}
		}

		engine := newEngine(store)
		if err := engine.Resolve(id, choice); err != nil {
			if errors.Is(err, boardsync.ErrConflictNotFound) {
				output.Error("no conflict matches %q", args[0])
			} else {
				output.Error("%v", err)
			}
			return err
		}

		switch choice {
		case models.ResolutionLocal:
			output.Success("Kept local version; override queued for next sync")
		case models.ResolutionRemote:
			output.Success("Adopted remote version")
		}
		return nil
	},
}

func init() {
	conflictsCmd.Flags().Bool("json", false, "Output as JSON")
	conflictsCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(conflictsCmd)
}
