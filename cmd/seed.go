package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/config"
	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/output"
	"github.com/a7medmo7amady/trello/internal/remote"
)

var seedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Populate an empty board with a starter template",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		force, _ := cmd.Flags().GetBool("force")
		if len(store.Current().Lists) > 0 && !force {
			output.Error("board is not empty; pass --force to seed anyway")
			return fmt.Errorf("board not empty")
		}

		for _, title := range []string{"Backlog", "In Progress", "Done"} {
			store.Dispatch(board.CreateList{Title: title})
		}
		backlog, err := resolveList(store.Current(), "Backlog")
		if err != nil {
			output.Error("%v", err)
			return err
		}
		store.Dispatch(board.CreateCard{
			ListID:      backlog.ID,
			Title:       "Try the CLI",
			Description: "Create a card with: trello create card Backlog \"My first card\"",
			Tags:        []string{"starter"},
		})

		output.Success("Seeded board with 3 lists")
		output.Board(store.Current(), false)

		if push, _ := cmd.Flags().GetBool("push"); push {
			state := store.Current()
			client := remote.NewClient(config.ServerURL(), config.APIKey())
			snap := models.Snapshot{
				Lists:        state.Lists,
				Cards:        state.Cards,
				LastModified: time.Now(),
			}
			if err := client.PushSnapshot(cmd.Context(), snap); err != nil {
				output.Error("push seed to %s: %v", client.BaseURL, err)
				return err
			}
			store.RemoveQueueEntries(queueIDs(state.SyncQueue))
			store.SetLastSynced(time.Now())
			output.Success("Pushed seed board to %s", client.BaseURL)
		}
		return nil
	},
}

func queueIDs(entries []models.SyncQueueEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func init() {
	seedCmd.Flags().Bool("force", false, "Seed even if the board is not empty")
	seedCmd.Flags().Bool("push", false, "Overwrite the remote board with the seeded state")
	rootCmd.AddCommand(seedCmd)
}
