package cmd

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/output"
)

var validate = validator.New()

// listInput validates list fields at the CLI boundary.
type listInput struct {
	Title string `validate:"required,min=1,max=120"`
}

// cardInput validates card fields at the CLI boundary.
type cardInput struct {
	Title       string   `validate:"required,min=1,max=200"`
	Description string   `validate:"max=4000"`
	Tags        []string `validate:"max=10,dive,min=1,max=20"`
}

var createCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"add", "new"},
	Short:   "Create a list or card",
	GroupID: "board",
}

var createListCmd = &cobra.Command{
	Use:   "list <title>",
	Short: "Create a new list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(args[0])
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

		state := store.Dispatch(board.CreateList{Title: title})
		created := state.Lists[len(state.Lists)-1]
		output.Success("Created list %q", created.Title)
		output.Info("  %s", output.FormatList(created))
		return nil
	},
}

var createCardCmd = &cobra.Command{
	Use:   "card <list> <title>",
	Short: "Create a new card in a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("desc")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		tags = models.NormalizeTags(tags)

		in := cardInput{Title: strings.TrimSpace(args[1]), Description: desc, Tags: tags}
		if err := validate.Struct(in); err != nil {
			output.Error("invalid card: %v", err)
			return fmt.Errorf("invalid card")
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

		state := store.Dispatch(board.CreateCard{
			ListID:      list.ID,
			Title:       in.Title,
			Description: in.Description,
			Tags:        in.Tags,
		})
		created := state.Cards[len(state.Cards)-1]
		output.Success("Created card %q in %q", created.Title, list.Title)
		output.Info("  %s", output.FormatCard(created))
		return nil
	},
}

func init() {
	createCardCmd.Flags().StringP("desc", "d", "", "Card description")
	createCardCmd.Flags().StringSliceP("tag", "t", nil, "Card tag (repeatable)")
	createCmd.AddCommand(createListCmd)
	createCmd.AddCommand(createCardCmd)
	rootCmd.AddCommand(createCmd)
}
