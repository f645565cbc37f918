package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/config"
	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/remote"
	"github.com/a7medmo7amady/trello/internal/storage"
	boardsync "github.com/a7medmo7amady/trello/internal/sync"
)

var version string

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "trello",
	Short: "Offline-first board CLI with background sync",
	Long: `trello - An offline-first kanban board CLI.

All edits apply instantly to the local board and queue for sync. When a server
is configured, queued changes push in the background and conflicting remote
edits surface for resolution.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	// Add custom template function for showing aliases
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.AddGroup(
		&cobra.Group{ID: "board", Title: "Board Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

// openStore opens the persisted board. The returned cleanup closes the
// underlying database and must always be called.
func openStore() (*board.Store, func(), error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	blob, err := storage.OpenSQLite(filepath.Join(dataDir, "board.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening board store: %w", err)
	}
	store := board.NewStore(board.NewReducer(), blob)
	return store, func() { blob.Close() }, nil
}

// newEngine wires a sync engine from config. Callers that only need local
// operations (conflict resolution) still go through here so options stay in
// one place.
func newEngine(store *board.Store) *boardsync.Engine {
	client := remote.NewClient(config.ServerURL(), config.APIKey())
	return boardsync.NewEngine(store, client, boardsync.Options{
		Interval:   config.SyncInterval(),
		MaxRetries: config.MaxRetries(),
		RetryDelay: config.RetryDelay(),
		AutoMerge:  config.AutoMerge(),
	})
}

// resolveList finds a list by ID, unique ID prefix, or exact title
// (case-insensitive).
func resolveList(state board.State, ref string) (models.List, error) {
	if i := state.FindList(ref); i >= 0 {
		return state.Lists[i], nil
	}
	var matches []models.List
	for _, l := range state.Lists {
		if strings.HasPrefix(l.ID, ref) || strings.EqualFold(l.Title, ref) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return models.List{}, fmt.Errorf("no list matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.List{}, fmt.Errorf("%q is ambiguous: %d lists match", ref, len(matches))
	}
}

// resolveCard finds a card by ID, unique ID prefix, or exact title.
func resolveCard(state board.State, ref string) (models.Card, error) {
	if i := state.FindCard(ref); i >= 0 {
		return state.Cards[i].Clone(), nil
	}
	var matches []models.Card
	for _, c := range state.Cards {
		if strings.HasPrefix(c.ID, ref) || strings.EqualFold(c.Title, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return models.Card{}, fmt.Errorf("no card matches %q", ref)
	case 1:
		return matches[0].Clone(), nil
	default:
		return models.Card{}, fmt.Errorf("%q is ambiguous: %d cards match", ref, len(matches))
	}
}
