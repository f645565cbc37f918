package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/config"
	"github.com/a7medmo7amady/trello/internal/output"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Push queued changes and pull the remote board",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		engine := newEngine(store)

		before := engine.Status()
		if before.Pending == 0 {
			output.Info("Queue empty; pulling remote state")
		} else {
			output.Info("Pushing %d queued change(s)", before.Pending)
		}

		if err := engine.SyncNow(cmd.Context()); err != nil {
			output.Error("sync failed: %v", err)
			return err
		}

		after := engine.Status()
		if after.Conflicts > before.Conflicts {
			output.Warning("%d new conflict(s) detected. Run: trello conflicts", after.Conflicts-before.Conflicts)
		}
		output.Success("Synced at %s", after.LastSyncedAt.Format("15:04:05"))
		if after.Pending > 0 {
			output.Info("%d change(s) still pending", after.Pending)
		}
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync queue and conflict counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		engine := newEngine(store)
		st := engine.Status()

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			return output.JSON(struct {
				Pending      int       `json:"pending"`
				Conflicts    int       `json:"conflicts"`
				LastSyncedAt time.Time `json:"last_synced_at"`
				LastError    string    `json:"last_error,omitempty"`
			}{st.Pending, st.Conflicts, st.LastSyncedAt, st.LastError})
		}

		output.Info("Server:     %s", config.ServerURL())
		output.Info("Pending:    %d", st.Pending)
		output.Info("Conflicts:  %d", st.Conflicts)
		if st.LastSyncedAt.IsZero() {
			output.Info("Last sync:  never")
		} else {
			output.Info("Last sync:  %s", st.LastSyncedAt.Format("2006-01-02 15:04:05"))
		}
		if st.LastError != "" {
			output.Warning("Last error: %s", st.LastError)
		}
		return nil
	},
}

// changeNotice mirrors the server's watch payload.
type changeNotice struct {
	Kind     string `json:"kind"`
	ChangeID string `json:"change_id,omitempty"`
	Type     string `json:"type,omitempty"`
}

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail live change notifications from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL, err := watchURL(config.ServerURL())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		header := http.Header{}
		if key := config.APIKey(); key != "" {
			header.Set("Authorization", "Bearer "+key)
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
		if err != nil {
			output.Error("connecting to %s: %v", wsURL, err)
			return err
		}
		defer conn.Close()

		output.Info("Watching %s (Ctrl-C to stop)", wsURL)

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			var notice changeNotice
			if err := conn.ReadJSON(&notice); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				output.Error("connection lost: %v", err)
				return err
			}
			switch notice.Kind {
			case "snapshot":
				output.Info("%s  board replaced", time.Now().Format("15:04:05"))
			default:
				output.Info("%s  %s (%s)", time.Now().Format("15:04:05"), notice.Type, shortRef(notice.ChangeID))
			}
		}
	},
}

// watchURL converts the configured HTTP base URL into the websocket endpoint.
func watchURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/board/watch"
	return u.String(), nil
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	syncStatusCmd.Flags().Bool("json", false, "Output as JSON")
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncWatchCmd)
	rootCmd.AddCommand(syncCmd)
}
