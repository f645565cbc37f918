package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/a7medmo7amady/trello/internal/config"
	"github.com/a7medmo7amady/trello/internal/output"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "View or change client configuration",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := config.DataDir()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Info("Data dir:    %s", dataDir)
		output.Info("Server:      %s", config.ServerURL())
		if config.APIKey() != "" {
			output.Info("API key:     (set)")
		} else {
			output.Info("API key:     (none)")
		}
		output.Info("Interval:    %s", config.SyncInterval())
		output.Info("Retry delay: %s", config.RetryDelay())
		output.Info("Max retries: %d", config.MaxRetries())
		output.Info("Auto-merge:  %t", config.AutoMerge())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value (server, api-key, interval, retry-delay, max-retries, auto-merge, data-dir)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "server":
			cfg.Sync.URL = value
			cfg.Sync.Enabled = true
		case "api-key":
			cfg.Sync.APIKey = value
		case "interval":
			if _, err := time.ParseDuration(value); err != nil {
				output.Error("invalid duration %q: %v", value, err)
				return err
			}
			cfg.Sync.Interval = value
		case "retry-delay":
			if _, err := time.ParseDuration(value); err != nil {
				output.Error("invalid duration %q: %v", value, err)
				return err
			}
			cfg.Sync.RetryDelay = value
		case "max-retries":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				output.Error("max-retries must be a non-negative integer, got %q", value)
				return fmt.Errorf("invalid max-retries")
			}
			cfg.Sync.MaxRetries = &n
		case "auto-merge":
			b, err := strconv.ParseBool(value)
			if err != nil {
				output.Error("auto-merge must be true or false, got %q", value)
				return err
			}
			cfg.Sync.AutoMerge = &b
		case "data-dir":
			cfg.DataDir = value
		default:
			output.Error("unknown config key %q", key)
			return fmt.Errorf("unknown config key")
		}

		if err := config.Save(cfg); err != nil {
			output.Error("saving config: %v", err)
			return err
		}
		output.Success("Set %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
