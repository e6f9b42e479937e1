// Package cli implements the Exhale command-line interface using Cobra.
// Each subcommand drives the progression engine against the local store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exhale-app/exhale/internal/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "exhale",
	Short: "Exhale: level up your smoke-free life",
	Long: `Exhale turns smoke-free time into XP, levels, streaks and achievements.
Progress is stored locally; 'exhale serve' exposes it to the app over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDaemon loads the config and builds a daemon for a one-shot command.
// Console logs are kept to warnings so they do not drown command output.
func openDaemon() (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Format = "console"
	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		cfg.Logging.Level = "warn"
	}
	return daemon.NewWithConfig(cfg)
}

// withDaemon runs fn against a freshly opened daemon and closes it after.
func withDaemon(fn func(d *daemon.Daemon) error) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}
