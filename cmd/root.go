package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/trackinspect/pkrec/internal/config"
	"github.com/trackinspect/pkrec/internal/eventlog"
	"github.com/trackinspect/pkrec/internal/history"
	"github.com/trackinspect/pkrec/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded operator profile.
var activeProfile *profile.Profile

var rootCmd = &cobra.Command{
	Use:   "pkrec",
	Short: "Record track-inspection runs and review lateral acceleration against thresholds",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() {
			if term.IsTerminal(os.Stdin.Fd()) {
				fmt.Println()
				fmt.Println("  Welcome to pkrec! Looks like this is your first time.")
				if err := runSetup(true); err != nil {
					return err
				}
			}
			// Non-interactive (tests, pipes): continue without a profile.
		}

		activeProfile = nil
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active operator profile, nil when none exists.
func GetProfile() *profile.Profile {
	return activeProfile
}

// openEvents opens the event log in the data directory.
func openEvents() (*eventlog.Logger, error) {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	return eventlog.New(dir)
}

// openHistory loads the history through the configured backend. The returned
// close function releases the backend.
func openHistory(events *eventlog.Logger) (*history.Store, func() error, error) {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving data directory: %w", err)
	}

	var (
		port    history.Port
		closeFn = func() error { return nil }
	)
	switch cfg.HistoryBackend {
	case config.BackendSQLite:
		p, err := history.OpenSQLitePort(dir)
		if err != nil {
			return nil, nil, err
		}
		port, closeFn = p, p.Close
	default:
		p, err := history.NewFilePort(dir)
		if err != nil {
			return nil, nil, err
		}
		port = p
	}

	store := history.NewStore(port, events)
	store.Load()
	return store, closeFn, nil
}
