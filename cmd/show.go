package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/trackinspect/pkrec/internal/history"
	"github.com/trackinspect/pkrec/internal/report"
	"github.com/trackinspect/pkrec/internal/session"
	"github.com/trackinspect/pkrec/internal/tui"
)

var showOpts struct {
	from  float64
	to    float64
	plain bool
}

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Browse a recorded session, optionally restricted to a PK interval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := openEvents()
		if err != nil {
			return err
		}
		store, closeStore, err := openHistory(events)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Select(args[0]); err != nil {
			return err
		}
		rec, ok := store.Selected()
		if !ok {
			return history.ErrNotFound
		}

		r, err := buildReport(cmd, rec, showOpts.from, showOpts.to)
		if err != nil {
			return err
		}
		if showOpts.plain {
			printReport(cmd.OutOrStdout(), r)
			return nil
		}
		return tui.Run(r, rec.ID)
	},
}

// buildReport restricts rec to --from/--to when both are given, otherwise it
// covers the whole run.
func buildReport(cmd *cobra.Command, rec session.SessionRecord, from, to float64) (*report.Report, error) {
	fromSet := cmd.Flags().Changed("from")
	toSet := cmd.Flags().Changed("to")
	switch {
	case fromSet && toSet:
		return report.Build(rec, from, to), nil
	case fromSet || toSet:
		return nil, errors.New("--from and --to must be given together")
	default:
		return report.BuildFull(rec), nil
	}
}

func init() {
	showCmd.Flags().Float64Var(&showOpts.from, "from", 0, "start of the PK interval in km")
	showCmd.Flags().Float64Var(&showOpts.to, "to", 0, "end of the PK interval in km")
	showCmd.Flags().BoolVar(&showOpts.plain, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(showCmd)
}
