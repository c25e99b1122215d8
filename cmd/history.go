package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls"},
	Short:   "List recorded sessions, most recent first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		events, err := openEvents()
		if err != nil {
			return err
		}
		store, closeStore, err := openHistory(events)
		if err != nil {
			return err
		}
		defer closeStore()

		if store.Len() == 0 {
			fmt.Fprintln(out, "No sessions recorded yet. Run 'pkrec record' to capture one.")
			return nil
		}

		rows := make([][]string, 0, store.Len())
		for _, rec := range store.Records() {
			s := rec.Stats
			analysed := "-"
			if rec.Analysis != nil {
				analysed = string(rec.Analysis.ComplianceLevel)
			}
			rows = append(rows, []string{
				rec.ID,
				rec.Date,
				s.Track,
				fmt.Sprintf("%.3f", s.StartPosition),
				strconv.Itoa(len(rec.Samples)),
				fmt.Sprintf("%d/%d/%d", s.CountAlert, s.CountIntervention, s.CountImmediate),
				analysed,
			})
		}

		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "DATE", "TRACK", "PK", "SAMPLES", "LA/LI/LAI", "ANALYSIS").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
		fmt.Fprintln(out, t.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
