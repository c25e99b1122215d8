package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trackinspect/pkrec/internal/report"
	"github.com/trackinspect/pkrec/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View an exported report file (.md or .json)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		r, err := report.ParseFile(path)
		if err != nil {
			return err
		}
		if plainOutput {
			printReport(cmd.OutOrStdout(), r)
			return nil
		}
		return tui.Run(r, path)
	},
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
