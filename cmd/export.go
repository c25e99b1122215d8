package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackinspect/pkrec/internal/eventlog"
	"github.com/trackinspect/pkrec/internal/report"
)

var exportOpts struct {
	from   float64
	to     float64
	format string
	out    string
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session report as csv, json, markdown, png or html",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()

		name := exportOpts.format
		if name == "" {
			name = c.DefaultFormat
		}
		format, err := report.ParseFormat(name)
		if err != nil {
			return err
		}
		dir := exportOpts.out
		if dir == "" {
			dir = c.ExportDir
		}

		events, err := openEvents()
		if err != nil {
			return err
		}
		store, closeStore, err := openHistory(events)
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}
		r, err := buildReport(cmd, rec, exportOpts.from, exportOpts.to)
		if err != nil {
			return err
		}

		paths, err := report.Export(r, format, dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range paths {
			events.Append(eventlog.Event{
				Event:   eventlog.EventReportExported,
				Session: rec.ID,
				Format:  string(format),
				Path:    p,
			})
			fmt.Fprintf(out, "✓ Exported %s\n", p)
		}
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.Float64Var(&exportOpts.from, "from", 0, "start of the PK interval in km")
	f.Float64Var(&exportOpts.to, "to", 0, "end of the PK interval in km")
	f.StringVar(&exportOpts.format, "format", "", "csv, json, markdown, png or html (defaults to config)")
	f.StringVarP(&exportOpts.out, "out", "o", "", "output directory (defaults to config)")
	rootCmd.AddCommand(exportCmd)
}
