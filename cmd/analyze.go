package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/trackinspect/pkrec/internal/analysis"
	"github.com/trackinspect/pkrec/internal/eventlog"
	"github.com/trackinspect/pkrec/internal/history"
	"github.com/trackinspect/pkrec/internal/session"
)

// errNoEndpoint is returned when analysis is requested without an endpoint.
var errNoEndpoint = errors.New("no analysis endpoint configured: set analysis_endpoint in config.json")

// newAnalyzer is replaced in tests.
var newAnalyzer = func() (analysis.Analyzer, error) {
	c := GetConfig()
	if c.AnalysisEndpoint == "" {
		return nil, errNoEndpoint
	}
	return analysis.NewHTTPAnalyzer(c.AnalysisEndpoint, c.APIKey()), nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <session-id>",
	Short: "Send a recorded session for analysis and attach the verdict",
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

		an, err := newAnalyzer()
		if err != nil {
			return err
		}
		a, err := analysis.Attach(cmd.Context(), an, store, args[0], events)
		if err != nil {
			return err
		}
		printAnalysis(cmd.OutOrStdout(), args[0], a)
		return nil
	},
}

// analyzeAndReport runs the analysis after a recording. Failures are reported
// but never fail the recording itself.
func analyzeAndReport(ctx context.Context, w io.Writer, store *history.Store, id string, events *eventlog.Logger) {
	an, err := newAnalyzer()
	if err == nil {
		var a session.Analysis
		if a, err = analysis.Attach(ctx, an, store, id, events); err == nil {
			printAnalysis(w, id, a)
			return
		}
	}
	fmt.Fprintf(w, "  ⚠ Analysis skipped: %v\n", err)
	fmt.Fprintf(w, "    You can retry with: pkrec analyze %s\n", id)
}

func printAnalysis(w io.Writer, id string, a session.Analysis) {
	fmt.Fprintf(w, "✓ Analysis attached to %s: %s (intensity %.0f/100)\n", id, a.ComplianceLevel, a.IntensityScore)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
