package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/trackinspect/pkrec/internal/report"
)

// printReport writes a plain-text rendition of r.
func printReport(w io.Writer, r *report.Report) {
	fmt.Fprintf(w, "## Report %s\n", r.ID)
	fmt.Fprintf(w, "  Session:    %s\n", r.SessionID)
	fmt.Fprintf(w, "  Date:       %s\n", r.Date)
	fmt.Fprintf(w, "  Track:      %s (%s)\n", r.Track, r.Direction)
	fmt.Fprintf(w, "  PK range:   %s\n", r.PKRange())
	fmt.Fprintf(w, "  Thresholds: LA %.2f / LI %.2f / LAI %.2f m/s²\n",
		r.Thresholds.Alert, r.Thresholds.Intervention, r.Thresholds.Immediate)
	fmt.Fprintf(w, "  Operator:   %s\n", orNone(r.Metadata.Operator))
	fmt.Fprintf(w, "  Train:      %s %s\n", orNone(r.Metadata.Train), r.Metadata.EngineNumber)
	fmt.Fprintf(w, "  Note:       %s\n", r.Note())
	fmt.Fprintln(w)

	s := r.Summary
	fmt.Fprintln(w, "## Statistics")
	fmt.Fprintf(w, "  Samples:    %d\n", s.Samples)
	fmt.Fprintf(w, "  Lateral:    mean %.3f  std %.3f  max %.3f\n", s.MeanLateral, s.StdLateral, s.MaxLateral)
	fmt.Fprintf(w, "  Vertical:   mean %.3f  std %.3f  max %.3f\n", s.MeanVertical, s.StdVertical, s.MaxVertical)
	fmt.Fprintf(w, "  LA / LI / LAI: %d / %d / %d\n", s.CountAlert, s.CountIntervention, s.CountImmediate)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Exceedances")
	if len(s.Exceedances) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, e := range s.Exceedances {
		fmt.Fprintf(w, "  PK %.3f  %-12s %+.3f m/s²\n", e.Position, e.Band, e.Lateral)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Analysis")
	if r.Analysis == nil {
		fmt.Fprintln(w, "  (not analysed)")
		return
	}
	a := r.Analysis
	fmt.Fprintf(w, "  Activity:   %s\n", a.ActivityType)
	fmt.Fprintf(w, "  Intensity:  %.0f/100\n", a.IntensityScore)
	fmt.Fprintf(w, "  Compliance: %s\n", a.ComplianceLevel)
	for _, o := range a.Observations {
		fmt.Fprintf(w, "  - %s\n", o)
	}
	if a.Recommendations != "" {
		fmt.Fprintf(w, "  %s\n", strings.TrimSpace(a.Recommendations))
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
