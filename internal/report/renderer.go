package report

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/trackinspect/pkrec/internal/kinematics"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"timestamp", "position", "x", "y", "z", "magnitude", "band"}

// CSVRenderer writes one row per sample in the interval. A sample recorded
// without a position is written at PK 0, where the range filter placed it.
type CSVRenderer struct{}

func (CSVRenderer) Render(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}
	for _, s := range r.Samples {
		row := []string{
			strconv.FormatInt(s.Timestamp, 10),
			formatFloat(s.PositionOrZero()),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Z),
			formatFloat(s.Magnitude),
			kinematics.Classify(s.Y, r.Thresholds).String(),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

const (
	versionSentinel = "<!-- pkrec-report-version: 1 -->"
	dataPrefix      = "<!-- pkrec-data: "
	dataSuffix      = " -->"
)

// MarkdownRenderer renders a Report as readable Markdown with the full report
// embedded as base64 JSON so `pkrec view` can load it back losslessly.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(r *Report) ([]byte, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	fmt.Fprintf(&sb, "# Report %s\n\n", r.ID)

	day, clock, _ := strings.Cut(r.Date, " ")
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Date: %s, time: %s, operator: %s\n", day, clock, orDash(r.Metadata.Operator))
	fmt.Fprintf(&sb, "- Line: %s\n", orDash(r.Metadata.Line))
	fmt.Fprintf(&sb, "- Track: %s, PK: %s (%s)\n", r.Track, r.PKRange(), r.Direction)
	fmt.Fprintf(&sb, "- Train: %s, engine: %s, device position: %s\n",
		orDash(r.Metadata.Train), orDash(r.Metadata.EngineNumber), orDash(r.Metadata.TrainPosition))
	fmt.Fprintf(&sb, "- Note: %s\n", r.Note())
	fmt.Fprintf(&sb, "- Lateral thresholds LA / LI / LAI: %.1f / %.1f / %.1f m/s²\n",
		r.Thresholds.Alert, r.Thresholds.Intervention, r.Thresholds.Immediate)
	sb.WriteString("\n")

	s := r.Summary
	sb.WriteString("## Statistics\n\n")
	if s.Samples == 0 {
		sb.WriteString("_No samples in this interval._\n")
	} else {
		sb.WriteString("| Axis | Mean | Std dev | Max abs |\n")
		sb.WriteString("|------|------|---------|---------|\n")
		fmt.Fprintf(&sb, "| Lateral (Y) | %.3f | %.3f | %.3f |\n", s.MeanLateral, s.StdLateral, s.MaxLateral)
		fmt.Fprintf(&sb, "| Vertical (Z) | %.3f | %.3f | %.3f |\n", s.MeanVertical, s.StdVertical, s.MaxVertical)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "- Samples: %d\n", s.Samples)
		fmt.Fprintf(&sb, "- Exceedances LA / LI / LAI: %d / %d / %d\n",
			s.CountAlert, s.CountIntervention, s.CountImmediate)
	}
	sb.WriteString("\n")

	sb.WriteString("## Exceedances\n\n")
	if len(s.Exceedances) == 0 {
		sb.WriteString("_No threshold exceeded._\n")
	} else {
		sb.WriteString("| PK | Lateral (m/s²) | Band |\n")
		sb.WriteString("|----|----------------|------|\n")
		for _, e := range s.Exceedances {
			fmt.Fprintf(&sb, "| %.5f | %.3f | %s |\n", e.Position, e.Lateral, e.Band)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Analysis\n\n")
	if r.Analysis == nil {
		sb.WriteString("_Not analysed._\n")
	} else {
		a := r.Analysis
		fmt.Fprintf(&sb, "- Activity: %s\n", a.ActivityType)
		fmt.Fprintf(&sb, "- Intensity: %.0f/100\n", a.IntensityScore)
		fmt.Fprintf(&sb, "- Compliance: %s\n", a.ComplianceLevel)
		for _, o := range a.Observations {
			fmt.Fprintf(&sb, "  - %s\n", o)
		}
		if a.Recommendations != "" {
			fmt.Fprintf(&sb, "\n%s\n", a.Recommendations)
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
