// Package report builds exportable reports from recorded sessions and renders
// them as CSV, JSON, Markdown, PNG charts or an HTML chart page.
package report

import (
	"fmt"
	"strings"

	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/session"
)

// Report is one session restricted to a PK interval, ready to render.
type Report struct {
	ID            string                `json:"id"`
	SessionID     string                `json:"session_id"`
	Date          string                `json:"date"`
	Track         string                `json:"track"`
	Direction     kinematics.Direction  `json:"direction"`
	StartPosition float64               `json:"start_position"`
	From          float64               `json:"from"`
	To            float64               `json:"to"`
	Thresholds    kinematics.Thresholds `json:"thresholds"`
	Metadata      session.Metadata      `json:"metadata"`
	Session       kinematics.Aggregate  `json:"session_stats"`
	Summary       Summary               `json:"summary"`
	Samples       []session.Sample      `json:"samples"`
	Analysis      *session.Analysis     `json:"analysis,omitempty"`
}

// Build restricts rec to the PK interval [from, to], in either order.
func Build(rec session.SessionRecord, from, to float64) *Report {
	if from > to {
		from, to = to, from
	}
	samples := session.FilterRange(rec.Samples, from, to)
	stats := rec.Stats

	r := &Report{
		ID:            ID(rec.Date, stats.Track),
		SessionID:     rec.ID,
		Date:          rec.Date,
		Track:         stats.Track,
		Direction:     stats.Direction,
		StartPosition: stats.StartPosition,
		From:          from,
		To:            to,
		Thresholds:    stats.Thresholds,
		Metadata:      stats.Metadata,
		Session:       stats.Aggregate,
		Summary:       Summarize(samples, stats.Thresholds),
		Samples:       samples,
	}
	if rec.Analysis != nil {
		a := rec.Analysis.Clone()
		r.Analysis = &a
	}
	return r
}

// BuildFull covers the whole PK span of rec. A record without samples gets
// the degenerate interval at its start position.
func BuildFull(rec session.SessionRecord) *Report {
	lo, hi, ok := session.PositionSpan(rec.Samples)
	if !ok {
		lo, hi = rec.Stats.StartPosition, rec.Stats.StartPosition
	}
	return Build(rec, lo, hi)
}

// ID derives a report id from a record date and track:
// "14/03/2026 09:26:53" on track "V1" gives "14032026_092653_V1".
// Characters that are unsafe in a file name become '-'.
func ID(date, track string) string {
	day, clock, _ := strings.Cut(strings.TrimSpace(date), " ")
	day = strings.ReplaceAll(day, "/", "")
	clock = strings.ReplaceAll(clock, ":", "")
	return fmt.Sprintf("%s_%s_%s", day, clock, strings.Map(fileSafe, strings.TrimSpace(track)))
}

// fileSafe keeps letters, digits, '-', '_' and '.', and maps anything else
// to '-' so an id is always a single path element.
func fileSafe(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '-', r == '_', r == '.':
		return r
	}
	return '-'
}

// PKRange formats the interval the way report headers show it.
func (r *Report) PKRange() string {
	return fmt.Sprintf("%.5f to %.5f", r.From, r.To)
}

// Note returns the operator note, or "none" when it was left empty.
func (r *Report) Note() string {
	note := strings.TrimSpace(r.Metadata.Note)
	if note == "" || strings.EqualFold(note, "RAS") {
		return "none"
	}
	return note
}
