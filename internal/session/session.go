package session

import (
	"github.com/trackinspect/pkrec/internal/kinematics"
)

// Sample is one instant of measurement. Accelerations are in m/s².
// Position is the PK in kilometres at capture time; nil when unknown.
type Sample struct {
	Timestamp int64    `json:"timestamp"` // milliseconds
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	Magnitude float64  `json:"magnitude"`
	Position  *float64 `json:"position,omitempty"`
}

// PositionOrZero returns the sample's PK, treating an absent one as 0.
func (s Sample) PositionOrZero() float64 {
	if s.Position == nil {
		return 0
	}
	return *s.Position
}

// Metadata is free-text context about a run. It does not affect measurement.
type Metadata struct {
	Operator      string `json:"operator"`
	Line          string `json:"line"`
	Train         string `json:"train"`
	EngineNumber  string `json:"engine_number"`
	TrainPosition string `json:"train_position"` // position of the device in the train
	Note          string `json:"note"`
}

// SessionConfig holds the run parameters fixed when recording starts.
type SessionConfig struct {
	StartPosition float64               `json:"start_position"`
	Direction     kinematics.Direction  `json:"direction"`
	Track         string                `json:"track"`
	Thresholds    kinematics.Thresholds `json:"thresholds"`
	Metadata
}

// SessionStats is the config of a run plus its derived aggregates.
type SessionStats struct {
	SessionConfig
	kinematics.Aggregate
}

// ComplianceLevel is the verdict of an external analysis.
type ComplianceLevel string

const (
	Compliant ComplianceLevel = "compliant"
	Monitor   ComplianceLevel = "monitor"
	Critical  ComplianceLevel = "critical"
)

// Valid reports whether c is one of the known levels.
func (c ComplianceLevel) Valid() bool {
	return c == Compliant || c == Monitor || c == Critical
}

// Analysis is the result of an external analysis of a session.
type Analysis struct {
	ActivityType    string          `json:"activity_type"`
	IntensityScore  float64         `json:"intensity_score"` // 0-100
	Observations    []string        `json:"observations"`
	Recommendations string          `json:"recommendations"`
	ComplianceLevel ComplianceLevel `json:"compliance_level"`
}

// SessionRecord is a completed run. Only Analysis may change after creation.
type SessionRecord struct {
	ID       string       `json:"id"`
	Date     string       `json:"date"`
	Stats    SessionStats `json:"stats"`
	Samples  []Sample     `json:"samples"`
	Analysis *Analysis    `json:"analysis,omitempty"`
}

// Clone returns a deep copy of r so callers can hand out read-only views.
func (r SessionRecord) Clone() SessionRecord {
	out := r
	if r.Samples != nil {
		out.Samples = make([]Sample, len(r.Samples))
		for i, s := range r.Samples {
			if s.Position != nil {
				p := *s.Position
				s.Position = &p
			}
			out.Samples[i] = s
		}
	}
	if r.Analysis != nil {
		a := r.Analysis.Clone()
		out.Analysis = &a
	}
	return out
}

// Clone returns a copy of a that shares no slices with it.
func (a Analysis) Clone() Analysis {
	if a.Observations != nil {
		a.Observations = append([]string(nil), a.Observations...)
	}
	return a
}
