package kinematics

import "math"

// Reading is the part of a sample the aggregator needs.
type Reading struct {
	Timestamp int64 // milliseconds
	X, Y, Z   float64
	Magnitude float64
}

// Aggregate is the running state of a session's statistics.
//
// Maxima and exceedance counters only ever grow. AvgMagnitude and Duration
// are recomputed on every update.
type Aggregate struct {
	MaxVertical       float64 `json:"max_vertical"`
	MaxTransversal    float64 `json:"max_transversal"`
	AvgMagnitude      float64 `json:"avg_magnitude"`
	Duration          float64 `json:"duration"` // seconds since the first sample
	CountAlert        int     `json:"count_alert"`
	CountIntervention int     `json:"count_intervention"`
	CountImmediate    int     `json:"count_immediate"`

	n       int
	firstTS int64
}

// Samples returns how many readings have been folded in.
func (a *Aggregate) Samples() int { return a.n }

// Update folds r into the aggregate and returns the band of its lateral (Y)
// component.
func (a *Aggregate) Update(r Reading, t Thresholds) Band {
	a.n++
	if a.n == 1 {
		a.firstTS = r.Timestamp
	}

	a.MaxVertical = math.Max(a.MaxVertical, math.Abs(r.Z))
	a.MaxTransversal = math.Max(a.MaxTransversal, math.Max(math.Abs(r.X), math.Abs(r.Y)))

	n := float64(a.n)
	a.AvgMagnitude = (a.AvgMagnitude*(n-1) + r.Magnitude) / n
	a.Duration = float64(r.Timestamp-a.firstTS) / 1000

	band := Classify(r.Y, t)
	switch band {
	case BandAlert:
		a.CountAlert++
	case BandIntervention:
		a.CountIntervention++
	case BandImmediate:
		a.CountImmediate++
	}
	return band
}

// Magnitude is the Euclidean norm of an acceleration vector.
func Magnitude(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}
