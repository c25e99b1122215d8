package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/session"
)

// Summary describes the samples inside a report interval.
type Summary struct {
	Samples           int          `json:"samples"`
	MeanLateral       float64      `json:"mean_lateral"`
	StdLateral        float64      `json:"std_lateral"`
	MaxLateral        float64      `json:"max_lateral"`
	MeanVertical      float64      `json:"mean_vertical"`
	StdVertical       float64      `json:"std_vertical"`
	MaxVertical       float64      `json:"max_vertical"`
	CountAlert        int          `json:"count_alert"`
	CountIntervention int          `json:"count_intervention"`
	CountImmediate    int          `json:"count_immediate"`
	Exceedances       []Exceedance `json:"exceedances"`
}

// Exceedance is a lateral reading at or above the alert threshold.
type Exceedance struct {
	Timestamp int64   `json:"timestamp"`
	Position  float64 `json:"position"`
	Lateral   float64 `json:"lateral"`
	Band      string  `json:"band"`
}

// Summarize computes interval statistics. Standard deviations need two
// samples and are 0 otherwise.
func Summarize(samples []session.Sample, t kinematics.Thresholds) Summary {
	s := Summary{Samples: len(samples), Exceedances: []Exceedance{}}
	if len(samples) == 0 {
		return s
	}

	lateral := make([]float64, len(samples))
	vertical := make([]float64, len(samples))
	for i, smp := range samples {
		lateral[i] = smp.Y
		vertical[i] = smp.Z
		s.MaxLateral = math.Max(s.MaxLateral, math.Abs(smp.Y))
		s.MaxVertical = math.Max(s.MaxVertical, math.Abs(smp.Z))

		band := kinematics.Classify(smp.Y, t)
		switch band {
		case kinematics.BandAlert:
			s.CountAlert++
		case kinematics.BandIntervention:
			s.CountIntervention++
		case kinematics.BandImmediate:
			s.CountImmediate++
		default:
			continue
		}
		s.Exceedances = append(s.Exceedances, Exceedance{
			Timestamp: smp.Timestamp,
			Position:  smp.PositionOrZero(),
			Lateral:   smp.Y,
			Band:      band.String(),
		})
	}

	if len(samples) < 2 {
		s.MeanLateral, s.MeanVertical = lateral[0], vertical[0]
		return s
	}
	s.MeanLateral, s.StdLateral = stat.MeanStdDev(lateral, nil)
	s.MeanVertical, s.StdVertical = stat.MeanStdDev(vertical, nil)
	return s
}
