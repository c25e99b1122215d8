package kinematics

import (
	"fmt"
	"math"
)

// Band is the severity classification of a single lateral reading.
type Band int

const (
	BandNone Band = iota
	BandAlert
	BandIntervention
	BandImmediate
)

func (b Band) String() string {
	switch b {
	case BandAlert:
		return "alert"
	case BandIntervention:
		return "intervention"
	case BandImmediate:
		return "immediate"
	default:
		return "none"
	}
}

// Thresholds are the three ascending lateral acceleration limits in m/s².
type Thresholds struct {
	Alert        float64 `json:"alert"`
	Intervention float64 `json:"intervention"`
	Immediate    float64 `json:"immediate"`
}

// DefaultThresholds are the limits used when neither config nor flags set any.
func DefaultThresholds() Thresholds {
	return Thresholds{Alert: 1.2, Intervention: 2.2, Immediate: 2.8}
}

// Validate checks alert <= intervention <= immediate.
// Classify does not call it; an unordered set still yields one band per value.
func (t Thresholds) Validate() error {
	if t.Alert > t.Intervention || t.Intervention > t.Immediate {
		return fmt.Errorf("thresholds must be ascending: alert %.2f, intervention %.2f, immediate %.2f",
			t.Alert, t.Intervention, t.Immediate)
	}
	return nil
}

// Classify returns the most severe band whose threshold |value| reaches.
// A value exactly on a threshold belongs to that threshold's band.
func Classify(value float64, t Thresholds) Band {
	v := math.Abs(value)
	switch {
	case v >= t.Immediate:
		return BandImmediate
	case v >= t.Intervention:
		return BandIntervention
	case v >= t.Alert:
		return BandAlert
	default:
		return BandNone
	}
}
