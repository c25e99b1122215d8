// Package kinematics holds the numeric core of a recording run: integrating
// device speed into a track position, classifying lateral acceleration
// against severity thresholds, and aggregating running statistics.
package kinematics

import "math"

// Direction is the sense in which the track position (PK) evolves while the
// train moves forward.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Increasing || d == Decreasing
}

// metersPerKilometer converts GPS displacement into PK units.
const metersPerKilometer = 1000.0

// Integrator accumulates signed displacement along the track.
// Position is expressed in kilometres, speed in metres per second.
type Integrator struct {
	Position  float64
	Direction Direction
}

// NewIntegrator returns an integrator positioned at start.
func NewIntegrator(start float64, dir Direction) *Integrator {
	return &Integrator{Position: start, Direction: dir}
}

// Advance moves the position by speed*elapsed and returns the new position.
// Non-positive elapsed time or speed, and non-finite inputs, leave the
// position unchanged.
func (in *Integrator) Advance(speedMps, elapsedSec float64) float64 {
	if !(elapsedSec > 0) || !(speedMps > 0) || math.IsInf(speedMps, 0) || math.IsInf(elapsedSec, 0) {
		return in.Position
	}
	delta := speedMps * elapsedSec / metersPerKilometer
	if in.Direction == Decreasing {
		in.Position -= delta
	} else {
		in.Position += delta
	}
	return in.Position
}
