package session

import (
	"math"
	"sync/atomic"
)

// SpeedCell holds the most recent GPS speed in m/s.
//
// It has last-known-value semantics and reads 0 until the first fix arrives.
// Only the position-fix handler writes it; the motion handler only reads.
type SpeedCell struct {
	bits atomic.Uint64
}

// Set stores a new speed. Negative or non-finite values are stored as 0.
func (c *SpeedCell) Set(mps float64) {
	if !(mps > 0) || math.IsInf(mps, 0) {
		mps = 0
	}
	c.bits.Store(math.Float64bits(mps))
}

// Get returns the last stored speed.
func (c *SpeedCell) Get() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Reset returns the cell to its zero reading.
func (c *SpeedCell) Reset() {
	c.bits.Store(0)
}
