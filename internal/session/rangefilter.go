package session

import "math"

// FilterRange returns the samples whose position lies in the closed interval
// spanned by a and b, in their original order. The bounds may be given in
// either order. A sample without a position is treated as being at 0.
func FilterRange(samples []Sample, a, b float64) []Sample {
	lo, hi := math.Min(a, b), math.Max(a, b)
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		p := s.PositionOrZero()
		if p >= lo && p <= hi {
			out = append(out, s)
		}
	}
	return out
}

// PositionSpan returns the lowest and highest position among samples, with
// absent positions read as 0. ok is false for an empty slice.
func PositionSpan(samples []Sample) (lo, hi float64, ok bool) {
	if len(samples) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		p := s.PositionOrZero()
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return lo, hi, true
}
