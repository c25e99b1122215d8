package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Feature: pkrec, Property 1: position equals start plus the integrated speed
func TestAdvanceSumsDisplacement(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Float64Range(-500, 500).Draw(t, "start")
		dir := rapid.SampledFrom([]Direction{Increasing, Decreasing}).Draw(t, "dir")
		n := rapid.IntRange(0, 50).Draw(t, "n")

		in := NewIntegrator(start, dir)
		var sum float64
		for i := 0; i < n; i++ {
			speed := rapid.Float64Range(0, 90).Draw(t, "speed")
			elapsed := rapid.Float64Range(0, 10).Draw(t, "elapsed")
			in.Advance(speed, elapsed)
			sum += speed * elapsed
		}

		want := start + sum/1000
		if dir == Decreasing {
			want = start - sum/1000
		}
		if math.Abs(in.Position-want) > 1e-9*(1+math.Abs(want)) {
			t.Fatalf("position = %v, want %v", in.Position, want)
		}
	})
}

func TestAdvanceScenario(t *testing.T) {
	in := NewIntegrator(100.000, Increasing)
	got := in.Advance(20, 5)
	assert.InDelta(t, 100.100, got, 1e-9)

	down := NewIntegrator(100.000, Decreasing)
	assert.InDelta(t, 99.900, down.Advance(20, 5), 1e-9)
}

func TestAdvanceDegenerateInputs(t *testing.T) {
	cases := []struct {
		name           string
		speed, elapsed float64
	}{
		{"zero speed", 0, 5},
		{"zero elapsed", 20, 0},
		{"negative elapsed", 20, -3},
		{"negative speed", -4, 2},
		{"nan elapsed", 20, math.NaN()},
		{"inf speed", math.Inf(1), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := NewIntegrator(42.5, Increasing)
			assert.Equal(t, 42.5, in.Advance(tc.speed, tc.elapsed))
		})
	}
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, Increasing.Valid())
	assert.True(t, Decreasing.Valid())
	assert.False(t, Direction("sideways").Valid())
}
