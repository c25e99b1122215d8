package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackinspect/pkrec/internal/kinematics"
)

func f(v float64) *float64 { return &v }

func motion(ts int64, x, y, z float64) MotionEvent {
	return MotionEvent{Timestamp: ts, X: f(x), Y: f(y), Z: f(z)}
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func startRequest() StartRequest {
	return StartRequest{
		Track:         "LGV2",
		StartPosition: "100.000",
		Direction:     kinematics.Increasing,
		Thresholds:    kinematics.Thresholds{Alert: 1.0, Intervention: 2.0, Immediate: 3.0},
		Metadata:      Metadata{Operator: "op", Line: "KENITRA/TANGER"},
	}
}

func TestStartValidation(t *testing.T) {
	r := NewRecorder(nil)

	err := r.Start(StartRequest{StartPosition: "12.5"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"track"}, verr.Fields)
	assert.Equal(t, Idle, r.State())

	err = r.Start(StartRequest{Track: "LGV1", StartPosition: "abc"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"start position"}, verr.Fields)

	for _, pos := range []string{"NaN", "Inf", "-Infinity", "+inf"} {
		err = r.Start(StartRequest{Track: "LGV1", StartPosition: pos})
		require.ErrorAs(t, err, &verr, pos)
		assert.Equal(t, []string{"start position"}, verr.Fields, pos)
		assert.Equal(t, Idle, r.State(), pos)
	}

	err = r.Start(StartRequest{})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, Idle, r.State())
}

func TestParsePositionAcceptsComma(t *testing.T) {
	v, err := ParsePosition(" 175,100 ")
	require.NoError(t, err)
	assert.InDelta(t, 175.1, v, 1e-12)

	_, err = ParsePosition("")
	assert.Error(t, err)
	_, err = ParsePosition("nan")
	assert.Error(t, err)
}

func TestPositionScenario(t *testing.T) {
	cell := &SpeedCell{}
	r := NewRecorder(cell, WithClock(fixedClock))
	require.NoError(t, r.Start(startRequest()))

	cell.Set(20)
	first, ok := r.HandleMotion(motion(1000, 0, 0, 9.8))
	require.True(t, ok)
	assert.InDelta(t, 100.000, first.PositionOrZero(), 1e-12, "first event has zero elapsed")

	second, ok := r.HandleMotion(motion(6000, 0, 0, 9.8))
	require.True(t, ok)
	assert.InDelta(t, 100.100, second.PositionOrZero(), 1e-9)
	assert.InDelta(t, 100.100, r.Position(), 1e-9)
}

func TestPositionWaitsForSpeed(t *testing.T) {
	cell := &SpeedCell{}
	r := NewRecorder(cell)
	require.NoError(t, r.Start(startRequest()))

	r.HandleMotion(motion(0, 0, 0, 0))
	r.HandleMotion(motion(2000, 0, 0, 0))
	assert.Equal(t, 100.0, r.Position())

	cell.Set(10)
	r.HandleMotion(motion(3000, 0, 0, 0))
	assert.InDelta(t, 100.010, r.Position(), 1e-12)
}

func TestClockAnomalyDoesNotMove(t *testing.T) {
	cell := &SpeedCell{}
	cell.Set(30)
	r := NewRecorder(cell)
	require.NoError(t, r.Start(startRequest()))

	r.HandleMotion(motion(5000, 0, 0, 0))
	r.HandleMotion(motion(4000, 0, 0, 0))
	assert.Equal(t, 100.0, r.Position())
}

func TestDecreasingDirection(t *testing.T) {
	cell := &SpeedCell{}
	cell.Set(20)
	r := NewRecorder(cell)
	req := startRequest()
	req.Direction = kinematics.Decreasing
	require.NoError(t, r.Start(req))

	r.HandleMotion(motion(0, 0, 0, 0))
	r.HandleMotion(motion(5000, 0, 0, 0))
	assert.InDelta(t, 99.9, r.Position(), 1e-9)
}

func TestMissingAxisDropped(t *testing.T) {
	r := NewRecorder(nil)
	require.NoError(t, r.Start(startRequest()))

	_, ok := r.HandleMotion(MotionEvent{Timestamp: 1, X: f(1), Y: nil, Z: f(1)})
	assert.False(t, ok)
	_, ok = r.HandleMotion(MotionEvent{Timestamp: 2})
	assert.False(t, ok)

	samples, stats := r.Snapshot()
	assert.Empty(t, samples)
	assert.Zero(t, stats.Samples())
}

func TestIdleTransitionsAreIgnored(t *testing.T) {
	r := NewRecorder(nil)

	rec, err := r.Stop()
	assert.NoError(t, err)
	assert.Nil(t, rec)

	_, ok := r.HandleMotion(motion(1, 1, 1, 1))
	assert.False(t, ok)

	require.NoError(t, r.Start(startRequest()))
	r.HandleMotion(motion(1, 0, 1.5, 0))

	// A second start must not reset the running session.
	again := startRequest()
	again.Track = "LGV1"
	require.NoError(t, r.Start(again))
	samples, stats := r.Snapshot()
	assert.Len(t, samples, 1)
	assert.Equal(t, "LGV2", stats.Track)
}

func TestStopBuildsRecord(t *testing.T) {
	cell := &SpeedCell{}
	var stored []SessionRecord
	r := NewRecorder(cell, WithClock(fixedClock), WithSink(func(rec SessionRecord) error {
		stored = append(stored, rec)
		return nil
	}))
	require.NoError(t, r.Start(startRequest()))
	cell.Set(15)

	for i, y := range []float64{0.5, 1.0, 2.5, 3.0, -3.5} {
		_, ok := r.HandleMotion(motion(int64(1000+i*500), 0.1, y, 9.7))
		require.True(t, ok)
	}

	rec, err := r.Stop()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, Idle, r.State())
	assert.Equal(t, "sess_1773480413000", rec.ID)
	assert.Equal(t, "14/03/2026 09:26:53", rec.Date)
	assert.Len(t, rec.Samples, 5)
	assert.Equal(t, 1, rec.Stats.CountAlert)
	assert.Equal(t, 1, rec.Stats.CountIntervention)
	assert.Equal(t, 2, rec.Stats.CountImmediate)
	assert.InDelta(t, 2.0, rec.Stats.Duration, 1e-12)
	assert.Equal(t, 100.0, rec.Stats.StartPosition)
	assert.Equal(t, "op", rec.Stats.Operator)
	assert.Nil(t, rec.Analysis)
	require.Len(t, stored, 1)
	assert.Equal(t, rec.ID, stored[0].ID)

	assert.Zero(t, cell.Get(), "speed resets when recording stops")
	samples, _ := r.Snapshot()
	assert.Empty(t, samples)
}

func TestStopEmptySession(t *testing.T) {
	r := NewRecorder(nil, WithClock(fixedClock))
	require.NoError(t, r.Start(startRequest()))
	rec, err := r.Stop()
	require.NoError(t, err)
	assert.NotNil(t, rec.Samples)
	assert.Empty(t, rec.Samples)
}

func TestStopReturnsRecordWhenSinkFails(t *testing.T) {
	r := NewRecorder(nil, WithClock(fixedClock), WithSink(func(SessionRecord) error {
		return errors.New("disk full")
	}))
	require.NoError(t, r.Start(startRequest()))
	r.HandleMotion(motion(1, 0, 0, 1))

	rec, err := r.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, rec)
	assert.Len(t, rec.Samples, 1)
}

func TestAnalysisLandsOnLiveSession(t *testing.T) {
	r := NewRecorder(nil, WithClock(fixedClock))

	r.AttachAnalysis(Analysis{ActivityType: "ignored"})
	require.NoError(t, r.Start(startRequest()))
	r.AttachAnalysis(Analysis{ActivityType: "inspection", ComplianceLevel: Monitor, Observations: []string{"a"}})

	rec, err := r.Stop()
	require.NoError(t, err)
	require.NotNil(t, rec.Analysis)
	assert.Equal(t, "inspection", rec.Analysis.ActivityType)

	// The next session starts without a pending analysis.
	require.NoError(t, r.Start(startRequest()))
	rec, err = r.Stop()
	require.NoError(t, err)
	assert.Nil(t, rec.Analysis)
}

func TestSnapshotIsIndependent(t *testing.T) {
	cell := &SpeedCell{}
	cell.Set(10)
	r := NewRecorder(cell)
	require.NoError(t, r.Start(startRequest()))
	r.HandleMotion(motion(0, 0, 0, 0))
	r.HandleMotion(motion(1000, 0, 0, 0))

	samples, _ := r.Snapshot()
	*samples[1].Position = -1
	samples[0].X = 99

	again, _ := r.Snapshot()
	assert.InDelta(t, 100.01, again[1].PositionOrZero(), 1e-12)
	assert.Zero(t, again[0].X)
}

func TestSpeedCell(t *testing.T) {
	var c SpeedCell
	assert.Zero(t, c.Get())
	c.Set(12.5)
	assert.Equal(t, 12.5, c.Get())
	c.Set(-3)
	assert.Zero(t, c.Get())
	c.Set(7)
	c.Reset()
	assert.Zero(t, c.Get())
}
