package sensor

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/session"
)

func newRecording(t *testing.T) (*session.Recorder, *session.SpeedCell) {
	t.Helper()
	cell := &session.SpeedCell{}
	rec := session.NewRecorder(cell, session.WithClock(func() time.Time {
		return time.UnixMilli(1_700_000_000_000)
	}))
	require.NoError(t, rec.Start(session.StartRequest{
		Track:         "LGV2",
		StartPosition: "100.000",
		Direction:     kinematics.Increasing,
		Thresholds:    kinematics.Thresholds{Alert: 1, Intervention: 2, Immediate: 3},
	}))
	return rec, cell
}

const capture = `{"type":"fix","t":900,"speed":20,"accuracy":4}
{"type":"motion","t":1000,"x":0.1,"y":0.5,"z":9.8}
{"type":"motion","t":6000,"x":0.1,"y":2.5,"z":9.8}
{"type":"motion","t":6100,"x":null,"y":2.5,"z":9.8}
garbage
{"type":"orientation","alpha":3}
{"type":"motion","t":6500,"x":0.2,"y":-3.5,"z":9.7}
`

func TestLoopRunToEndOfInput(t *testing.T) {
	rec, cell := newRecording(t)
	loop := NewLoop(rec, cell, nil)
	mux := NewMux(io.NopCloser(strings.NewReader(capture)))

	record, err := loop.Run(context.Background(), mux)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, session.Idle, rec.State())
	require.Len(t, record.Samples, 3)
	assert.InDelta(t, 100.100, record.Samples[1].PositionOrZero(), 1e-9)
	assert.InDelta(t, 100.110, record.Samples[2].PositionOrZero(), 1e-9)
	assert.Equal(t, 1, record.Stats.CountIntervention)
	assert.Equal(t, 1, record.Stats.CountImmediate)
	assert.InDelta(t, 5.5, record.Stats.Duration, 1e-12)

	c := loop.Counters()
	assert.Equal(t, 7, c.Lines)
	assert.Equal(t, 4, c.Motion)
	assert.Equal(t, 1, c.Fixes)
	assert.Equal(t, 1, c.Dropped)
	assert.Equal(t, 2, c.Malformed)
	acc, ok := loop.Accuracy()
	assert.True(t, ok)
	assert.Equal(t, 4.0, acc)
	assert.Zero(t, cell.Get(), "speed resets after stop")
}

func TestLoopStampsMissingTimestamps(t *testing.T) {
	rec, cell := newRecording(t)
	loop := NewLoop(rec, cell, nil)
	now := time.UnixMilli(10_000)
	loop.SetClock(func() time.Time { return now })

	loop.Dispatch(`{"type":"fix","speed":10}`)
	loop.Dispatch(`{"type":"motion","x":0,"y":0,"z":0}`)
	now = now.Add(2 * time.Second)
	loop.Dispatch(`{"type":"motion","x":0,"y":0,"z":0}`)

	samples, stats := rec.Snapshot()
	require.Len(t, samples, 2)
	assert.Equal(t, int64(12_000), samples[1].Timestamp)
	assert.InDelta(t, 100.02, rec.Position(), 1e-12)
	assert.InDelta(t, 2.0, stats.Duration, 1e-12)
}

func TestLoopNullSpeedIsZero(t *testing.T) {
	rec, cell := newRecording(t)
	loop := NewLoop(rec, cell, nil)

	loop.Dispatch(`{"type":"fix","t":1,"speed":30}`)
	loop.Dispatch(`{"type":"fix","t":2,"speed":null}`)
	assert.Zero(t, cell.Get())
}

func TestLoopStopsOnCancel(t *testing.T) {
	rec, cell := newRecording(t)
	loop := NewLoop(rec, cell, nil)

	r, w := io.Pipe()
	mux := NewMux(r)
	t.Cleanup(func() { mux.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		record *session.SessionRecord
		err    error
	}
	out := make(chan result, 1)
	go func() {
		record, err := loop.Run(ctx, mux)
		out <- result{record, err}
	}()

	_, err := io.WriteString(w, `{"type":"motion","t":1,"x":0,"y":1.5,"z":9.8}`+"\n")
	require.NoError(t, err)
	cancel()

	select {
	case res := <-out:
		require.NoError(t, res.err)
		require.NotNil(t, res.record)
		assert.LessOrEqual(t, len(res.record.Samples), 1)
		assert.Equal(t, session.Idle, rec.State())
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	w.Close()
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (failingReader) Close() error             { return nil }

func TestLoopSourceFailureKeepsRecord(t *testing.T) {
	rec, cell := newRecording(t)
	loop := NewLoop(rec, cell, nil)

	record, err := loop.Run(context.Background(), NewMux[failingReader](failingReader{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.NotNil(t, record)
	assert.Equal(t, session.Idle, rec.State())
}
