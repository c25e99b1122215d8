// Package session records a single inspection run: it turns motion events
// into position-tagged samples, keeps the live statistics, and produces a
// SessionRecord when the run stops.
package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/trackinspect/pkrec/internal/eventlog"
	"github.com/trackinspect/pkrec/internal/kinematics"
)

// State is the recorder's lifecycle state.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// StartRequest is what the operator supplies to begin a run. StartPosition is
// kept as text so the recorder owns the parse rule.
type StartRequest struct {
	Track         string
	StartPosition string
	Direction     kinematics.Direction
	Thresholds    kinematics.Thresholds
	Metadata      Metadata
}

// MotionEvent is one raw accelerometer reading. A nil axis means the device
// did not report it.
type MotionEvent struct {
	Timestamp int64 // milliseconds
	X, Y, Z   *float64
}

// Sink receives a finished record when the recorder stops.
type Sink func(SessionRecord) error

// Recorder is not safe for concurrent use; a single event loop owns it.
type Recorder struct {
	state    State
	cfg      SessionConfig
	pos      *kinematics.Integrator
	stats    kinematics.Aggregate
	samples  []Sample
	lastTS   int64
	hasLast  bool
	analysis *Analysis

	speed  *SpeedCell
	sink   Sink
	clock  func() time.Time
	events *eventlog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSink sets where finished records go, usually history.Store.Append.
func WithSink(s Sink) Option { return func(r *Recorder) { r.sink = s } }

// WithClock overrides the clock used for record ids and dates.
func WithClock(clock func() time.Time) Option { return func(r *Recorder) { r.clock = clock } }

// WithEventLog attaches a structured event log.
func WithEventLog(l *eventlog.Logger) Option { return func(r *Recorder) { r.events = l } }

// NewRecorder returns an idle recorder reading speed from cell.
func NewRecorder(cell *SpeedCell, opts ...Option) *Recorder {
	if cell == nil {
		cell = &SpeedCell{}
	}
	r := &Recorder{speed: cell, clock: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Recorder) State() State { return r.state }

// ParsePosition parses a PK typed by an operator. Both "175.100" and
// "175,100" are accepted; NaN and infinities are not.
func ParsePosition(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty position")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("position %q is not a finite number", s)
	}
	return v, nil
}

// Start moves Idle -> Recording. Starting while already recording is ignored.
func (r *Recorder) Start(req StartRequest) error {
	if r.state == Recording {
		return nil
	}

	var invalid []string
	track := strings.TrimSpace(req.Track)
	if track == "" {
		invalid = append(invalid, "track")
	}
	start, err := ParsePosition(req.StartPosition)
	if err != nil {
		invalid = append(invalid, "start position")
	}
	if len(invalid) > 0 {
		return &ValidationError{Fields: invalid}
	}

	dir := req.Direction
	if !dir.Valid() {
		dir = kinematics.Increasing
	}

	r.cfg = SessionConfig{
		StartPosition: start,
		Direction:     dir,
		Track:         track,
		Thresholds:    req.Thresholds,
		Metadata:      req.Metadata,
	}
	r.pos = kinematics.NewIntegrator(start, dir)
	r.stats = kinematics.Aggregate{}
	r.samples = nil
	r.lastTS = 0
	r.hasLast = false
	r.analysis = nil
	r.state = Recording

	r.events.Append(eventlog.Event{
		Event:    eventlog.EventSessionStarted,
		Track:    track,
		Position: start,
	})
	return nil
}

// HandleMotion turns a motion event into a sample. It returns false when the
// recorder is idle or the event is missing an axis.
func (r *Recorder) HandleMotion(ev MotionEvent) (Sample, bool) {
	if r.state != Recording || ev.X == nil || ev.Y == nil || ev.Z == nil {
		return Sample{}, false
	}

	var elapsed float64
	if r.hasLast {
		elapsed = float64(ev.Timestamp-r.lastTS) / 1000
	}
	r.lastTS = ev.Timestamp
	r.hasLast = true

	pk := r.pos.Advance(r.speed.Get(), elapsed)

	x, y, z := *ev.X, *ev.Y, *ev.Z
	s := Sample{
		Timestamp: ev.Timestamp,
		X:         x,
		Y:         y,
		Z:         z,
		Magnitude: kinematics.Magnitude(x, y, z),
		Position:  &pk,
	}
	r.stats.Update(kinematics.Reading{
		Timestamp: s.Timestamp,
		X:         x,
		Y:         y,
		Z:         z,
		Magnitude: s.Magnitude,
	}, r.cfg.Thresholds)
	r.samples = append(r.samples, s)
	return s, true
}

// Position returns the current PK, or the start position when idle.
func (r *Recorder) Position() float64 {
	if r.pos == nil {
		return r.cfg.StartPosition
	}
	return r.pos.Position
}

// Snapshot copies the live buffer and stats for asynchronous readers.
func (r *Recorder) Snapshot() ([]Sample, SessionStats) {
	rec := SessionRecord{Samples: r.samples}.Clone()
	return rec.Samples, SessionStats{SessionConfig: r.cfg, Aggregate: r.stats}
}

// AttachAnalysis stores an analysis result on the in-progress session. It is
// carried into the record at stop. Ignored when idle.
func (r *Recorder) AttachAnalysis(a Analysis) {
	if r.state != Recording {
		return
	}
	c := a.Clone()
	r.analysis = &c
}

// Stop moves Recording -> Idle and returns the finished record. Stopping
// while idle returns nil, nil. The record is returned even when the sink
// fails so the caller still holds the data.
func (r *Recorder) Stop() (*SessionRecord, error) {
	if r.state != Recording {
		return nil, nil
	}
	r.state = Idle

	now := r.clock()
	rec := &SessionRecord{
		ID:       fmt.Sprintf("sess_%d", now.UnixMilli()),
		Date:     now.Format("02/01/2006 15:04:05"),
		Stats:    SessionStats{SessionConfig: r.cfg, Aggregate: r.stats},
		Samples:  r.samples,
		Analysis: r.analysis,
	}
	if rec.Samples == nil {
		rec.Samples = []Sample{}
	}

	r.samples = nil
	r.analysis = nil
	r.hasLast = false
	r.speed.Reset()

	r.events.Append(eventlog.Event{
		Event:    eventlog.EventSessionStopped,
		Session:  rec.ID,
		Track:    rec.Stats.Track,
		Position: r.pos.Position,
		Samples:  len(rec.Samples),
	})

	if r.sink != nil {
		if err := r.sink(*rec); err != nil {
			return rec, fmt.Errorf("store session %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}
