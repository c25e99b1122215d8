package sensor

import (
	"context"
	"errors"
	"time"

	"github.com/trackinspect/pkrec/internal/eventlog"
	"github.com/trackinspect/pkrec/internal/session"
)

// Counters tally what the loop saw during one run.
type Counters struct {
	Lines     int
	Motion    int
	Fixes     int
	Dropped   int // motion events with a missing axis
	Malformed int // undecodable or unknown lines
}

// Loop is the single goroutine that owns a Recorder while it records. Fix
// events write the speed cell and motion events read it, always in arrival
// order, so the two never interleave mid-update.
type Loop struct {
	recorder *session.Recorder
	speed    *session.SpeedCell
	clock    func() time.Time
	events   *eventlog.Logger

	counters     Counters
	lastAccuracy *float64
}

// NewLoop returns a loop driving rec. speed must be the cell rec reads.
func NewLoop(rec *session.Recorder, speed *session.SpeedCell, events *eventlog.Logger) *Loop {
	return &Loop{recorder: rec, speed: speed, clock: time.Now, events: events}
}

// SetClock overrides the clock used for events without a timestamp.
func (l *Loop) SetClock(clock func() time.Time) { l.clock = clock }

// Counters returns the tallies so far.
func (l *Loop) Counters() Counters { return l.counters }

// Accuracy returns the last reported GPS accuracy in metres.
func (l *Loop) Accuracy() (float64, bool) {
	if l.lastAccuracy == nil {
		return 0, false
	}
	return *l.lastAccuracy, true
}

// Dispatch handles one raw line.
func (l *Loop) Dispatch(line string) {
	l.counters.Lines++
	ev, err := ParseLine(line)
	if err != nil {
		l.counters.Malformed++
		return
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = l.clock().UnixMilli()
	}

	switch ev.Kind {
	case KindFix:
		l.counters.Fixes++
		speed := 0.0
		if ev.Speed != nil {
			speed = *ev.Speed
		}
		l.speed.Set(speed)
		if ev.Accuracy != nil {
			acc := *ev.Accuracy
			l.lastAccuracy = &acc
		}

	case KindMotion:
		l.counters.Motion++
		if _, ok := l.recorder.HandleMotion(session.MotionEvent{
			Timestamp: ev.Timestamp,
			X:         ev.X,
			Y:         ev.Y,
			Z:         ev.Z,
		}); !ok {
			l.counters.Dropped++
		}
	}
}

// Run subscribes to src and dispatches lines until the source ends, fails,
// or ctx is done. On every exit path it releases the subscription and stops
// the recorder, returning the finished record. A source failure is returned
// together with the record.
func (l *Loop) Run(ctx context.Context, src LineSource) (*session.SessionRecord, error) {
	id, lines := src.Subscribe()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- src.Monitor(runCtx) }()

	var srcErr error
	monitoring := true
loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case err := <-done:
			monitoring = false
			if err != nil && !errors.Is(err, context.Canceled) {
				srcErr = err
			}
			break loop

		case line, ok := <-lines:
			if !ok {
				break loop
			}
			l.Dispatch(line)
		}
	}

	cancel()
	if monitoring {
		<-done
	}
	src.Unsubscribe(id)

	if srcErr != nil {
		l.events.Append(eventlog.Event{Event: eventlog.EventSourceFailed, Error: srcErr.Error()})
	}
	if l.counters.Dropped > 0 || l.counters.Malformed > 0 {
		l.events.Append(eventlog.Event{
			Event:   eventlog.EventSamplesDropped,
			Dropped: l.counters.Dropped + l.counters.Malformed,
		})
	}

	rec, err := l.recorder.Stop()
	return rec, errors.Join(srcErr, err)
}
