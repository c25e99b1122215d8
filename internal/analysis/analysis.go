// Package analysis sends a reduced view of a finished session to an external
// analysis service and attaches the verdict to the stored record.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/trackinspect/pkrec/internal/eventlog"
	"github.com/trackinspect/pkrec/internal/history"
	"github.com/trackinspect/pkrec/internal/session"
)

const (
	// MinSamples is the smallest session worth analysing.
	MinSamples = 50
	// SampleStride keeps every SampleStride-th sample.
	SampleStride = 10
	// MaxRequestSamples caps how many reduced samples are sent.
	MaxRequestSamples = 200
)

// ErrTooFewSamples is returned for sessions shorter than MinSamples.
var ErrTooFewSamples = errors.New("not enough samples to analyse")

// Analyzer produces an Analysis for a session.
type Analyzer interface {
	Analyze(ctx context.Context, samples []session.Sample, stats session.SessionStats) (session.Analysis, error)
}

// Reduce keeps every SampleStride-th sample, then the last MaxRequestSamples
// of those.
func Reduce(samples []session.Sample) []session.Sample {
	out := make([]session.Sample, 0, len(samples)/SampleStride+1)
	for i := 0; i < len(samples); i += SampleStride {
		out = append(out, samples[i])
	}
	if len(out) > MaxRequestSamples {
		out = out[len(out)-MaxRequestSamples:]
	}
	return out
}

// Validate checks a response before it is attached to a record.
func Validate(a session.Analysis) error {
	if !a.ComplianceLevel.Valid() {
		return fmt.Errorf("unknown compliance level %q", a.ComplianceLevel)
	}
	if a.IntensityScore < 0 || a.IntensityScore > 100 {
		return fmt.Errorf("intensity score %.1f outside 0-100", a.IntensityScore)
	}
	return nil
}

// Attach analyses the stored record id and attaches the result. On any
// failure the record is left as it was and the failure is logged.
func Attach(ctx context.Context, an Analyzer, store *history.Store, id string, events *eventlog.Logger) (session.Analysis, error) {
	rec, err := store.Get(id)
	if err != nil {
		return session.Analysis{}, err
	}

	a, err := run(ctx, an, rec.Samples, rec.Stats)
	if err != nil {
		events.Append(eventlog.Event{Event: eventlog.EventAnalysisFailed, Session: id, Error: err.Error()})
		return session.Analysis{}, err
	}

	ok, err := store.AttachAnalysis(id, a)
	if err != nil {
		return a, err
	}
	if !ok {
		return a, fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	return a, nil
}

func run(ctx context.Context, an Analyzer, samples []session.Sample, stats session.SessionStats) (session.Analysis, error) {
	if len(samples) < MinSamples {
		return session.Analysis{}, fmt.Errorf("%w: have %d, need %d", ErrTooFewSamples, len(samples), MinSamples)
	}
	a, err := an.Analyze(ctx, samples, stats)
	if err != nil {
		return session.Analysis{}, fmt.Errorf("analyse session: %w", err)
	}
	if err := Validate(a); err != nil {
		return session.Analysis{}, fmt.Errorf("analyse session: %w", err)
	}
	return a, nil
}
