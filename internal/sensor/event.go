// Package sensor reads the device's motion and position-fix streams and
// feeds them, one event at a time, to a session recorder.
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind names the stream an event came from.
type Kind string

const (
	KindMotion Kind = "motion"
	KindFix    Kind = "fix"
)

// ErrUnknownKind is returned for well-formed lines of an unsupported type.
var ErrUnknownKind = errors.New("unknown event type")

// Event is one decoded line of the sensor stream.
//
//	{"type":"motion","t":1700000000000,"x":0.12,"y":-1.3,"z":9.79}
//	{"type":"fix","t":1700000000100,"speed":22.4,"accuracy":4.5}
//
// Axis, speed and accuracy values may be null. A missing t is 0 and gets
// stamped by the loop clock.
type Event struct {
	Kind      Kind     `json:"type"`
	Timestamp int64    `json:"t"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Z         *float64 `json:"z,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// ParseLine decodes one JSON line.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, fmt.Errorf("empty line")
	}
	var ev Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	switch ev.Kind {
	case KindMotion, KindFix:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}
}

// Encode renders ev as a single JSON line without the trailing newline.
func (ev Event) Encode() (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
