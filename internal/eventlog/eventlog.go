// Package eventlog appends structured JSON events to events.jsonl in the
// pkrec data directory.
package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event names.
const (
	EventSessionStarted    = "session_started"
	EventSessionStopped    = "session_stopped"
	EventSamplesDropped    = "samples_dropped"
	EventHistoryLoadFailed = "history_load_failed"
	EventHistorySaved      = "history_saved"
	EventSessionDeleted    = "session_deleted"
	EventAnalysisAttached  = "analysis_attached"
	EventAnalysisFailed    = "analysis_failed"
	EventReportExported    = "report_exported"
	EventSourceFailed      = "source_failed"
)

// Event is one line of the log.
type Event struct {
	Time     time.Time `json:"time"`
	Event    string    `json:"event"`
	Session  string    `json:"session,omitempty"`
	Track    string    `json:"track,omitempty"`
	Position float64   `json:"position,omitempty"`
	Samples  int       `json:"samples,omitempty"`
	Dropped  int       `json:"dropped,omitempty"`
	Records  int       `json:"records,omitempty"`
	Backend  string    `json:"backend,omitempty"`
	Format   string    `json:"format,omitempty"`
	Path     string    `json:"path,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Logger writes append-only JSONL events. A nil *Logger discards events.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New returns a Logger writing to events.jsonl inside dir, creating dir if
// needed. Existing content is kept.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &Logger{path: filepath.Join(dir, "events.jsonl")}, nil
}

// Path returns the log file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes ev as one JSON line. A zero Time is set to now (UTC).
func (l *Logger) Append(ev Event) error {
	if l == nil {
		return nil
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}
	return nil
}

// ReadAll parses every event in the log. A missing file yields no events.
func (l *Logger) ReadAll() ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return events, nil
}
