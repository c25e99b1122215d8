// Package history keeps the ten most recent completed sessions and writes
// the whole list back through a Port after every change.
package history

import (
	"errors"
	"fmt"

	"github.com/trackinspect/pkrec/internal/eventlog"
	"github.com/trackinspect/pkrec/internal/session"
)

// MaxRecords caps the history length; older records are evicted first.
const MaxRecords = 10

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("session not found")

// Port persists the full history, most recent first.
type Port interface {
	Load() ([]session.SessionRecord, error)
	Save(records []session.SessionRecord) error
}

// Store is the in-memory history plus its persistence port. It is not safe
// for concurrent use.
type Store struct {
	port     Port
	records  []session.SessionRecord
	selected string
	events   *eventlog.Logger
}

// NewStore returns an empty store. Call Load to read persisted state.
func NewStore(port Port, events *eventlog.Logger) *Store {
	return &Store{port: port, events: events}
}

// Load replaces the in-memory history with the persisted one. Unreadable
// state yields an empty history; the failure only goes to the event log.
func (s *Store) Load() {
	records, err := s.port.Load()
	if err != nil {
		s.events.Append(eventlog.Event{
			Event: eventlog.EventHistoryLoadFailed,
			Error: err.Error(),
		})
		records = nil
	}
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	s.records = records
	s.selected = ""
}

// Len returns the number of stored records.
func (s *Store) Len() int { return len(s.records) }

// Records returns copies of all records, most recent first.
func (s *Store) Records() []session.SessionRecord {
	out := make([]session.SessionRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (session.SessionRecord, error) {
	i := s.index(id)
	if i < 0 {
		return session.SessionRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[i].Clone(), nil
}

// Append prepends rec, evicts anything beyond MaxRecords and persists.
// A stored record with the same id is replaced.
func (s *Store) Append(rec session.SessionRecord) error {
	next := make([]session.SessionRecord, 0, MaxRecords+1)
	next = append(next, rec.Clone())
	for _, r := range s.records {
		if r.ID != rec.ID {
			next = append(next, r)
		}
	}
	if len(next) > MaxRecords {
		next = next[:MaxRecords]
	}
	s.records = next
	if s.selected != "" && s.index(s.selected) < 0 {
		s.selected = ""
	}
	return s.save()
}

// AttachAnalysis sets the analysis of the record with the given id, leaving
// every other field untouched. It reports whether a record matched; an
// unknown id changes nothing and writes nothing.
func (s *Store) AttachAnalysis(id string, a session.Analysis) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	c := a.Clone()
	s.records[i].Analysis = &c
	s.events.Append(eventlog.Event{Event: eventlog.EventAnalysisAttached, Session: id})
	return true, s.save()
}

// Remove deletes the record with the given id, clearing the selection if it
// pointed there.
func (s *Store) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.events.Append(eventlog.Event{Event: eventlog.EventSessionDeleted, Session: id})
	return s.save()
}

// Select marks the record with the given id as the one being browsed.
func (s *Store) Select(id string) error {
	if s.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.selected = id
	return nil
}

// ClearSelection drops the current selection.
func (s *Store) ClearSelection() { s.selected = "" }

// Selected returns a copy of the selected record. Because the selection is
// held by id, it reflects any analysis attached after selecting.
func (s *Store) Selected() (session.SessionRecord, bool) {
	i := s.index(s.selected)
	if s.selected == "" || i < 0 {
		return session.SessionRecord{}, false
	}
	return s.records[i].Clone(), true
}

func (s *Store) index(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) save() error {
	if err := s.port.Save(s.records); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	s.events.Append(eventlog.Event{Event: eventlog.EventHistorySaved, Records: len(s.records)})
	return nil
}
