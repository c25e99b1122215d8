package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/trackinspect/pkrec/internal/session"
)

// memPort is an in-memory Port that records every save.
type memPort struct {
	stored  []session.SessionRecord
	saves   int
	loadErr error
	saveErr error
}

func (m *memPort) Load() ([]session.SessionRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.stored, nil
}

func (m *memPort) Save(records []session.SessionRecord) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored = append([]session.SessionRecord(nil), records...)
	return nil
}

func record(id string) session.SessionRecord {
	pk := 175.1
	return session.SessionRecord{
		ID:      id,
		Date:    "01/02/2026 10:00:00",
		Samples: []session.Sample{{Timestamp: 1, Y: 0.4, Position: &pk}},
	}
}

func ids(records []session.SessionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestAppendEvictsOldest(t *testing.T) {
	port := &memPort{}
	s := NewStore(port, nil)
	s.Load()

	for i := 1; i <= 11; i++ {
		require.NoError(t, s.Append(record(fmt.Sprintf("S%d", i))))
	}

	want := []string{"S11", "S10", "S9", "S8", "S7", "S6", "S5", "S4", "S3", "S2"}
	assert.Equal(t, want, ids(s.Records()))
	assert.Equal(t, want, ids(port.stored))
	assert.Equal(t, 11, port.saves)
}

// Feature: pkrec, Property 5: history never exceeds the cap and keeps the newest
func TestAppendCapProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		s := NewStore(&memPort{}, nil)
		for i := 0; i < n; i++ {
			if err := s.Append(record(fmt.Sprintf("S%d", i))); err != nil {
				t.Fatalf("Append: %v", err)
			}
			if s.Len() > MaxRecords {
				t.Fatalf("history length %d exceeds %d", s.Len(), MaxRecords)
			}
		}
		got := ids(s.Records())
		for i, id := range got {
			if want := fmt.Sprintf("S%d", n-1-i); id != want {
				t.Fatalf("position %d = %s, want %s", i, id, want)
			}
		}
	})
}

func TestAppendReplacesSameID(t *testing.T) {
	s := NewStore(&memPort{}, nil)
	require.NoError(t, s.Append(record("a")))
	require.NoError(t, s.Append(record("b")))
	require.NoError(t, s.Append(record("a")))
	assert.Equal(t, []string{"a", "b"}, ids(s.Records()))
}

func TestAttachAnalysis(t *testing.T) {
	port := &memPort{}
	s := NewStore(port, nil)
	require.NoError(t, s.Append(record("a")))
	require.NoError(t, s.Append(record("b")))
	before, err := s.Get("a")
	require.NoError(t, err)

	ok, err := s.AttachAnalysis("a", session.Analysis{ActivityType: "run", IntensityScore: 40, ComplianceLevel: session.Monitor})
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := s.Get("a")
	require.NoError(t, err)
	require.NotNil(t, after.Analysis)
	assert.Equal(t, session.Monitor, after.Analysis.ComplianceLevel)
	after.Analysis = nil
	assert.Equal(t, before, after, "only the analysis field changes")
	require.NotNil(t, port.stored[1].Analysis)

	saves := port.saves
	ok, err = s.AttachAnalysis("missing", session.Analysis{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, saves, port.saves)
}

func TestSelectionReflectsAttach(t *testing.T) {
	s := NewStore(&memPort{}, nil)
	require.NoError(t, s.Append(record("a")))
	require.NoError(t, s.Select("a"))

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Nil(t, sel.Analysis)

	_, err := s.AttachAnalysis("a", session.Analysis{ActivityType: "late"})
	require.NoError(t, err)
	sel, ok = s.Selected()
	require.True(t, ok)
	require.NotNil(t, sel.Analysis)
	assert.Equal(t, "late", sel.Analysis.ActivityType)

	// Mutating the view does not reach the store.
	sel.Samples[0].Y = 42
	again, _ := s.Selected()
	assert.Equal(t, 0.4, again.Samples[0].Y)
}

func TestRemove(t *testing.T) {
	port := &memPort{}
	s := NewStore(port, nil)
	require.NoError(t, s.Append(record("a")))
	require.NoError(t, s.Append(record("b")))
	require.NoError(t, s.Select("a"))

	require.NoError(t, s.Remove("b"))
	_, ok := s.Selected()
	assert.True(t, ok, "removing another record keeps the selection")

	require.NoError(t, s.Remove("a"))
	_, ok = s.Selected()
	assert.False(t, ok)
	assert.Empty(t, port.stored)

	err := s.Remove("a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Select("nope"), ErrNotFound)
}

func TestLoadFailsSoft(t *testing.T) {
	s := NewStore(&memPort{loadErr: errors.New("corrupt")}, nil)
	s.Load()
	assert.Zero(t, s.Len())

	require.NoError(t, s.Append(record("a")))
	assert.Equal(t, 1, s.Len())
}

func TestLoadTruncatesOversizedState(t *testing.T) {
	var stored []session.SessionRecord
	for i := 0; i < 14; i++ {
		stored = append(stored, record(fmt.Sprintf("S%d", i)))
	}
	s := NewStore(&memPort{stored: stored}, nil)
	s.Load()
	assert.Equal(t, MaxRecords, s.Len())
	assert.Equal(t, "S0", s.Records()[0].ID)
}

func TestSaveErrorKeepsMemoryState(t *testing.T) {
	s := NewStore(&memPort{saveErr: errors.New("read-only")}, nil)
	err := s.Append(record("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist history")
	assert.Equal(t, 1, s.Len())
}
