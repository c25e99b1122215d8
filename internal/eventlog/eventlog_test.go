package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReadAll(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Append(Event{Event: EventSessionStarted, Track: "LGV2", Position: 175.1}))
	require.NoError(t, l.Append(Event{Event: EventSessionStopped, Session: "sess_1", Samples: 12}))

	events, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventSessionStarted, events[0].Event)
	assert.False(t, events[0].Time.IsZero())
	assert.Equal(t, "sess_1", events[1].Session)
	assert.Equal(t, 12, events[1].Samples)
}

func TestReadAllMissingFile(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	events, err := l.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNilLoggerDiscards(t *testing.T) {
	var l *Logger
	assert.NoError(t, l.Append(Event{Event: EventSessionStarted}))
	assert.Equal(t, "", l.Path())
}
