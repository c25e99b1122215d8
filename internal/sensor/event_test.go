package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineMotion(t *testing.T) {
	ev, err := ParseLine(`{"type":"motion","t":1500,"x":0.1,"y":-1.25,"z":9.8}`)
	require.NoError(t, err)
	assert.Equal(t, KindMotion, ev.Kind)
	assert.Equal(t, int64(1500), ev.Timestamp)
	require.NotNil(t, ev.Y)
	assert.Equal(t, -1.25, *ev.Y)
}

func TestParseLineNullAxis(t *testing.T) {
	ev, err := ParseLine(`{"type":"motion","t":1,"x":null,"y":1,"z":2}`)
	require.NoError(t, err)
	assert.Nil(t, ev.X)
	assert.NotNil(t, ev.Z)
}

func TestParseLineFix(t *testing.T) {
	ev, err := ParseLine(`  {"type":"fix","speed":null,"accuracy":3.5}  `)
	require.NoError(t, err)
	assert.Equal(t, KindFix, ev.Kind)
	assert.Nil(t, ev.Speed)
	assert.Zero(t, ev.Timestamp)
	require.NotNil(t, ev.Accuracy)
}

func TestParseLineErrors(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", "   "},
		{"not json", "M,1,2,3"},
		{"truncated", `{"type":"motion"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLine(tc.line)
			assert.Error(t, err)
		})
	}

	_, err := ParseLine(`{"type":"orientation","alpha":1}`)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestEventEncodeRoundTrip(t *testing.T) {
	x, y, z := 0.5, -0.25, 9.75
	line, err := Event{Kind: KindMotion, Timestamp: 42, X: &x, Y: &y, Z: &z}.Encode()
	require.NoError(t, err)

	ev, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ev.Timestamp)
	assert.Equal(t, 9.75, *ev.Z)
}
