package volume

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Unmuted(t *testing.T) {
	state, err := Parse("Mono: Playback 50 [75%] [on]", State{})
	require.NoError(t, err)
	assert.Equal(t, State{Volume: 75, Muted: false}, state)
}

func TestParse_Muted(t *testing.T) {
	prev := State{Volume: 42}

	state, err := Parse("Mono: Playback 0 [0%] [off]", prev)
	require.NoError(t, err)
	assert.True(t, state.Muted)
	assert.Equal(t, 42, state.Volume, "muted keeps the previous volume")
}

func TestParse_UnmuteAfterMute(t *testing.T) {
	state, err := Parse("Mono: Playback 40 [60%] [off]", State{Volume: 10})
	require.NoError(t, err)
	require.True(t, state.Muted)

	state, err = Parse("Mono: Playback 40 [60%] [on]", state)
	require.NoError(t, err)
	assert.Equal(t, State{Volume: 60, Muted: false}, state)
}

func TestParse_Table(t *testing.T) {
	tests := []struct {
		name string
		line string
		want State
	}{
		{"zero unmuted", "Mono: Playback 0 [0%] [on]", State{Volume: 0}},
		{"full", "Mono: Playback 87 [100%] [on]", State{Volume: 100}},
		{"digits before bracket ignored", "Mono: Playback 31337 [5%] [on]", State{Volume: 5}},
		{"leading zeros", "Mono: [007%] [on]", State{Volume: 7}},
		// Every digit after the first bracket is concatenated.
		{"dB field concatenated", "Front Left: Playback 65536 [100%] [0dB] [on]", State{Volume: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line, State{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_MissingBracket(t *testing.T) {
	prev := State{Volume: 33}

	state, err := Parse("no brackets here", prev)
	require.Error(t, err)
	assert.Equal(t, prev, state)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrKindMalformedOutput, pe.Kind)
	assert.Equal(t, "couldn't parse mixer output", err.Error())
}

func TestParse_AmbiguousMuteState(t *testing.T) {
	_, err := Parse("Mono: Playback 50 [50%]", State{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousMuteState)
	assert.NotErrorIs(t, err, ErrMalformedOutput)
}

func TestParse_OnBeforeBracketIgnored(t *testing.T) {
	// "on" in "Mono" precedes the bracket and must not count.
	_, err := Parse("Mono: Playback [50%]", State{})
	assert.ErrorIs(t, err, ErrAmbiguousMuteState)
}

func TestParse_InvalidPercentage(t *testing.T) {
	t.Run("no digits", func(t *testing.T) {
		_, err := Parse("Mono: [on]", State{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPercentage)
		assert.ErrorIs(t, err, strconv.ErrSyntax)

		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "", pe.Digits)
		assert.Contains(t, err.Error(), "couldn't parse volume from ``")
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := Parse("Mono: [99999999999%] [on]", State{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPercentage)
		assert.ErrorIs(t, err, strconv.ErrRange)
		assert.Contains(t, err.Error(), "99999999999")
	})
}

func TestParse_Idempotent(t *testing.T) {
	lines := []string{
		"Mono: Playback 50 [75%] [on]",
		"Mono: Playback 0 [0%] [off]",
		"garbage",
	}
	start := State{Volume: 20, Muted: true}

	for _, line := range lines {
		first, err1 := Parse(line, start)
		second, err2 := Parse(line, start)
		assert.Equal(t, first, second, line)
		assert.Equal(t, err1, err2, line)
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "malformed_output", ErrKindMalformedOutput.String())
	assert.Equal(t, "ambiguous_mute_state", ErrKindAmbiguousMuteState.String())
	assert.Equal(t, "invalid_percentage", ErrKindInvalidPercentage.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}
