package extract

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBPMPattern(t *testing.T) {
	tests := []struct {
		line string
		bpm  float64
		ok   bool
	}{
		{"128.5 bpm", 128.5, true},
		{"overall tempo: 97 bpm", 97, true},
		{"no tempo here", 0, false},
		{"bpm", 0, false},
	}

	for _, tt := range tests {
		m := bpmPattern.FindStringSubmatch(tt.line)
		if !tt.ok {
			assert.Nil(t, m, tt.line)
			continue
		}
		require.Len(t, m, 2, tt.line)
		v, err := strconv.ParseFloat(m[1], 64)
		require.NoError(t, err)
		assert.Equal(t, tt.bpm, v)
	}
}

func TestParseKeyOutput(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		key   string
		scale string
		ok    bool
	}{
		{name: "plain guess", out: "f# minor\n", key: "F#", scale: "minor", ok: true},
		{name: "flat key", out: "Eb Major\n", key: "Eb", scale: "major", ok: true},
		{name: "key only", out: "a\n", key: "A", scale: "", ok: true},
		{name: "guess after noise", out: "reading /music/a_song.wav\nc major\n", key: "C", scale: "major", ok: true},
		{name: "last guess wins", out: "d minor\ng major\n", key: "G", scale: "major", ok: true},
		{name: "path only", out: "/music/a_song.wav\n", ok: false},
		{name: "warning only", out: "aubio warning: source is mono\n", ok: false},
		{name: "empty output", out: "", ok: false},
	}

	for _, tt := range tests {
		key, scale, ok := parseKeyOutput(tt.out)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.key, key, tt.name)
		assert.Equal(t, tt.scale, scale, tt.name)
	}
}

func TestExtractProfileMissingBinary(t *testing.T) {
	ae := NewAubioExtractorWithParams(AubioExtractorParams{
		BinPath: "/nonexistent/aubio",
		Timeout: time.Second,
	})

	profile := ae.ExtractProfile("whatever.wav")

	require.NotNil(t, profile)
	assert.Empty(t, profile.Key)
	assert.Empty(t, profile.Scale)
	assert.Zero(t, profile.Tempo)
	assert.Zero(t, profile.TempoConfidence)
	assert.Zero(t, profile.HPCP.NumFrames())
}
