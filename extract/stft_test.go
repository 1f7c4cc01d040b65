package extract

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
)

// sineWave generates a mono sine tone at the given frequency.
func sineWave(freq float64, sampleRate int, seconds float64) []float64 {
	n := int(seconds * float64(sampleRate))
	pcm := make([]float64, n)
	for i := range pcm {
		pcm[i] = math.Sin(2.0 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return pcm
}

func TestExtractPureTone(t *testing.T) {
	se := NewSTFTExtractor()
	sampleRate := 22050

	// A4 = 440 Hz, pitch class 9.
	pcm := sineWave(440.0, sampleRate, 2.0)

	features, err := se.Extract(pcm, sampleRate)
	require.NoError(t, err)
	require.NotNil(t, features)

	m, ok := features.Variants[VariantSTFT]
	require.True(t, ok)
	require.True(t, m.Valid())

	mean := m.MeanProfile()
	best := 0
	for pc := 1; pc < chroma.NumPitchClasses; pc++ {
		if mean[pc] > mean[best] {
			best = pc
		}
	}
	assert.Equal(t, 9, best, "440 Hz should land on pitch class A")
	assert.Equal(t, "A", chroma.PitchClassName(best))

	assert.Zero(t, features.Tuning)
	require.NotNil(t, features.Spectral)
	assert.Greater(t, features.Spectral.CentroidMean, 0.0)
	assert.Greater(t, features.Spectral.RMSEnergyMean, 0.0)
}

func TestExtractFramesNormalized(t *testing.T) {
	se := NewSTFTExtractor()
	sampleRate := 22050

	features, err := se.Extract(sineWave(261.6256, sampleRate, 1.0), sampleRate)
	require.NoError(t, err)

	m := features.Variants[VariantSTFT]
	for frame := 0; frame < m.NumFrames(); frame++ {
		peak := 0.0
		for pc := 0; pc < chroma.NumPitchClasses; pc++ {
			if m[pc][frame] > peak {
				peak = m[pc][frame]
			}
		}
		assert.InDelta(t, 1.0, peak, 1e-9, "frame %d should be peak normalized", frame)
	}
}

func TestExtractShortInput(t *testing.T) {
	se := NewSTFTExtractor()

	_, err := se.Extract(make([]float64, 100), 22050)
	require.Error(t, err)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "stft", extErr.Backend)
}

func TestExtractInvalidSampleRate(t *testing.T) {
	se := NewSTFTExtractor()

	_, err := se.Extract(make([]float64, 4096), 0)
	require.Error(t, err)

	var extErr *ExtractionError
	assert.True(t, errors.As(err, &extErr))
}

func TestExtractSilence(t *testing.T) {
	se := NewSTFTExtractor()

	features, err := se.Extract(make([]float64, 22050), 22050)
	require.NoError(t, err)

	assert.True(t, features.Variants[VariantSTFT].Valid())
	assert.Zero(t, features.Tempo)
	assert.Empty(t, features.BeatFrames)
}

func TestPickBeats(t *testing.T) {
	flux := make([]float64, 40)
	for _, peak := range []int{5, 15, 25, 35} {
		flux[peak] = 10.0
	}

	beats := pickBeats(flux)
	assert.Equal(t, []int{5, 15, 25, 35}, beats)

	assert.Empty(t, pickBeats([]float64{1.0, 2.0}))
}

func TestTempoFromBeats(t *testing.T) {
	se := NewSTFTExtractor()
	sampleRate := 22050

	// Beats every 20 frames of hop 512: 20*512/22050 s per beat.
	beats := []int{0, 20, 40, 60, 80}
	expected := 60.0 / (20.0 * 512.0 / float64(sampleRate))

	assert.InDelta(t, expected, se.tempoFromBeats(beats, sampleRate), 1e-9)
	assert.Zero(t, se.tempoFromBeats([]int{10}, sampleRate))
	assert.Zero(t, se.tempoFromBeats(nil, sampleRate))
}

func TestNullExtractors(t *testing.T) {
	features, err := NullChromaExtractor{}.Extract(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, features.Variants)
	assert.Empty(t, features.BeatFrames)
	assert.Zero(t, features.Tempo)

	profile := NullPitchProfileExtractor{}.ExtractProfile("anything.wav")
	require.NotNil(t, profile)
	assert.Empty(t, profile.Key)
	assert.Zero(t, profile.Tempo)
	assert.Zero(t, profile.HPCP.NumFrames())
}
