package tonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
)

const (
	testSampleRate = 22050
	testHopSize    = 512
)

// blockMatrix builds a 12 x frames matrix where all columns in
// [start, end) carry a unit pulse at the given pitch class.
func blockMatrix(frames int, blocks []struct{ start, end, pc int }) chroma.Matrix {
	m := chroma.NewMatrix(frames)
	for _, b := range blocks {
		for f := b.start; f < b.end; f++ {
			m[b.pc][f] = 1.0
		}
	}
	return m
}

func TestAnalyzeOrthogonalBeats(t *testing.T) {
	pa := NewProgressionAnalyzer(testSampleRate, testHopSize)

	// Beat intervals [0,10), [10,20), [20,30) hold mutually orthogonal
	// unit-norm vectors.
	m := blockMatrix(30, []struct{ start, end, pc int }{
		{0, 10, 0},
		{10, 20, 4},
		{20, 30, 7},
	})

	result := pa.Analyze(m, []int{0, 10, 20, 30})

	require.Len(t, result.ChordChanges, 2)

	first := result.ChordChanges[0]
	assert.Equal(t, 1, first.Beat)
	assert.InDelta(t, 0.0, first.Similarity, 1e-12)
	assert.InDelta(t, float64(10*testHopSize)/float64(testSampleRate), first.Time, 1e-12)

	assert.Equal(t, 2, result.ChordChanges[1].Beat)

	// 2 changes across 3 beat intervals.
	assert.InDelta(t, 2.0/3.0, result.ProgressionComplexity, 1e-12)
	assert.InDelta(t, 1.0, result.HarmonicRhythm, 1e-12)
}

func TestAnalyzeEventsOrderedByBeat(t *testing.T) {
	pa := NewProgressionAnalyzer(testSampleRate, testHopSize)

	m := blockMatrix(40, []struct{ start, end, pc int }{
		{0, 10, 0},
		{10, 20, 3},
		{20, 30, 3},
		{30, 40, 8},
	})

	result := pa.Analyze(m, []int{0, 10, 20, 30, 39})

	require.NotEmpty(t, result.ChordChanges)
	for i := 1; i < len(result.ChordChanges); i++ {
		assert.Greater(t, result.ChordChanges[i].Beat, result.ChordChanges[i-1].Beat)
	}
}

func TestAnalyzeFewBeats(t *testing.T) {
	pa := NewProgressionAnalyzer(testSampleRate, testHopSize)
	m := blockMatrix(10, []struct{ start, end, pc int }{{0, 10, 0}})

	for _, beats := range [][]int{nil, {}, {3}} {
		result := pa.Analyze(m, beats)

		assert.Empty(t, result.ChordChanges)
		assert.Zero(t, result.ProgressionComplexity)
		assert.Zero(t, result.HarmonicRhythm)
	}
}

func TestAnalyzeEmptyMatrix(t *testing.T) {
	pa := NewProgressionAnalyzer(testSampleRate, testHopSize)

	result := pa.Analyze(chroma.Matrix{}, []int{0, 10, 20})

	assert.Empty(t, result.ChordChanges)
	assert.Zero(t, result.ProgressionComplexity)
}

func TestAnalyzeZeroNormBeatsReadAsNoChange(t *testing.T) {
	pa := NewProgressionAnalyzer(testSampleRate, testHopSize)

	// All-silent chroma: every beat vector has zero norm, similarity is
	// defined as 1.0 and no change is reported.
	result := pa.Analyze(chroma.NewMatrix(30), []int{0, 10, 20, 30})

	assert.Empty(t, result.ChordChanges)
	assert.Zero(t, result.ProgressionComplexity)
	assert.Zero(t, result.HarmonicRhythm)
}

func TestAnalyzeToleratesOutOfRangeBeatFrames(t *testing.T) {
	pa := NewProgressionAnalyzer(testSampleRate, testHopSize)

	m := blockMatrix(10, []struct{ start, end, pc int }{
		{0, 5, 0},
		{5, 10, 4},
	})

	// Final beat frame runs past the matrix: the last interval falls back
	// to the single column at its start, without panicking.
	result := pa.Analyze(m, []int{0, 5, 100})

	require.Len(t, result.ChordChanges, 1)
	assert.Equal(t, 1, result.ChordChanges[0].Beat)
}

func TestAnalyzeThresholdConfigurable(t *testing.T) {
	// Two nearly identical beat vectors: similarity just below 1.0.
	m := blockMatrix(20, []struct{ start, end, pc int }{
		{0, 10, 0},
		{10, 20, 0},
	})
	for f := 10; f < 20; f++ {
		m[1][f] = 0.2
	}

	strict := NewProgressionAnalyzerWithThreshold(testSampleRate, testHopSize, 0.999)
	relaxed := NewProgressionAnalyzer(testSampleRate, testHopSize)

	assert.Len(t, strict.Analyze(m, []int{0, 10, 20}).ChordChanges, 1)
	assert.Empty(t, relaxed.Analyze(m, []int{0, 10, 20}).ChordChanges)
}
