package tonal

import (
	"github.com/RyanBlaney/harmonia/analysis/chroma"
	"github.com/RyanBlaney/harmonia/analysis/common"
)

// DefaultChangeThreshold is the canonical cosine-similarity threshold below
// which a beat transition counts as a chord change.
const DefaultChangeThreshold = 0.70

// ChordChange marks one detected harmonic change at a beat transition
type ChordChange struct {
	Beat       int     `json:"beat"`       // 1-based index of the later beat in the pair
	Time       float64 `json:"time"`       // Position of the later beat in seconds
	Similarity float64 `json:"similarity"` // Cosine similarity at the transition
}

// ProgressionResult contains beat-synchronous harmonic analysis
type ProgressionResult struct {
	ChordChanges          []ChordChange `json:"chord_changes"`
	ProgressionComplexity float64       `json:"progression_complexity"` // changes / beat intervals
	HarmonicRhythm        float64       `json:"harmonic_rhythm"`        // mean(1 - similarity)
}

// ProgressionAnalyzer aggregates chroma into beat-synchronous vectors and
// detects chord-change events via cosine similarity between consecutive
// beat vectors.
type ProgressionAnalyzer struct {
	sampleRate      int
	hopSize         int
	changeThreshold float64
}

// NewProgressionAnalyzer creates a progression analyzer with the default
// chord-change threshold.
func NewProgressionAnalyzer(sampleRate, hopSize int) *ProgressionAnalyzer {
	return NewProgressionAnalyzerWithThreshold(sampleRate, hopSize, DefaultChangeThreshold)
}

// NewProgressionAnalyzerWithThreshold creates a progression analyzer with a
// custom chord-change threshold.
func NewProgressionAnalyzerWithThreshold(sampleRate, hopSize int, threshold float64) *ProgressionAnalyzer {
	return &ProgressionAnalyzer{
		sampleRate:      sampleRate,
		hopSize:         hopSize,
		changeThreshold: threshold,
	}
}

// Analyze detects chord changes across the beat intervals of a chroma
// matrix. It never panics on out-of-range beat frames; with an empty matrix
// or fewer than two beat frames it returns an empty result.
func (pa *ProgressionAnalyzer) Analyze(m chroma.Matrix, beatFrames []int) ProgressionResult {
	result := ProgressionResult{ChordChanges: []ChordChange{}}

	if !m.Valid() || len(beatFrames) < 2 {
		return result
	}

	beatVectors := pa.beatChroma(m, beatFrames)
	if len(beatVectors) < 2 {
		return result
	}

	dissimilaritySum := 0.0
	pairs := len(beatVectors) - 1

	for i := 0; i < pairs; i++ {
		similarity := cosineSimilarity(beatVectors[i], beatVectors[i+1])
		dissimilaritySum += 1.0 - similarity

		if similarity < pa.changeThreshold {
			result.ChordChanges = append(result.ChordChanges, ChordChange{
				Beat:       i + 1,
				Time:       pa.beatTime(beatFrames, i+1),
				Similarity: similarity,
			})
		}
	}

	intervals := len(beatFrames) - 1
	if intervals < 1 {
		intervals = 1
	}
	result.ProgressionComplexity = float64(len(result.ChordChanges)) / float64(intervals)
	result.HarmonicRhythm = dissimilaritySum / float64(pairs)

	return result
}

// beatChroma averages chroma columns over each beat interval [start, end).
// When the interval is degenerate or runs past the matrix, the single
// column at start stands in for the interval.
func (pa *ProgressionAnalyzer) beatChroma(m chroma.Matrix, beatFrames []int) [][]float64 {
	frames := m.NumFrames()
	vectors := make([][]float64, 0, len(beatFrames)-1)

	for i := 0; i < len(beatFrames)-1; i++ {
		start := beatFrames[i]
		end := beatFrames[i+1]

		if start < 0 || start >= frames {
			continue
		}

		if end > start && end <= frames {
			vectors = append(vectors, m.ColumnAverage(start, end))
		} else {
			vectors = append(vectors, m.Frame(start))
		}
	}

	return vectors
}

// beatTime converts the beat frame at index to seconds, 0.0 when the index
// is out of range.
func (pa *ProgressionAnalyzer) beatTime(beatFrames []int, index int) float64 {
	if index >= len(beatFrames) || pa.sampleRate <= 0 {
		return 0.0
	}
	return float64(beatFrames[index]*pa.hopSize) / float64(pa.sampleRate)
}

// cosineSimilarity between two beat vectors. A zero-norm vector means no
// measurable harmonic content, which reads as "no change": similarity 1.0.
func cosineSimilarity(a, b []float64) float64 {
	normA := common.Norm(a)
	normB := common.Norm(b)

	if normA == 0 || normB == 0 {
		return 1.0
	}
	return common.Dot(a, b) / (normA * normB)
}
