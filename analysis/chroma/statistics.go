package chroma

import (
	"math"

	"github.com/RyanBlaney/harmonia/analysis/common"
)

// FeatureStats summarizes one chroma variant into per-pitch-class statistics
// and a scalar temporal-stability score.
type FeatureStats struct {
	Mean            []float64 `json:"mean"`             // Mean energy per pitch class
	Std             []float64 `json:"std"`              // Population std per pitch class
	Median          []float64 `json:"median"`           // Median energy per pitch class
	ChangeRate      []float64 `json:"change_rate"`      // Mean |first difference| per pitch class
	Stability       float64   `json:"stability"`        // Mean adjacent-frame correlation
	DominantClasses []int     `json:"dominant_classes"` // Top-3 classes, ascending by energy
}

// StatsAnalyzer computes aggregate statistics over chroma matrices.
// It is a pure function of its input and never errors: degenerate matrices
// degrade to zeroed or absent statistics.
type StatsAnalyzer struct{}

// NewStatsAnalyzer creates a new chroma statistics analyzer
func NewStatsAnalyzer() *StatsAnalyzer {
	return &StatsAnalyzer{}
}

// Analyze summarizes a set of named chroma variants. Entries that are not
// genuine 12-row matrices with at least one frame are skipped silently.
func (sa *StatsAnalyzer) Analyze(variants map[string]Matrix) map[string]FeatureStats {
	stats := make(map[string]FeatureStats, len(variants))

	for name, matrix := range variants {
		if !matrix.Valid() {
			continue
		}
		stats[name] = sa.analyzeMatrix(matrix)
	}

	return stats
}

// analyzeMatrix computes statistics for a single validated chroma matrix.
func (sa *StatsAnalyzer) analyzeMatrix(m Matrix) FeatureStats {
	frames := m.NumFrames()

	result := FeatureStats{
		Mean:       make([]float64, NumPitchClasses),
		Std:        make([]float64, NumPitchClasses),
		Median:     make([]float64, NumPitchClasses),
		ChangeRate: make([]float64, NumPitchClasses),
	}

	for pc, row := range m {
		result.Mean[pc] = common.Mean(row)
		result.Std[pc] = common.StdDev(row)
		result.Median[pc] = common.Median(row)
		result.ChangeRate[pc] = meanAbsoluteDifference(row)
	}

	result.Stability = sa.temporalStability(m, frames)
	result.DominantClasses = dominantClasses(result.Mean)

	return result
}

// temporalStability is the mean Pearson correlation between every pair of
// temporally adjacent frame vectors. Undefined correlations (constant
// frames) contribute nothing; with no defined correlation the score is 0.0.
func (sa *StatsAnalyzer) temporalStability(m Matrix, frames int) float64 {
	if frames < 2 {
		return 0.0
	}

	sum := 0.0
	count := 0
	prev := m.Frame(0)

	for f := 1; f < frames; f++ {
		cur := m.Frame(f)
		corr := common.Correlation(prev, cur)
		if !math.IsNaN(corr) {
			sum += corr
			count++
		}
		prev = cur
	}

	if count == 0 {
		return 0.0
	}
	return sum / float64(count)
}

// meanAbsoluteDifference averages |row[f+1] - row[f]| over consecutive
// frames, 0.0 when fewer than two frames exist.
func meanAbsoluteDifference(row []float64) float64 {
	if len(row) < 2 {
		return 0.0
	}

	sum := 0.0
	for f := 1; f < len(row); f++ {
		sum += math.Abs(row[f] - row[f-1])
	}
	return sum / float64(len(row)-1)
}

// dominantClasses returns the indices of the top-3 pitch classes by mean
// energy, ordered weakest-of-the-top-three first.
func dominantClasses(mean []float64) []int {
	order := common.ArgsortAscending(mean)
	return order[len(order)-3:]
}
