// Package fusion cross-validates chroma features against an independently
// produced pitch-class profile and compares independent tempo estimates.
package fusion

import (
	"math"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
	"github.com/RyanBlaney/harmonia/analysis/common"
)

// CrossCorrelation holds per-pitch-class agreement between two pitch-class
// energy matrices.
type CrossCorrelation struct {
	PerClass []float64 `json:"correlations_per_class"`   // One defined correlation per class
	Mean     float64   `json:"chroma_profile_agreement"` // Mean of the defined correlations
}

// TempoComparison compares two independent tempo estimates.
// Agreement = 1 - |t1 - t2| / max(t1, t2); deliberately unclamped, so wildly
// divergent estimates surface as negative agreement.
type TempoComparison struct {
	ChromaTempo  float64 `json:"chroma_tempo"`
	ProfileTempo float64 `json:"profile_tempo"`
	Difference   float64 `json:"tempo_difference"`
	Agreement    float64 `json:"tempo_agreement"`
}

// Result bundles the fusion sub-results. A sub-result missing its required
// inputs is omitted entirely rather than zero-filled.
type Result struct {
	CrossCorrelation *CrossCorrelation `json:"cross_correlation,omitempty"`
	Tempo            *TempoComparison  `json:"tempo_analysis,omitempty"`
}

// Engine correlates features from two independent extraction sources
type Engine struct{}

// NewEngine creates a new fusion engine
func NewEngine() *Engine {
	return &Engine{}
}

// Fuse cross-correlates a chroma matrix with an alternative pitch-class
// profile matrix and compares the two tempo estimates. Missing or empty
// inputs silently omit the corresponding sub-result; Fuse never errors.
func (e *Engine) Fuse(chromaMat, profileMat chroma.Matrix, chromaTempo, profileTempo float64) Result {
	return Result{
		CrossCorrelation: e.crossCorrelate(chromaMat, profileMat),
		Tempo:            e.compareTempo(chromaTempo, profileTempo),
	}
}

// crossCorrelate truncates both matrices to their common frame count and
// correlates them row by row, skipping undefined correlations.
func (e *Engine) crossCorrelate(a, b chroma.Matrix) *CrossCorrelation {
	if a.NumFrames() == 0 || b.NumFrames() == 0 {
		return nil
	}

	minFrames := a.NumFrames()
	if b.NumFrames() < minFrames {
		minFrames = b.NumFrames()
	}

	classes := len(a)
	if len(b) < classes {
		classes = len(b)
	}
	if classes > chroma.NumPitchClasses {
		classes = chroma.NumPitchClasses
	}

	correlations := make([]float64, 0, classes)
	for pc := 0; pc < classes; pc++ {
		// Backends may hand over ragged matrices; a row shorter than the
		// common frame count cannot be correlated and is skipped.
		if len(a[pc]) < minFrames || len(b[pc]) < minFrames {
			continue
		}
		corr := common.Correlation(a[pc][:minFrames], b[pc][:minFrames])
		if !math.IsNaN(corr) {
			correlations = append(correlations, corr)
		}
	}

	mean := 0.0
	if len(correlations) > 0 {
		mean = common.Mean(correlations)
	}

	return &CrossCorrelation{
		PerClass: correlations,
		Mean:     mean,
	}
}

// compareTempo compares tempo estimates when both are strictly positive.
func (e *Engine) compareTempo(t1, t2 float64) *TempoComparison {
	if t1 <= 0 || t2 <= 0 {
		return nil
	}

	diff := math.Abs(t1 - t2)
	return &TempoComparison{
		ChromaTempo:  t1,
		ProfileTempo: t2,
		Difference:   diff,
		Agreement:    1.0 - diff/math.Max(t1, t2),
	}
}
