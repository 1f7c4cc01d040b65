package tonal

import (
	"github.com/RyanBlaney/harmonia/analysis/chroma"
	"github.com/RyanBlaney/harmonia/analysis/common"
)

// Mode represents the scale mode of an estimated key
type Mode string

const (
	ModeMajor   Mode = "major"
	ModeMinor   Mode = "minor"
	ModeUnknown Mode = "unknown"
)

// Binary scale-membership templates relative to root C. Rotating a template
// by k semitones produces the template for the key k semitones above C.
var (
	majorTemplate = []float64{1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1}
	minorTemplate = []float64{1, 0, 1, 1, 0, 1, 0, 1, 1, 0, 1, 0}
)

// KeyEstimate is the result of template-based key/mode estimation
type KeyEstimate struct {
	Key        string    `json:"key"`                      // Pitch class name, or "Unknown"
	Mode       Mode      `json:"mode"`                     // major, minor, or unknown
	Confidence float64   `json:"confidence"`               // Winning correlation in [-1, 1]
	Profile    []float64 `json:"chroma_profile,omitempty"` // Normalized mean chroma
}

// KeyEstimator infers key and mode by correlating an averaged chroma profile
// against all 24 rotations of the major and minor scale templates.
type KeyEstimator struct{}

// NewKeyEstimator creates a new key estimator
func NewKeyEstimator() *KeyEstimator {
	return &KeyEstimator{}
}

// Estimate infers the key and mode of a chroma matrix. An empty or
// malformed matrix yields the Unknown estimate with confidence 0.0.
func (ke *KeyEstimator) Estimate(m chroma.Matrix) KeyEstimate {
	if !m.Valid() {
		return KeyEstimate{Key: "Unknown", Mode: ModeUnknown, Confidence: 0.0}
	}

	profile := m.MeanProfile()
	if sum := common.Sum(profile); sum > 0 {
		for i := range profile {
			profile[i] /= sum
		}
	}

	majorKey, majorCorr := ke.bestRotation(profile, majorTemplate)
	minorKey, minorCorr := ke.bestRotation(profile, minorTemplate)

	// Major wins strict ties.
	if majorCorr >= minorCorr {
		return KeyEstimate{
			Key:        chroma.PitchClassName(majorKey),
			Mode:       ModeMajor,
			Confidence: majorCorr,
			Profile:    profile,
		}
	}

	return KeyEstimate{
		Key:        chroma.PitchClassName(minorKey),
		Mode:       ModeMinor,
		Confidence: minorCorr,
		Profile:    profile,
	}
}

// bestRotation finds the template rotation with maximum Pearson correlation
// against the profile. Undefined correlations count as 0.0, so an all-zero
// profile scores 0.0 for every rotation.
func (ke *KeyEstimator) bestRotation(profile, template []float64) (int, float64) {
	bestKey := 0
	bestCorr := common.CorrelationOrZero(profile, template)

	rotated := make([]float64, len(template))
	for shift := 1; shift < chroma.NumPitchClasses; shift++ {
		for i := range template {
			rotated[i] = template[(i-shift+chroma.NumPitchClasses)%chroma.NumPitchClasses]
		}

		corr := common.CorrelationOrZero(profile, rotated)
		if corr > bestCorr {
			bestCorr = corr
			bestKey = shift
		}
	}

	return bestKey, bestCorr
}
