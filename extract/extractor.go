// Package extract defines the pluggable extraction collaborators feeding the
// analysis pipeline: chroma/DSP backends and alternative pitch-profile
// backends. Backends are selected at construction; null backends return
// well-defined empty sentinels so callers can degrade gracefully.
package extract

import (
	"fmt"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
)

// Chroma variant names shared between extractors and consumers.
const (
	VariantSTFT     = "chroma_stft"
	VariantCQT      = "chroma_cqt"
	VariantCENS     = "chroma_cens"
	VariantHarmonic = "chroma_harmonic"
	VariantTuned    = "chroma_tuned"
)

// SpectralSummary carries scalar averages of optional spectral descriptors.
type SpectralSummary struct {
	CentroidMean  float64 `json:"spectral_centroid_mean"`
	RolloffMean   float64 `json:"spectral_rolloff_mean"`
	BandwidthMean float64 `json:"spectral_bandwidth_mean"`
	ZCRMean       float64 `json:"zero_crossing_rate_mean"`
	RMSEnergyMean float64 `json:"rms_energy_mean"`
}

// ChromaFeatures is the output of a chroma extraction backend.
type ChromaFeatures struct {
	Variants   map[string]chroma.Matrix `json:"-"`          // Variant name -> chroma matrix
	Tuning     float64                  `json:"tuning"`     // Sub-semitone tuning offset
	Tempo      float64                  `json:"tempo"`      // Tempo estimate in BPM, 0 if unknown
	BeatFrames []int                    `json:"-"`          // Strictly increasing frame indices
	Spectral   *SpectralSummary         `json:"spectral,omitempty"`
}

// ChromaExtractor computes chroma matrices, tuning, tempo, and beat frames
// from decoded audio.
type ChromaExtractor interface {
	Extract(pcm []float64, sampleRate int) (*ChromaFeatures, error)
}

// PitchProfile is the output of an alternative pitch-profile backend.
// Unavailable backends return zero values here, never errors.
type PitchProfile struct {
	Key             string        `json:"key,omitempty"`   // Key guess, empty if unknown
	Scale           string        `json:"scale,omitempty"` // Scale guess, empty if unknown
	KeyStrength     float64       `json:"key_strength"`
	Tempo           float64       `json:"tempo"`
	TempoConfidence float64       `json:"tempo_confidence"`
	HPCP            chroma.Matrix `json:"-"` // Per-frame 12-bin profile, empty if absent
	Duration        float64       `json:"duration"`
}

// PitchProfileExtractor produces an independent pitch-class profile and
// key/tempo estimates for cross-validation. Implementations return empty
// sentinels rather than failing when the capability is unavailable.
type PitchProfileExtractor interface {
	ExtractProfile(path string) *PitchProfile
}

// ExtractionError wraps a failure inside an extraction backend. Callers
// degrade to default values instead of failing the whole file.
type ExtractionError struct {
	Backend string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed in %s backend: %v", e.Backend, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// EmptyChromaFeatures is the sentinel returned when chroma extraction is
// unavailable or failed.
func EmptyChromaFeatures() *ChromaFeatures {
	return &ChromaFeatures{
		Variants:   map[string]chroma.Matrix{},
		BeatFrames: []int{},
	}
}

// NullChromaExtractor is the explicit no-capability chroma backend.
type NullChromaExtractor struct{}

// Extract returns the empty sentinel.
func (NullChromaExtractor) Extract(pcm []float64, sampleRate int) (*ChromaFeatures, error) {
	return EmptyChromaFeatures(), nil
}

// NullPitchProfileExtractor is the explicit no-capability profile backend.
type NullPitchProfileExtractor struct{}

// ExtractProfile returns the zero-valued sentinel profile.
func (NullPitchProfileExtractor) ExtractProfile(path string) *PitchProfile {
	return &PitchProfile{HPCP: chroma.Matrix{}}
}
