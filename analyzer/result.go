package analyzer

import (
	"encoding/json"
	"os"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
	"github.com/RyanBlaney/harmonia/analysis/fusion"
	"github.com/RyanBlaney/harmonia/analysis/tonal"
	"github.com/RyanBlaney/harmonia/extract"
)

// AudioInfo summarizes the decoded audio and its extracted global features
type AudioInfo struct {
	Duration   float64 `json:"duration"` // Seconds
	SampleRate int     `json:"sample_rate"`
	Tuning     float64 `json:"tuning"` // Sub-semitone deviation
	Tempo      float64 `json:"tempo"`  // BPM, 0 when unknown
	BeatCount  int     `json:"beat_count"`
}

// CombinedFeatures carries the fusion sub-results plus the alternative
// extractor's own key estimate for side-by-side comparison.
type CombinedFeatures struct {
	CrossCorrelation           *fusion.CrossCorrelation `json:"cross_correlation,omitempty"`
	Tempo                      *fusion.TempoComparison  `json:"tempo_analysis,omitempty"`
	AlternativeKey             string                   `json:"alternative_key,omitempty"`
	AlternativeScale           string                   `json:"alternative_scale,omitempty"`
	AlternativeKeyStrength     float64                  `json:"alternative_key_strength,omitempty"`
	AlternativeTempoConfidence float64                  `json:"alternative_tempo_confidence,omitempty"`
	AlternativeDuration        float64                  `json:"alternative_duration,omitempty"`
}

// FileResult is the single structured record produced per analyzed file.
// A failed analysis still yields a record with Success=false and the error
// message, so batch runs leave a trace for every input.
type FileResult struct {
	FilePath          string                         `json:"file_path"`
	AnalysisTimestamp string                         `json:"analysis_timestamp"`
	AudioInfo         *AudioInfo                     `json:"audio_info,omitempty"`
	KeyAnalysis       *tonal.KeyEstimate             `json:"key_analysis,omitempty"`
	HarmonicAnalysis  *tonal.ProgressionResult       `json:"harmonic_analysis,omitempty"`
	ChromaStatistics  map[string]chroma.FeatureStats `json:"chroma_statistics,omitempty"`
	SpectralSummary   *extract.SpectralSummary       `json:"spectral_summary,omitempty"`
	CombinedFeatures  *CombinedFeatures              `json:"combined_features,omitempty"`
	Error             string                         `json:"error,omitempty"`
	Success           bool                           `json:"success"`
}

// BatchSummary aggregates the results of one batch run
type BatchSummary struct {
	RunID             string        `json:"run_id"`
	TotalFiles        int           `json:"total_files"`
	Successful        int           `json:"successful_analyses"`
	Failed            int           `json:"failed_analyses"`
	AnalysisTimestamp string        `json:"analysis_timestamp"`
	Results           []*FileResult `json:"results"`
}

// WriteJSON persists the result as an indented JSON document
func (r *FileResult) WriteJSON(path string) error {
	return writeJSON(path, r)
}

// WriteJSON persists the summary as an indented JSON document
func (s *BatchSummary) WriteJSON(path string) error {
	return writeJSON(path, s)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
