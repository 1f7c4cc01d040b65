// Package analyzer drives the full per-file analysis pipeline: decode,
// feature extraction, key/mode inference, harmonic progression, chroma
// statistics, and feature fusion, assembled into one structured record.
package analyzer

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
	"github.com/RyanBlaney/harmonia/analysis/fusion"
	"github.com/RyanBlaney/harmonia/analysis/tonal"
	"github.com/RyanBlaney/harmonia/extract"
	"github.com/RyanBlaney/harmonia/logging"
	"github.com/RyanBlaney/harmonia/transcode"
)

// Config holds the analysis configuration, fixed at construction.
type Config struct {
	SampleRate      int     `json:"sample_rate"`
	HopSize         int     `json:"hop_size"`
	FFTSize         int     `json:"fft_size"`
	ChangeThreshold float64 `json:"chord_change_threshold"`
}

// DefaultConfig returns the default analysis configuration
func DefaultConfig() *Config {
	return &Config{
		SampleRate:      22050,
		HopSize:         512,
		FFTSize:         2048,
		ChangeThreshold: tonal.DefaultChangeThreshold,
	}
}

// AudioDecoder decodes one file into mono PCM
type AudioDecoder interface {
	DecodeFile(path string) (*transcode.AudioData, error)
}

// Analyzer orchestrates the analysis components for one file at a time.
// It holds no mutable state between calls, so independent files may be
// analyzed concurrently from separate goroutines.
type Analyzer struct {
	config      *Config
	decoder     AudioDecoder
	extractor   extract.ChromaExtractor
	profiles    extract.PitchProfileExtractor
	stats       *chroma.StatsAnalyzer
	keys        *tonal.KeyEstimator
	progression *tonal.ProgressionAnalyzer
	fusion      *fusion.Engine
}

// New creates an analyzer with the built-in STFT chroma backend and no
// alternative profile backend.
func New(config *Config) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.TargetSampleRate = config.SampleRate

	extractor := extract.NewSTFTExtractorWithParams(extract.STFTExtractorParams{
		FFTSize: config.FFTSize,
		HopSize: config.HopSize,
		RefFreq: extract.DefaultSTFTExtractorParams().RefFreq,
		MinFreq: extract.DefaultSTFTExtractorParams().MinFreq,
	})

	return NewWithBackends(config, transcode.NewDecoder(decoderConfig), extractor, extract.NullPitchProfileExtractor{})
}

// NewWithBackends creates an analyzer with explicit collaborator backends.
func NewWithBackends(config *Config, decoder AudioDecoder, extractor extract.ChromaExtractor, profiles extract.PitchProfileExtractor) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	if extractor == nil {
		extractor = extract.NullChromaExtractor{}
	}
	if profiles == nil {
		profiles = extract.NullPitchProfileExtractor{}
	}

	return &Analyzer{
		config:      config,
		decoder:     decoder,
		extractor:   extractor,
		profiles:    profiles,
		stats:       chroma.NewStatsAnalyzer(),
		keys:        tonal.NewKeyEstimator(),
		progression: tonal.NewProgressionAnalyzerWithThreshold(config.SampleRate, config.HopSize, config.ChangeThreshold),
		fusion:      fusion.NewEngine(),
	}
}

// AnalyzeFile analyzes one audio file and always returns a record: decode
// failures and unexpected panics become failure records instead of
// propagating, so one bad file never aborts a batch.
func (a *Analyzer) AnalyzeFile(path string) (result *FileResult) {
	logger := logging.WithFields(logging.Fields{
		"component": "analyzer",
		"path":      path,
	})

	result = &FileResult{
		FilePath:          path,
		AnalysisTimestamp: time.Now().Format(time.RFC3339),
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Errorf("%v", r), "Analysis panicked")
			result.Error = fmt.Sprintf("analysis panicked: %v", r)
			result.Success = false
		}
	}()

	audio, err := a.decoder.DecodeFile(path)
	if err != nil {
		logger.Error(err, "Decode failed")
		result.Error = err.Error()
		return result
	}

	features, err := a.extractor.Extract(audio.PCM, audio.SampleRate)
	if err != nil {
		// Extraction failure degrades to empty sentinels; the file still
		// produces a record with whatever downstream engines can compute.
		logger.Warn("Chroma extraction failed, degrading to empty features", logging.Fields{
			"error": err.Error(),
		})
		features = extract.EmptyChromaFeatures()
	}

	profile := a.profiles.ExtractProfile(path)

	source := a.sourceMatrix(features)
	keyEstimate := a.keys.Estimate(source)
	harmonic := a.progression.Analyze(source, features.BeatFrames)
	statistics := a.stats.Analyze(features.Variants)
	fused := a.fusion.Fuse(features.Variants[extract.VariantSTFT], profile.HPCP, features.Tempo, profile.Tempo)

	result.AudioInfo = &AudioInfo{
		Duration:   audio.Duration.Seconds(),
		SampleRate: audio.SampleRate,
		Tuning:     features.Tuning,
		Tempo:      features.Tempo,
		BeatCount:  len(features.BeatFrames),
	}
	result.KeyAnalysis = &keyEstimate
	result.HarmonicAnalysis = &harmonic
	result.ChromaStatistics = statistics
	result.SpectralSummary = features.Spectral
	result.CombinedFeatures = &CombinedFeatures{
		CrossCorrelation:           fused.CrossCorrelation,
		Tempo:                      fused.Tempo,
		AlternativeKey:             profile.Key,
		AlternativeScale:           profile.Scale,
		AlternativeKeyStrength:     profile.KeyStrength,
		AlternativeTempoConfidence: profile.TempoConfidence,
		AlternativeDuration:        profile.Duration,
	}
	result.Success = true

	logger.Debug("Analysis completed", logging.Fields{
		"key":           keyEstimate.Key,
		"mode":          keyEstimate.Mode,
		"chord_changes": len(harmonic.ChordChanges),
		"variants":      len(statistics),
	})

	return result
}

// sourceMatrix picks the chroma variant feeding key estimation and harmonic
// analysis: constant-Q when available, else the STFT variant.
func (a *Analyzer) sourceMatrix(features *extract.ChromaFeatures) chroma.Matrix {
	if m, ok := features.Variants[extract.VariantCQT]; ok && m.Valid() {
		return m
	}
	if m, ok := features.Variants[extract.VariantSTFT]; ok && m.Valid() {
		return m
	}
	return chroma.Matrix{}
}
