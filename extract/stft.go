package extract

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
	"github.com/RyanBlaney/harmonia/analysis/common"
)

// STFTExtractorParams configures the built-in STFT chroma backend
type STFTExtractorParams struct {
	FFTSize int     `json:"fft_size"` // Transform size, power of two
	HopSize int     `json:"hop_size"` // Frame hop in samples
	RefFreq float64 `json:"ref_freq"` // Reference frequency for pitch class C4
	MinFreq float64 `json:"min_freq"` // Ignore spectral content below this
}

// DefaultSTFTExtractorParams returns the default backend parameters
func DefaultSTFTExtractorParams() STFTExtractorParams {
	return STFTExtractorParams{
		FFTSize: 2048,
		HopSize: 512,
		RefFreq: 261.6256, // C4
		MinFreq: 55.0,
	}
}

// STFTExtractor is the built-in chroma backend. It computes an STFT-based
// chroma variant, a spectral-flux beat estimate, and averaged spectral
// descriptors, so the pipeline runs without external extraction tools.
// Tuning correction is not performed; the tuning offset is reported as 0.
type STFTExtractor struct {
	params STFTExtractorParams
	window []float64
}

// NewSTFTExtractor creates an STFT chroma extractor with default parameters
func NewSTFTExtractor() *STFTExtractor {
	return NewSTFTExtractorWithParams(DefaultSTFTExtractorParams())
}

// NewSTFTExtractorWithParams creates an STFT chroma extractor with custom parameters
func NewSTFTExtractorWithParams(params STFTExtractorParams) *STFTExtractor {
	return &STFTExtractor{
		params: params,
		window: hannWindow(params.FFTSize),
	}
}

// Extract computes chroma features from mono PCM audio
func (se *STFTExtractor) Extract(pcm []float64, sampleRate int) (*ChromaFeatures, error) {
	if len(pcm) < se.params.FFTSize {
		return nil, &ExtractionError{
			Backend: "stft",
			Err:     fmt.Errorf("audio too short: %d samples, need %d", len(pcm), se.params.FFTSize),
		}
	}
	if sampleRate <= 0 {
		return nil, &ExtractionError{
			Backend: "stft",
			Err:     fmt.Errorf("invalid sample rate: %d", sampleRate),
		}
	}

	numFrames := 1 + (len(pcm)-se.params.FFTSize)/se.params.HopSize
	numBins := se.params.FFTSize/2 + 1
	binWidth := float64(sampleRate) / float64(se.params.FFTSize)

	chromaMat := chroma.NewMatrix(numFrames)
	flux := make([]float64, numFrames)
	summary := &SpectralSummary{}

	prevMag := make([]float64, numBins)
	buf := make([]float64, se.params.FFTSize)

	for frame := 0; frame < numFrames; frame++ {
		offset := frame * se.params.HopSize
		for i := range buf {
			buf[i] = pcm[offset+i] * se.window[i]
		}

		spectrum := fft.FFTReal(buf)
		mag := make([]float64, numBins)
		for bin := 0; bin < numBins; bin++ {
			mag[bin] = cmplx.Abs(spectrum[bin])
		}

		se.accumulateChroma(chromaMat, mag, binWidth, float64(sampleRate), frame)
		flux[frame] = spectralFlux(mag, prevMag)
		se.accumulateSpectral(summary, mag, binWidth)
		summary.ZCRMean += zeroCrossingRate(pcm[offset : offset+se.params.FFTSize])
		summary.RMSEnergyMean += common.Norm(buf) / math.Sqrt(float64(len(buf)))

		prevMag = mag
	}

	finalizeSummary(summary, numFrames)

	beatFrames := pickBeats(flux)
	tempo := se.tempoFromBeats(beatFrames, sampleRate)

	return &ChromaFeatures{
		Variants: map[string]chroma.Matrix{
			VariantSTFT: chromaMat,
		},
		Tuning:     0.0,
		Tempo:      tempo,
		BeatFrames: beatFrames,
		Spectral:   summary,
	}, nil
}

// accumulateChroma folds spectral magnitudes into pitch classes and
// normalizes the frame column by its peak.
func (se *STFTExtractor) accumulateChroma(m chroma.Matrix, mag []float64, binWidth, sampleRate float64, frame int) {
	nyquist := sampleRate / 2.0

	for bin := 1; bin < len(mag); bin++ {
		freq := float64(bin) * binWidth
		if freq < se.params.MinFreq || freq >= nyquist {
			continue
		}

		semitones := 12.0 * math.Log2(freq/se.params.RefFreq)
		pc := ((int(math.Round(semitones)) % 12) + 12) % 12
		m[pc][frame] += mag[bin]
	}

	peak := 0.0
	for pc := 0; pc < chroma.NumPitchClasses; pc++ {
		if m[pc][frame] > peak {
			peak = m[pc][frame]
		}
	}
	if peak > 0 {
		for pc := 0; pc < chroma.NumPitchClasses; pc++ {
			m[pc][frame] /= peak
		}
	}
}

// accumulateSpectral adds one frame's centroid, rolloff, and bandwidth.
func (se *STFTExtractor) accumulateSpectral(summary *SpectralSummary, mag []float64, binWidth float64) {
	total := common.Sum(mag)
	if total <= 0 {
		return
	}

	centroid := 0.0
	for bin, m := range mag {
		centroid += float64(bin) * binWidth * m
	}
	centroid /= total

	// Rolloff: frequency below which 85% of the magnitude sits.
	target := 0.85 * total
	cum := 0.0
	rolloff := float64(len(mag)-1) * binWidth
	for bin, m := range mag {
		cum += m
		if cum >= target {
			rolloff = float64(bin) * binWidth
			break
		}
	}

	bandwidth := 0.0
	for bin, m := range mag {
		diff := float64(bin)*binWidth - centroid
		bandwidth += diff * diff * m
	}
	bandwidth = math.Sqrt(bandwidth / total)

	summary.CentroidMean += centroid
	summary.RolloffMean += rolloff
	summary.BandwidthMean += bandwidth
}

// tempoFromBeats derives BPM from the median inter-beat interval.
func (se *STFTExtractor) tempoFromBeats(beatFrames []int, sampleRate int) float64 {
	if len(beatFrames) < 2 {
		return 0.0
	}

	intervals := make([]float64, len(beatFrames)-1)
	for i := 1; i < len(beatFrames); i++ {
		intervals[i-1] = float64(beatFrames[i] - beatFrames[i-1])
	}

	median := common.Median(intervals)
	if median <= 0 {
		return 0.0
	}

	secondsPerBeat := median * float64(se.params.HopSize) / float64(sampleRate)
	return 60.0 / secondsPerBeat
}

// pickBeats selects onset peaks from a spectral-flux novelty curve: local
// maxima above the mean plus one standard deviation.
func pickBeats(flux []float64) []int {
	if len(flux) < 3 {
		return []int{}
	}

	threshold := common.Mean(flux) + common.StdDev(flux)
	beats := make([]int, 0)

	for i := 1; i < len(flux)-1; i++ {
		if flux[i] > flux[i-1] && flux[i] >= flux[i+1] && flux[i] > threshold {
			beats = append(beats, i)
		}
	}

	return beats
}

// spectralFlux sums positive magnitude increases between frames.
func spectralFlux(mag, prevMag []float64) float64 {
	flux := 0.0
	for bin := range mag {
		if d := mag[bin] - prevMag[bin]; d > 0 {
			flux += d
		}
	}
	return flux
}

// zeroCrossingRate is the fraction of sign changes within a frame.
func zeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}

func finalizeSummary(summary *SpectralSummary, numFrames int) {
	if numFrames == 0 {
		return
	}
	n := float64(numFrames)
	summary.CentroidMean /= n
	summary.RolloffMean /= n
	summary.BandwidthMean /= n
	summary.ZCRMean /= n
	summary.RMSEnergyMean /= n
}

func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}
