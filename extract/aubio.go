package extract

import (
	"bufio"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/harmonia/analysis/chroma"
	"github.com/RyanBlaney/harmonia/analysis/common"
	"github.com/RyanBlaney/harmonia/logging"
)

// AubioExtractorParams configures the aubio-backed profile extractor
type AubioExtractorParams struct {
	BinPath string        `json:"bin_path"` // Path to the aubio binary
	Timeout time.Duration `json:"timeout"`  // Per-invocation timeout
}

// DefaultAubioExtractorParams returns defaults assuming aubio is in PATH
func DefaultAubioExtractorParams() AubioExtractorParams {
	return AubioExtractorParams{
		BinPath: "aubio",
		Timeout: 60 * time.Second,
	}
}

// AubioExtractor produces independent key and tempo estimates by shelling
// out to the aubio CLI. It does not produce a per-frame pitch-class profile,
// so the HPCP matrix in its results is always empty; the fusion engine
// omits the cross-correlation sub-result accordingly.
type AubioExtractor struct {
	params AubioExtractorParams
}

// NewAubioExtractor creates an aubio-backed profile extractor
func NewAubioExtractor() *AubioExtractor {
	return NewAubioExtractorWithParams(DefaultAubioExtractorParams())
}

// NewAubioExtractorWithParams creates an aubio-backed profile extractor with custom parameters
func NewAubioExtractorWithParams(params AubioExtractorParams) *AubioExtractor {
	return &AubioExtractor{params: params}
}

var (
	bpmPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*bpm`)
	// Anchored to a full line so echoed paths or warnings containing a-g
	// letters never read as a key guess.
	keyPattern = regexp.MustCompile(`^([a-g][#b]?)(?:\s+(major|minor))?$`)
)

// ExtractProfile runs aubio against the file. Any failure (binary missing,
// tool error, unparseable output) degrades to the zero-valued sentinel.
func (ae *AubioExtractor) ExtractProfile(path string) *PitchProfile {
	logger := logging.WithFields(logging.Fields{
		"component": "aubio_extractor",
		"path":      path,
	})

	profile := &PitchProfile{HPCP: chroma.Matrix{}}

	if tempo, ok := ae.extractTempo(path); ok {
		profile.Tempo = tempo
		profile.TempoConfidence = 1.0
	} else {
		logger.Debug("aubio tempo unavailable, using zero sentinel")
	}

	if key, scale, ok := ae.extractKey(path); ok {
		profile.Key = key
		profile.Scale = scale
		profile.KeyStrength = 1.0
	} else {
		logger.Debug("aubio key unavailable, using empty sentinel")
	}

	return profile
}

// extractTempo parses the BPM series from `aubio tempo` and reports its median.
func (ae *AubioExtractor) extractTempo(path string) (float64, bool) {
	out, err := ae.run("tempo", "-i", path)
	if err != nil && out == "" {
		return 0, false
	}

	var series []float64
	sc := bufio.NewScanner(strings.NewReader(strings.ToLower(out)))
	for sc.Scan() {
		if m := bpmPattern.FindStringSubmatch(sc.Text()); len(m) >= 2 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				series = append(series, v)
			}
		}
	}

	if len(series) == 0 {
		return 0, false
	}
	return common.Median(series), true
}

// extractKey parses the key guess from `aubio key`.
func (ae *AubioExtractor) extractKey(path string) (string, string, bool) {
	out, err := ae.run("key", "-i", path)
	if err != nil && out == "" {
		return "", "", false
	}
	return parseKeyOutput(out)
}

// parseKeyOutput scans `aubio key` output for a line that is exactly a key
// guess, keeping the last one.
func parseKeyOutput(out string) (string, string, bool) {
	key, scale := "", ""
	found := false

	sc := bufio.NewScanner(strings.NewReader(strings.ToLower(out)))
	for sc.Scan() {
		m := keyPattern.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		key = strings.ToUpper(m[1][:1]) + m[1][1:]
		scale = m[2]
		found = true
	}

	return key, scale, found
}

func (ae *AubioExtractor) run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ae.params.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ae.params.BinPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
