// harmonia analyzes directories of recorded music: key and mode, chord
// change points, chroma statistics, and cross-extractor feature fusion,
// written as one JSON document per file plus a batch summary.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/RyanBlaney/harmonia/analyzer"
	"github.com/RyanBlaney/harmonia/extract"
	"github.com/RyanBlaney/harmonia/logging"
	"github.com/RyanBlaney/harmonia/transcode"
)

func main() {
	// .env is optional; flags and process env win over it.
	_ = godotenv.Load()

	config := analyzer.DefaultConfig()

	inputDir := flag.String("input", envString("HARMONIA_INPUT_DIR", ""), "directory of audio files to analyze")
	outputDir := flag.String("output", envString("HARMONIA_OUTPUT_DIR", "analysis_output"), "directory for result documents")
	extList := flag.String("ext", envString("HARMONIA_EXTENSIONS", ""), "comma-separated audio extensions (default wav,mp3,flac,m4a,ogg)")
	sampleRate := flag.Int("sample-rate", envInt("HARMONIA_SAMPLE_RATE", config.SampleRate), "target analysis sample rate")
	hopSize := flag.Int("hop", envInt("HARMONIA_HOP_SIZE", config.HopSize), "analysis frame hop in samples")
	fftSize := flag.Int("fft", envInt("HARMONIA_FFT_SIZE", config.FFTSize), "transform size in samples")
	threshold := flag.Float64("chord-threshold", envFloat("HARMONIA_CHORD_THRESHOLD", config.ChangeThreshold), "cosine-similarity threshold for chord changes")
	useAubio := flag.Bool("aubio", envBool("HARMONIA_USE_AUBIO"), "cross-validate with the aubio CLI when available")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logging.SetLevel(logging.DebugLevel)
	}

	if *inputDir == "" {
		fmt.Fprintln(os.Stderr, "usage: harmonia -input <dir> [-output <dir>] [-ext wav,mp3] [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	config.SampleRate = *sampleRate
	config.HopSize = *hopSize
	config.FFTSize = *fftSize
	config.ChangeThreshold = *threshold

	a := buildAnalyzer(config, *useAubio)

	opts := analyzer.BatchOptions{
		InputDir:  *inputDir,
		OutputDir: *outputDir,
	}
	if *extList != "" {
		opts.Extensions = strings.Split(*extList, ",")
	}

	summary, err := a.AnalyzeDirectory(opts)
	if err != nil {
		logging.Error(err, "Batch analysis failed")
		os.Exit(1)
	}

	fmt.Printf("Analyzed %d files: %d succeeded, %d failed. Results in %s\n",
		summary.TotalFiles, summary.Successful, summary.Failed, *outputDir)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func buildAnalyzer(config *analyzer.Config, useAubio bool) *analyzer.Analyzer {
	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.TargetSampleRate = config.SampleRate

	stftParams := extract.DefaultSTFTExtractorParams()
	stftParams.FFTSize = config.FFTSize
	stftParams.HopSize = config.HopSize

	var profiles extract.PitchProfileExtractor = extract.NullPitchProfileExtractor{}
	if useAubio {
		profiles = extract.NewAubioExtractor()
	}

	return analyzer.NewWithBackends(
		config,
		transcode.NewDecoder(decoderConfig),
		extract.NewSTFTExtractorWithParams(stftParams),
		profiles,
	)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
