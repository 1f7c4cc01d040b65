package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/harmonia/logging"
)

// DefaultExtensions lists the audio file extensions accepted by default
var DefaultExtensions = []string{".wav", ".mp3", ".flac", ".m4a", ".ogg"}

// BatchOptions configures one batch run
type BatchOptions struct {
	InputDir   string   `json:"input_dir"`
	OutputDir  string   `json:"output_dir"`
	Extensions []string `json:"extensions"` // Defaults to DefaultExtensions when empty
}

// AnalyzeDirectory analyzes every matching file under InputDir and writes
// one result document per file plus a batch summary into OutputDir. A
// failing file yields a failure record and the batch continues; the
// returned error covers only setup problems (unreadable input directory,
// unwritable output directory).
func (a *Analyzer) AnalyzeDirectory(opts BatchOptions) (*BatchSummary, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "batch",
		"input":     opts.InputDir,
		"output":    opts.OutputDir,
	})

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	files, err := listAudioFiles(opts.InputDir, extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := &BatchSummary{
		RunID:             uuid.NewString(),
		AnalysisTimestamp: time.Now().Format(time.RFC3339),
		Results:           make([]*FileResult, 0, len(files)),
	}

	logger.Info("Starting batch analysis", logging.Fields{
		"run_id": summary.RunID,
		"files":  len(files),
	})

	for _, file := range files {
		result := a.AnalyzeFile(file)

		summary.Results = append(summary.Results, result)
		summary.TotalFiles++
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}

		outPath := filepath.Join(opts.OutputDir, resultFileName(file))
		if err := result.WriteJSON(outPath); err != nil {
			logger.Error(err, "Failed to write result document", logging.Fields{
				"file": file,
			})
		}
	}

	summaryPath := filepath.Join(opts.OutputDir, "batch_analysis_summary.json")
	if err := summary.WriteJSON(summaryPath); err != nil {
		logger.Error(err, "Failed to write batch summary")
	}

	logger.Info("Batch analysis completed", logging.Fields{
		"total":      summary.TotalFiles,
		"successful": summary.Successful,
		"failed":     summary.Failed,
	})

	return summary, nil
}

// listAudioFiles returns the sorted paths of directly contained files whose
// extension matches, case-insensitively.
func listAudioFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	accepted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		accepted[strings.ToLower(ext)] = true
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if accepted[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

// resultFileName derives the per-file document name from the input stem.
func resultFileName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_analysis.json"
}
