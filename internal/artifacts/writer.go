package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
)

// RunIDFormat is the start-time layout naming each run directory.
const RunIDFormat = "20060102_150405"

// NewRunID derives the run identifier from the run's start time.
func NewRunID(start time.Time) string {
	return start.Format(RunIDFormat)
}

// PrepareRun creates outputRoot/<runID> and returns its path. A directory
// that already carries the identifier aborts the run instead of being
// reused, so artifacts from distinct runs never mix.
func PrepareRun(outputRoot, runID string) (string, error) {
	if strings.TrimSpace(outputRoot) == "" {
		return "", services.Wrap(services.ErrIO, "artifacts", "prepare run", "output root required", nil)
	}
	if strings.TrimSpace(runID) == "" {
		return "", services.Wrap(services.ErrIO, "artifacts", "prepare run", "run identifier required", nil)
	}
	if err := fileutil.EnsureDir(outputRoot); err != nil {
		return "", services.Wrap(services.ErrIO, "artifacts", "prepare run", "create output root", err)
	}
	runDir := filepath.Join(outputRoot, runID)
	if err := os.Mkdir(runDir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", services.Wrap(services.ErrIO, "artifacts", "prepare run",
				fmt.Sprintf("run directory %s already exists", runDir), nil)
		}
		return "", services.Wrap(services.ErrIO, "artifacts", "prepare run", "create run directory", err)
	}
	return runDir, nil
}

// WriteResult persists the artifacts for one successful job into runDir and
// returns the written paths. The plain transcript is always written; the
// timing artifact follows the run's output mode.
func WriteResult(runDir, baseName string, result whisper.Result, outputMode string) ([]string, error) {
	if strings.TrimSpace(baseName) == "" {
		return nil, services.Wrap(services.ErrIO, "artifacts", "write result", "base name required", nil)
	}

	var written []string

	textPath := filepath.Join(runDir, baseName+".txt")
	if err := fileutil.WriteFileAtomic(textPath, []byte(result.Text), 0o644); err != nil {
		return written, services.Wrap(services.ErrIO, "artifacts", "write result",
			fmt.Sprintf("write transcript %s", textPath), err)
	}
	written = append(written, textPath)

	switch outputMode {
	case config.OutputModeSegments:
		path := filepath.Join(runDir, baseName+"_timestamps.json")
		segments := result.Segments
		if segments == nil {
			segments = []whisper.Segment{}
		}
		if err := writeJSON(path, segments); err != nil {
			return written, err
		}
		written = append(written, path)
	case config.OutputModeWords:
		path := filepath.Join(runDir, baseName+"_words.json")
		words := result.Words
		if words == nil {
			words = []whisper.Word{}
		}
		if err := writeJSON(path, words); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

// LoadSegments reads a segment timing artifact back into memory.
func LoadSegments(path string) ([]whisper.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var segments []whisper.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("parse segment artifact: %w", err)
	}
	return segments, nil
}

// writeJSON renders payload with two-space indentation and raw UTF-8, the
// layout downstream tooling expects of timing artifacts.
func writeJSON(path string, payload any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return services.Wrap(services.ErrIO, "artifacts", "write result", "encode timing artifact", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrIO, "artifacts", "write result",
			fmt.Sprintf("write timing artifact %s", path), err)
	}
	return nil
}
