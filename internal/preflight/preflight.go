package preflight

import (
	"strings"

	"scribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config. The input path
// check only runs when a path is configured; a run started with an explicit
// positional argument validates that argument during discovery instead.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckModelDir("Model directory", cfg.Model.Dir),
	}
	if strings.TrimSpace(cfg.Audio.InputPath) != "" {
		results = append(results, CheckInputPath("Input path", cfg.Audio.InputPath))
	}
	results = append(results,
		CheckCreatableDir("Output root", cfg.Audio.OutputDir),
		CheckCreatableDir("Log directory", cfg.Logging.Dir),
	)
	return results
}

// Passed reports whether every result in the set passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
