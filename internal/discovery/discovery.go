package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scribe/internal/services"
)

// AudioJob is one discovered input, consumed read-only by the batch runner.
type AudioJob struct {
	// SourcePath is the canonical absolute path of the audio file.
	SourcePath string
	// Ordinal is the 1-based position within the run, stable across platforms.
	Ordinal int
	// BaseName is the file name without extension, used for artifact naming.
	BaseName string
}

// Discover resolves inputPath into ordered audio jobs. A missing path is an
// input error; a single file with an unrecognized extension is a format
// error. Directory scans silently skip non-matching files.
func Discover(inputPath string, recursive bool, supportedExtensions []string) ([]AudioJob, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, services.Wrap(services.ErrInputNotFound, "discovery", "resolve", "no input path provided", nil)
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrInputNotFound, "discovery", "resolve", fmt.Sprintf("input path %q does not exist", inputPath), nil)
		}
		return nil, services.Wrap(services.ErrIO, "discovery", "resolve", "stat input path", err)
	}

	extensions := normalizeExtensions(supportedExtensions)

	if !info.IsDir() {
		if !matchesExtension(inputPath, extensions) {
			return nil, services.Wrap(services.ErrUnsupportedFormat, "discovery", "resolve",
				fmt.Sprintf("unsupported extension %q for %q", filepath.Ext(inputPath), inputPath), nil)
		}
		canonical, err := canonicalPath(inputPath)
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "discovery", "resolve", "canonicalize input path", err)
		}
		return []AudioJob{newJob(canonical, 1)}, nil
	}

	candidates, err := scanDirectory(inputPath, recursive, extensions)
	if err != nil {
		return nil, err
	}

	return orderJobs(candidates), nil
}

func scanDirectory(dir string, recursive bool, extensions map[string]struct{}) ([]string, error) {
	var paths []string

	if recursive {
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			if matchesExtension(path, extensions) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "discovery", "scan", "walk input directory", err)
		}
		return paths, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "discovery", "scan", "read input directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if matchesExtension(path, extensions) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// orderJobs deduplicates by canonical path and assigns ordinals in the final
// lexicographic order.
func orderJobs(paths []string) []AudioJob {
	seen := make(map[string]struct{}, len(paths))
	canonical := make([]string, 0, len(paths))
	for _, path := range paths {
		resolved, err := canonicalPath(path)
		if err != nil {
			// Broken symlink or a file removed mid-scan: skip rather than fail.
			continue
		}
		if _, duplicate := seen[resolved]; duplicate {
			continue
		}
		seen[resolved] = struct{}{}
		canonical = append(canonical, resolved)
	}

	sort.Strings(canonical)

	jobs := make([]AudioJob, 0, len(canonical))
	for i, path := range canonical {
		jobs = append(jobs, newJob(path, i+1))
	}
	return jobs
}

func newJob(canonical string, ordinal int) AudioJob {
	base := filepath.Base(canonical)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return AudioJob{SourcePath: canonical, Ordinal: ordinal, BaseName: stem}
}

func canonicalPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func normalizeExtensions(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		set[normalized] = struct{}{}
	}
	return set
}

func matchesExtension(path string, extensions map[string]struct{}) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := extensions[ext]
	return ok
}
