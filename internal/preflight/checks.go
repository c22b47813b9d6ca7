package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/device"
	"scribe/internal/services/whisper"
)

// CheckModelDir verifies the recognition model directory exists and holds
// model files. An empty directory usually means a download was interrupted.
func CheckModelDir(name, dir string) Result {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return Result{Name: name, Detail: "model.dir not configured"}
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", trimmed)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", trimmed, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", trimmed)}
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", trimmed, err)}
	}
	if len(entries) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: model directory is empty)", trimmed)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", trimmed, len(entries))}
}

// CheckInputPath verifies the configured input exists and is readable. Files
// and directories are both acceptable; format filtering happens during
// discovery.
func CheckInputPath(name, path string) Result {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(trimmed); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", trimmed)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", trimmed, err)}
	}
	if err := unix.Access(trimmed, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", trimmed, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", trimmed)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable and
// writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDir accepts a directory that either exists with read/write
// access or can be created under its nearest existing ancestor. Output and
// log directories are made on demand, so absence alone is not a failure.
func CheckCreatableDir(name, path string) Result {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(trimmed); err == nil {
		return CheckDirectoryAccess(name, trimmed)
	} else if !os.IsNotExist(err) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", trimmed, err)}
	}
	ancestor := nearestExistingDir(trimmed)
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", trimmed, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", trimmed)}
}

func nearestExistingDir(path string) string {
	dir := filepath.Dir(path)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// CheckSystemDeps evaluates the external binaries for the given config. The
// status command renders these; the run command checks only what the run
// actually needs.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	requirements := []deps.Requirement{
		{
			Name:        "uvx",
			Command:     cfg.UvxBinary(),
			Description: "Runs " + whisper.EnginePackage,
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Converts audio to mono PCM before recognition",
			Optional:    !cfg.Audio.Preprocess,
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Reads audio metadata for the inspect command",
			Optional:    true,
		},
		{
			Name:        "nvidia-smi",
			Command:     device.ProbeBinary,
			Description: "Probes accelerator availability",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
