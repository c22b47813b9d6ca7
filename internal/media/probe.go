package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ProbeBinary is the default executable name resolved on PATH.
const ProbeBinary = "ffprobe"

// commandContext allows tests to intercept probe invocations.
var commandContext = exec.CommandContext

// Info describes the audio content of a single input file.
type Info struct {
	Path       string
	Container  string
	Codec      string
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitRate    int64
	Size       int64
}

// ffprobe reports most numbers as strings.
type probePayload struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// Probe runs ffprobe against path and summarizes the first audio stream.
// Files without one fail: a video container with no audio track has nothing
// to transcribe.
func Probe(ctx context.Context, binary, path string) (Info, error) {
	if strings.TrimSpace(binary) == "" {
		binary = ProbeBinary
	}
	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	}
	output, err := commandContext(ctx, binary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return Info{}, fmt.Errorf("ffprobe %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output for %s: %w", path, err)
	}

	info := Info{
		Path:      path,
		Container: payload.Format.FormatName,
		Duration:  parseSeconds(payload.Format.Duration),
		Size:      parseInt(payload.Format.Size),
		BitRate:   parseInt(payload.Format.BitRate),
	}
	for _, stream := range payload.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		info.Codec = stream.CodecName
		info.SampleRate = int(parseInt(stream.SampleRate))
		info.Channels = stream.Channels
		if info.Duration == 0 {
			info.Duration = parseSeconds(stream.Duration)
		}
		if info.BitRate == 0 {
			info.BitRate = parseInt(stream.BitRate)
		}
		break
	}
	if info.Codec == "" {
		return Info{}, fmt.Errorf("%s: no audio stream found", path)
	}
	return info, nil
}

func parseSeconds(value string) time.Duration {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func parseInt(value string) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
