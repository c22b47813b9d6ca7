package whisper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// PreprocessAudio converts source into a mono PCM WAV at sampleRate, the
// input format the recognition engine handles best.
func PreprocessAudio(ctx context.Context, ffmpegBinary, source string, sampleRate int, dest string) error {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if sampleRate <= 0 {
		return fmt.Errorf("preprocess audio: invalid sample rate %d", sampleRate)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
	cmd := commandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg preprocess: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
