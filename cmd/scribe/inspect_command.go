package main

import (
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/discovery"
	"scribe/internal/media"
	"scribe/internal/services"
)

type inspectFileView struct {
	Ordinal    int    `json:"ordinal"`
	Source     string `json:"source"`
	Container  string `json:"container,omitempty"`
	Codec      string `json:"codec,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	Error      string `json:"error,omitempty"`
}

type inspectView struct {
	InputPath string            `json:"input_path"`
	Probed    int               `json:"probed"`
	Failed    int               `json:"failed"`
	Files     []inspectFileView `json:"files"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect [input]",
		Short: "Probe audio inputs without transcribing them",
		Long: `Inspect discovers the audio files a run would pick up and reports their
container, codec, duration, and channel layout via ffprobe.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := cfg.Apply(config.Overrides{InputPath: args[0]}); err != nil {
					return err
				}
			}

			inputPath := strings.TrimSpace(cfg.Audio.InputPath)
			if inputPath == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "resolve input",
					"no input path given; pass one as an argument or set audio.input_path", nil)
			}

			if _, err := exec.LookPath(cfg.FFprobeBinary()); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "inspect",
					fmt.Sprintf("%s not found in PATH; install FFmpeg to inspect audio", cfg.FFprobeBinary()), nil)
			}

			jobs, err := discovery.Discover(inputPath, cfg.Audio.Recursive, cfg.Audio.SupportedFormats)
			if err != nil {
				return err
			}

			view := inspectView{InputPath: inputPath, Files: make([]inspectFileView, 0, len(jobs))}
			for _, job := range jobs {
				fileView := inspectFileView{Ordinal: job.Ordinal, Source: job.SourcePath}
				info, err := media.Probe(cmd.Context(), cfg.FFprobeBinary(), job.SourcePath)
				if err != nil {
					fileView.Error = err.Error()
					view.Failed++
				} else {
					fileView.Container = info.Container
					fileView.Codec = info.Codec
					fileView.DurationMS = info.Duration.Milliseconds()
					fileView.SampleRate = info.SampleRate
					fileView.Channels = info.Channels
					fileView.SizeBytes = info.Size
					view.Probed++
				}
				view.Files = append(view.Files, fileView)
			}

			if jsonOutput {
				return writeJSON(cmd, view)
			}
			renderInspectReport(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit inspection results as JSON")

	return cmd
}

func renderInspectReport(out io.Writer, view inspectView) {
	if len(view.Files) == 0 {
		fmt.Fprintf(out, "No supported audio files found under %s\n", view.InputPath)
		return
	}

	rows := make([][]string, 0, len(view.Files))
	var total time.Duration
	for _, file := range view.Files {
		if file.Error != "" {
			rows = append(rows, []string{
				strconv.Itoa(file.Ordinal), filepath.Base(file.Source), "-", "-", "-", "-", "-",
			})
			continue
		}
		duration := time.Duration(file.DurationMS) * time.Millisecond
		total += duration
		rows = append(rows, []string{
			strconv.Itoa(file.Ordinal),
			filepath.Base(file.Source),
			formatClock(duration),
			file.Codec,
			formatSampleRate(file.SampleRate),
			strconv.Itoa(file.Channels),
			formatByteSize(file.SizeBytes),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "File", "Duration", "Codec", "Rate", "Ch", "Size"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
	))

	for _, file := range view.Files {
		if file.Error != "" {
			fmt.Fprintf(out, "Failed to probe %s: %s\n", filepath.Base(file.Source), truncateDetail(file.Error, 120))
		}
	}

	summary := fmt.Sprintf("Inspected %d files (%s of audio)", view.Probed, formatClock(total))
	if view.Failed > 0 {
		summary += fmt.Sprintf("; %d could not be probed", view.Failed)
	}
	fmt.Fprintln(out, summary)
}

// formatClock renders an audio duration the way players do: M:SS, with an
// hour field only when needed.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func formatSampleRate(rate int) string {
	if rate <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d Hz", rate)
}

func formatByteSize(n int64) string {
	const unit = 1024
	if n <= 0 {
		return "-"
	}
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
