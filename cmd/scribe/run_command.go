package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/batch"
	"scribe/internal/config"
	"scribe/internal/device"
	"scribe/internal/discovery"
	"scribe/internal/ledger"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir    string
		languageFlag string
		beamSize     int
		deviceFlag   string
		timestamps   bool
		words        bool
		recursive    bool
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Transcribe an audio file or every supported file under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			overrides := config.Overrides{
				OutputDir: outputDir,
				Language:  languageFlag,
				Device:    deviceFlag,
			}
			if len(args) == 1 {
				overrides.InputPath = args[0]
			}
			if cmd.Flags().Changed("beam-size") {
				overrides.BeamSize = &beamSize
			}
			if cmd.Flags().Changed("recursive") {
				overrides.Recursive = &recursive
			}
			if err := cfg.Apply(overrides); err != nil {
				return err
			}

			mode, err := config.ResolveOutputMode(cfg.ASR.OutputMode, timestamps, words)
			if err != nil {
				return err
			}
			cfg.ASR.OutputMode = mode

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			logging.CleanupOldLogs(logger, cfg.Logging.Dir, cfg.Logging.RetentionDays)

			inputPath := strings.TrimSpace(cfg.Audio.InputPath)
			if inputPath == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "resolve input",
					"no input path given; pass one as an argument or set audio.input_path", nil)
			}

			jobs, err := discovery.Discover(inputPath, cfg.Audio.Recursive, cfg.Audio.SupportedFormats)
			if err != nil {
				return err
			}

			if err := checkRunBinaries(cfg); err != nil {
				return err
			}

			request, err := device.ParseRequest(cfg.Device.ASR)
			if err != nil {
				return err
			}
			profile := device.Select(request, device.Detect(cmd.Context()), cfg.ASR.ComputeType)
			if profile.Fallback {
				logger.Warn("requested device unavailable; falling back to cpu",
					logging.String("requested", request.String()),
					logging.String("reason", profile.Reason),
				)
				fmt.Fprintf(cmd.ErrOrStderr(), "Requested %s unavailable (%s); running on cpu at %s\n",
					request, profile.Reason, profile.ComputeType)
			}

			engine := whisper.NewCLI(whisper.Config{
				ModelDir:       cfg.Model.Dir,
				Language:       cfg.ASR.Language,
				BeamSize:       cfg.ASR.BeamSize,
				ComputeType:    profile.ComputeType,
				Device:         string(profile.Device.Kind),
				DeviceIndex:    profile.Device.Index,
				VADFilter:      cfg.ASR.VADFilter,
				InitialPrompt:  cfg.ASR.InitialPrompt,
				WordTimestamps: mode == config.OutputModeWords,
				Preprocess:     cfg.Audio.Preprocess,
				SampleRate:     cfg.Audio.SampleRate,
			}, whisper.WithBinary(cfg.UvxBinary()), whisper.WithFFmpegBinary(cfg.FFmpegBinary()))

			store, err := ledger.Open(cfg)
			if err != nil {
				logger.Warn("run history unavailable; continuing without it", logging.Error(err))
				store = nil
			} else {
				defer store.Close()
			}

			notifier := notifications.NewService(cfg)
			if len(jobs) > 0 {
				if err := notifier.RunStarted(cmd.Context(), inputPath, len(jobs)); err != nil {
					logger.Warn("notification failed", logging.Error(err))
				}
			}

			runner := batch.NewRunner(engine, store, logger)
			report, runErr := runner.Run(cmd.Context(), batch.Params{
				InputPath:   inputPath,
				OutputRoot:  cfg.Audio.OutputDir,
				OutputMode:  mode,
				Device:      profile.Device.String(),
				ComputeType: profile.ComputeType,
			}, jobs)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}

			interrupted := runErr != nil
			if len(jobs) > 0 {
				notifyRun(cmd.Context(), notifier, logger, report, interrupted, len(jobs))
			}
			if jsonOutput {
				if err := writeJSON(cmd, buildRunView(report, interrupted)); err != nil {
					return err
				}
			} else {
				renderRunReport(cmd.OutOrStdout(), report, interrupted)
			}
			if runErr != nil {
				return runErr
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", report.Failed, len(report.Jobs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output root directory")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Recognition language code, or 'auto' to detect")
	cmd.Flags().IntVarP(&beamSize, "beam-size", "b", 0, "Decoder beam size")
	cmd.Flags().StringVar(&deviceFlag, "device", "", "Compute device (cpu, cuda, or cuda:N)")
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "Write segment-level timing artifacts")
	cmd.Flags().BoolVar(&words, "words", false, "Write word-level timing artifacts")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "Recurse into subdirectories when input is a directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run report as JSON")

	return cmd
}

// checkRunBinaries verifies the external tools a run shells out to before any
// job starts, so a missing engine fails once instead of once per file.
func checkRunBinaries(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.UvxBinary()); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "check dependencies",
			fmt.Sprintf("%s not found in PATH; install uv to run the recognition engine", cfg.UvxBinary()), nil)
	}
	if cfg.Audio.Preprocess {
		if _, err := exec.LookPath(cfg.FFmpegBinary()); err != nil {
			return services.Wrap(services.ErrConfiguration, "cli", "check dependencies",
				fmt.Sprintf("%s not found in PATH; install FFmpeg or disable audio.preprocess", cfg.FFmpegBinary()), nil)
		}
	}
	return nil
}

// notifyRun publishes the final run state. A lost push message only warns; it
// never changes the run's outcome.
func notifyRun(ctx context.Context, notifier notifications.Service, logger *slog.Logger, report batch.Report, interrupted bool, total int) {
	// The interrupted path arrives here with a canceled context.
	ctx = context.WithoutCancel(ctx)
	var err error
	if interrupted {
		completed := report.Succeeded + report.Failed
		err = notifier.RunInterrupted(ctx, report.RunID, completed, total-completed)
	} else {
		err = notifier.RunCompleted(ctx, report.RunID, report.Succeeded, report.Failed, report.Duration())
	}
	if err != nil {
		logger.Warn("notification failed", logging.Error(err))
	}
}
