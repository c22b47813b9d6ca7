package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"scribe/internal/artifacts"
	"scribe/internal/discovery"
	"scribe/internal/fileutil"
	"scribe/internal/ledger"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
)

// LockFileName guards an output root against concurrent runs.
const LockFileName = ".scribe.lock"

// Params fixes the run-level settings recorded in the report and the ledger.
// They are resolved before the run starts and never change mid-run.
type Params struct {
	InputPath   string
	OutputRoot  string
	OutputMode  string
	Device      string
	ComputeType string
}

// Runner executes batch runs against a single engine client. The client and
// its loaded model live for the whole run and are reused across jobs.
type Runner struct {
	engine whisper.Client
	store  *ledger.Store
	logger *slog.Logger
}

// NewRunner wires a runner. The ledger store may be nil to skip run history;
// a nil logger disables logging.
func NewRunner(engine whisper.Client, store *ledger.Store, logger *slog.Logger) *Runner {
	return &Runner{
		engine: engine,
		store:  store,
		logger: logging.NewComponentLogger(logger, "batch"),
	}
}

// Run processes jobs in order and returns the finalized report. Fatal errors
// (missing engine, lock contention, run directory collision) abort before any
// job executes; engine and artifact failures are captured per job and never
// stop the batch. Cancellation is honored between jobs: completed artifacts
// stay on disk and the report covers only the jobs that finished.
func (r *Runner) Run(ctx context.Context, params Params, jobs []discovery.AudioJob) (Report, error) {
	started := time.Now()
	report := Report{RunID: artifacts.NewRunID(started), StartedAt: started}

	if r.engine == nil {
		return report, services.Wrap(services.ErrConfiguration, "batch", "run", "engine client not configured", nil)
	}
	if strings.TrimSpace(params.OutputRoot) == "" {
		return report, services.Wrap(services.ErrConfiguration, "batch", "run", "output root must be set", nil)
	}

	if err := fileutil.EnsureDir(params.OutputRoot); err != nil {
		return report, services.Wrap(services.ErrIO, "batch", "prepare output root", "", err)
	}

	lock := flock.New(filepath.Join(params.OutputRoot, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return report, services.Wrap(services.ErrIO, "batch", "acquire run lock", "", err)
	}
	if !locked {
		return report, services.Wrap(services.ErrIO, "batch", "acquire run lock",
			fmt.Sprintf("another run is writing to %s", params.OutputRoot), nil)
	}

	runCtx := services.WithRunID(ctx, report.RunID)
	// Ledger writes survive cancellation so interrupted runs stay visible in
	// run history.
	ledgerCtx := context.WithoutCancel(runCtx)
	logger := logging.WithContext(runCtx, r.logger)

	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	runDir, err := artifacts.PrepareRun(params.OutputRoot, report.RunID)
	if err != nil {
		return report, err
	}
	report.OutputDir = runDir

	runRowID := r.beginLedgerRun(ledgerCtx, logger, params, report.RunID, runDir, started)

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("output_dir", runDir),
		logging.String("device", params.Device),
		logging.String("compute_type", params.ComputeType),
		logging.String("output_mode", params.OutputMode),
		logging.Int("job_count", len(jobs)),
	)

	var interrupted error
	for _, job := range jobs {
		if err := runCtx.Err(); err != nil {
			logger.Warn("run interrupted; remaining jobs skipped",
				logging.String(logging.FieldEventType, "run_interrupted"),
				logging.Int("completed", len(report.Jobs)),
				logging.Int("skipped", len(jobs)-len(report.Jobs)),
			)
			interrupted = err
			break
		}

		jobReport := r.processJob(runCtx, params.OutputMode, runDir, job)
		report.Jobs = append(report.Jobs, jobReport)
		switch jobReport.Outcome.Status {
		case StatusSucceeded:
			report.Succeeded++
		case StatusFailed:
			report.Failed++
		}
		r.recordLedgerJob(ledgerCtx, logger, runRowID, jobReport)
	}

	report.FinishedAt = time.Now()
	r.finishLedgerRun(ledgerCtx, logger, runRowID, report)

	if interrupted == nil {
		logger.Info("run completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("succeeded", report.Succeeded),
			logging.Int("failed", report.Failed),
			logging.Duration("run_duration", report.Duration()),
		)
	}
	return report, interrupted
}

func (r *Runner) processJob(ctx context.Context, outputMode, runDir string, job discovery.AudioJob) JobReport {
	start := time.Now()
	correlationID := uuid.NewString()

	jobCtx := services.WithJobOrdinal(ctx, job.Ordinal)
	jobCtx = services.WithSource(jobCtx, job.SourcePath)
	jobCtx = services.WithRequestID(jobCtx, correlationID)
	logger := logging.WithContext(jobCtx, r.logger)

	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))

	result, err := r.engine.Transcribe(jobCtx, job.SourcePath)
	if err != nil {
		return r.failJob(logger, job, services.Wrap(nil, "whisper", "transcribe", "", err), start, correlationID)
	}

	written, err := artifacts.WriteResult(runDir, job.BaseName, result, outputMode)
	if err != nil {
		return r.failJob(logger, job, err, start, correlationID)
	}

	duration := time.Since(start)
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("artifact_count", len(written)),
		logging.Duration("job_duration", duration),
	)
	return JobReport{
		Job: job,
		Outcome: Outcome{
			Status:        StatusSucceeded,
			Result:        result,
			Artifacts:     written,
			Duration:      duration,
			CorrelationID: correlationID,
		},
	}
}

func (r *Runner) failJob(logger *slog.Logger, job discovery.AudioJob, err error, start time.Time, correlationID string) JobReport {
	duration := time.Since(start)
	kind := services.Kind(err)
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.Error(err),
		logging.String("error_kind", kind),
		logging.String(logging.FieldErrorHint, "remaining jobs continue; inspect the source file and engine output"),
		logging.Duration("job_duration", duration),
	)
	return JobReport{
		Job: job,
		Outcome: Outcome{
			Status:        StatusFailed,
			ErrorKind:     kind,
			Message:       err.Error(),
			Duration:      duration,
			CorrelationID: correlationID,
		},
	}
}

// Ledger writes are best-effort: run history must never take down a run that
// is otherwise producing artifacts.

func (r *Runner) beginLedgerRun(ctx context.Context, logger *slog.Logger, params Params, runID, runDir string, started time.Time) int64 {
	if r.store == nil {
		return 0
	}
	id, err := r.store.BeginRun(ctx, ledger.Run{
		RunID:       runID,
		InputPath:   params.InputPath,
		OutputDir:   runDir,
		Device:      params.Device,
		ComputeType: params.ComputeType,
		OutputMode:  params.OutputMode,
		StartedAt:   started,
	})
	if err != nil {
		logger.Warn("failed to record run in ledger",
			logging.Error(err),
			logging.String(logging.FieldEventType, "ledger_write_failed"),
		)
		return 0
	}
	return id
}

func (r *Runner) recordLedgerJob(ctx context.Context, logger *slog.Logger, runRowID int64, jobReport JobReport) {
	if r.store == nil || runRowID == 0 {
		return
	}
	err := r.store.RecordJob(ctx, runRowID, ledger.Job{
		Ordinal:       jobReport.Job.Ordinal,
		SourcePath:    jobReport.Job.SourcePath,
		BaseName:      jobReport.Job.BaseName,
		Status:        string(jobReport.Outcome.Status),
		ErrorKind:     jobReport.Outcome.ErrorKind,
		ErrorMessage:  jobReport.Outcome.Message,
		CorrelationID: jobReport.Outcome.CorrelationID,
		Duration:      jobReport.Outcome.Duration,
	})
	if err != nil {
		logger.Warn("failed to record job in ledger",
			logging.Error(err),
			logging.String(logging.FieldEventType, "ledger_write_failed"),
			logging.Int(logging.FieldJobOrdinal, jobReport.Job.Ordinal),
		)
	}
}

func (r *Runner) finishLedgerRun(ctx context.Context, logger *slog.Logger, runRowID int64, report Report) {
	if r.store == nil || runRowID == 0 {
		return
	}
	if err := r.store.FinishRun(ctx, runRowID, report.Succeeded, report.Failed, report.FinishedAt); err != nil {
		logger.Warn("failed to finalize run in ledger",
			logging.Error(err),
			logging.String(logging.FieldEventType, "ledger_write_failed"),
		)
	}
}
