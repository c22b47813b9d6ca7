package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"scribe/internal/batch"
	"scribe/internal/config"
	"scribe/internal/discovery"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
	"scribe/internal/testsupport"
)

// scriptedEngine returns canned outcomes keyed by source path so tests can
// exercise the batch loop without a real recognition binary.
type scriptedEngine struct {
	results map[string]whisper.Result
	errs    map[string]error
	calls   []string
}

func (s *scriptedEngine) Transcribe(_ context.Context, sourcePath string) (whisper.Result, error) {
	s.calls = append(s.calls, sourcePath)
	if err, ok := s.errs[sourcePath]; ok {
		return whisper.Result{}, err
	}
	if result, ok := s.results[sourcePath]; ok {
		return result, nil
	}
	return whisper.Result{Text: "ok"}, nil
}

func makeJobs(paths ...string) []discovery.AudioJob {
	jobs := make([]discovery.AudioJob, 0, len(paths))
	for i, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		jobs = append(jobs, discovery.AudioJob{SourcePath: path, Ordinal: i + 1, BaseName: base})
	}
	return jobs
}

func textParams(outputRoot string) batch.Params {
	return batch.Params{
		InputPath:   "/audio",
		OutputRoot:  outputRoot,
		OutputMode:  config.OutputModeText,
		Device:      "cpu",
		ComputeType: "float32",
	}
}

func TestRunIsolatesEngineFailures(t *testing.T) {
	engine := &scriptedEngine{
		results: map[string]whisper.Result{
			"/audio/a.wav": {Text: "alpha"},
			"/audio/c.wav": {Text: "gamma"},
		},
		errs: map[string]error{
			"/audio/b.wav": errors.New("decoder exploded"),
		},
	}
	runner := batch.NewRunner(engine, nil, nil)
	outputRoot := filepath.Join(t.TempDir(), "out")

	report, err := runner.Run(context.Background(), textParams(outputRoot),
		makeJobs("/audio/a.wav", "/audio/b.wav", "/audio/c.wav"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", report.Succeeded, report.Failed)
	}
	if report.Ok() {
		t.Fatal("expected Ok to be false with a failed job")
	}
	if len(report.Jobs) != 3 {
		t.Fatalf("job count = %d, want 3", len(report.Jobs))
	}
	wantStatuses := []batch.Status{batch.StatusSucceeded, batch.StatusFailed, batch.StatusSucceeded}
	for i, want := range wantStatuses {
		if got := report.Jobs[i].Outcome.Status; got != want {
			t.Fatalf("job %d status = %q, want %q", i, got, want)
		}
	}
	if got := strings.Join(engine.calls, ","); got != "/audio/a.wav,/audio/b.wav,/audio/c.wav" {
		t.Fatalf("engine call order = %q", got)
	}

	failure := report.Jobs[1].Outcome
	if failure.ErrorKind != "engine" {
		t.Fatalf("ErrorKind = %q, want %q", failure.ErrorKind, "engine")
	}
	if !strings.Contains(failure.Message, "decoder exploded") {
		t.Fatalf("failure message %q does not carry the engine error", failure.Message)
	}

	data, err := os.ReadFile(filepath.Join(report.OutputDir, "a.txt"))
	if err != nil {
		t.Fatalf("read transcript for first job: %v", err)
	}
	if string(data) != "alpha" {
		t.Fatalf("transcript = %q, want %q", string(data), "alpha")
	}
	if _, err := os.Stat(filepath.Join(report.OutputDir, "b.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no transcript for the failed job, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(report.OutputDir, "c.txt")); err != nil {
		t.Fatalf("expected transcript for third job: %v", err)
	}
}

func TestRunEmptyBatchCreatesRunDir(t *testing.T) {
	runner := batch.NewRunner(&scriptedEngine{}, nil, nil)
	outputRoot := filepath.Join(t.TempDir(), "out")

	report, err := runner.Run(context.Background(), textParams(outputRoot), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Jobs) != 0 || report.Succeeded != 0 || report.Failed != 0 {
		t.Fatalf("expected an empty report, got %+v", report)
	}
	if !report.Ok() {
		t.Fatal("expected Ok to be true for an empty batch")
	}
	if filepath.Dir(report.OutputDir) != outputRoot {
		t.Fatalf("run dir %s not under output root %s", report.OutputDir, outputRoot)
	}
	if filepath.Base(report.OutputDir) != report.RunID {
		t.Fatalf("run dir %s not named by run id %s", report.OutputDir, report.RunID)
	}
	entries, err := os.ReadDir(report.OutputDir)
	if err != nil {
		t.Fatalf("read run dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty run dir, found %d entries", len(entries))
	}
}

func TestRunSegmentsModeWritesTimingArtifacts(t *testing.T) {
	engine := &scriptedEngine{
		results: map[string]whisper.Result{
			"/audio/a.wav": {
				Text:     "hello world",
				Segments: []whisper.Segment{{Text: "hello world", Start: 0, End: 1.5}},
			},
		},
	}
	runner := batch.NewRunner(engine, nil, nil)
	params := textParams(filepath.Join(t.TempDir(), "out"))
	params.OutputMode = config.OutputModeSegments

	report, err := runner.Run(context.Background(), params, makeJobs("/audio/a.wav"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	artifacts := report.Jobs[0].Outcome.Artifacts
	if len(artifacts) != 2 {
		t.Fatalf("artifact count = %d, want 2", len(artifacts))
	}
	if _, err := os.Stat(filepath.Join(report.OutputDir, "a_timestamps.json")); err != nil {
		t.Fatalf("expected timing artifact: %v", err)
	}
}

func TestRunCapturesArtifactWriteFailures(t *testing.T) {
	// The base name points into a directory that does not exist inside the
	// run dir, so persisting the transcript fails while the engine call
	// itself succeeds.
	jobs := []discovery.AudioJob{
		{SourcePath: "/audio/a.wav", Ordinal: 1, BaseName: "missing/a"},
		{SourcePath: "/audio/b.wav", Ordinal: 2, BaseName: "b"},
	}
	runner := batch.NewRunner(&scriptedEngine{}, nil, nil)

	report, err := runner.Run(context.Background(), textParams(filepath.Join(t.TempDir(), "out")), jobs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", report.Succeeded, report.Failed)
	}
	failure := report.Jobs[0].Outcome
	if failure.Status != batch.StatusFailed {
		t.Fatalf("first job status = %q, want failed", failure.Status)
	}
	if failure.ErrorKind != "io" {
		t.Fatalf("ErrorKind = %q, want %q", failure.ErrorKind, "io")
	}
	if _, err := os.Stat(filepath.Join(report.OutputDir, "b.txt")); err != nil {
		t.Fatalf("expected second job to persist: %v", err)
	}
}

type cancelingEngine struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancelingEngine) Transcribe(context.Context, string) (whisper.Result, error) {
	c.calls++
	c.cancel()
	return whisper.Result{Text: "partial"}, nil
}

func TestRunStopsBetweenJobsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := &cancelingEngine{cancel: cancel}
	runner := batch.NewRunner(engine, nil, nil)

	report, err := runner.Run(ctx, textParams(filepath.Join(t.TempDir(), "out")),
		makeJobs("/audio/a.wav", "/audio/b.wav", "/audio/c.wav"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if engine.calls != 1 {
		t.Fatalf("engine calls = %d, want 1", engine.calls)
	}
	if len(report.Jobs) != 1 || report.Succeeded != 1 {
		t.Fatalf("expected one completed job, got %+v", report)
	}
	if _, err := os.Stat(filepath.Join(report.OutputDir, "a.txt")); err != nil {
		t.Fatalf("completed artifact should remain on disk: %v", err)
	}
}

func TestRunFailsWhenLockHeld(t *testing.T) {
	outputRoot := filepath.Join(t.TempDir(), "out")
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(filepath.Join(outputRoot, batch.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !locked {
		t.Fatal("expected to acquire the lock")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			t.Errorf("Unlock failed: %v", err)
		}
	}()

	runner := batch.NewRunner(&scriptedEngine{}, nil, nil)
	_, err = runner.Run(context.Background(), textParams(outputRoot), makeJobs("/audio/a.wav"))
	if err == nil {
		t.Fatal("expected an error while the lock is held")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("err = %v, want io classification", err)
	}
	if !strings.Contains(err.Error(), "another run") {
		t.Fatalf("err = %q, want mention of the concurrent run", err)
	}

	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the lock file in the output root, found %d entries", len(entries))
	}
}

func TestRunRequiresEngine(t *testing.T) {
	runner := batch.NewRunner(nil, nil, nil)
	_, err := runner.Run(context.Background(), textParams(t.TempDir()), nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestRunRecordsLedgerRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	engine := &scriptedEngine{
		errs: map[string]error{"/audio/b.wav": errors.New("decoder exploded")},
	}
	runner := batch.NewRunner(engine, store, nil)
	params := textParams(cfg.Audio.OutputDir)

	report, err := runner.Run(context.Background(), params, makeJobs("/audio/a.wav", "/audio/b.wav"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ctx := context.Background()
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("run count = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.RunID != report.RunID {
		t.Fatalf("ledger RunID = %q, want %q", run.RunID, report.RunID)
	}
	if run.Status != "completed" {
		t.Fatalf("ledger status = %q, want completed", run.Status)
	}
	if run.Succeeded != 1 || run.Failed != 1 {
		t.Fatalf("ledger counts = %d/%d, want 1/1", run.Succeeded, run.Failed)
	}
	if run.Device != "cpu" || run.OutputMode != config.OutputModeText {
		t.Fatalf("unexpected run settings: %+v", run)
	}

	jobs, err := store.ListJobs(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("job count = %d, want 2", len(jobs))
	}
	if jobs[0].Status != "succeeded" || jobs[1].Status != "failed" {
		t.Fatalf("job statuses = %q/%q", jobs[0].Status, jobs[1].Status)
	}
	if jobs[1].ErrorKind != "engine" {
		t.Fatalf("ErrorKind = %q, want engine", jobs[1].ErrorKind)
	}
	if jobs[0].CorrelationID == "" {
		t.Fatal("expected a correlation id on recorded jobs")
	}
}
