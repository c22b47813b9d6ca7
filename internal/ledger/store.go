package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
)

// DBFileName is the ledger database file kept under the output root.
const DBFileName = "scribe.db"

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
)

// Run is one recorded batch run.
type Run struct {
	ID          int64
	RunID       string
	InputPath   string
	OutputDir   string
	Device      string
	ComputeType string
	OutputMode  string
	Status      string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Succeeded   int
	Failed      int
}

// Job is one recorded job outcome within a run.
type Job struct {
	ID            int64
	RunRowID      int64
	Ordinal       int
	SourcePath    string
	BaseName      string
	Status        string
	ErrorKind     string
	ErrorMessage  string
	CorrelationID string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the ledger database under the configured
// output root.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return openPath(filepath.Join(cfg.Audio.OutputDir, DBFileName))
}

func openPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the ledger database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// BeginRun inserts a runs row in the running state and returns its row id.
func (s *Store) BeginRun(ctx context.Context, run Run) (int64, error) {
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (
            run_id, input_path, output_dir, device, compute_type,
            output_mode, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		nullableString(run.InputPath),
		run.OutputDir,
		run.Device,
		run.ComputeType,
		run.OutputMode,
		RunStatusRunning,
		started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// RecordJob inserts a jobs row for one completed job.
func (s *Store) RecordJob(ctx context.Context, runRowID int64, job Job) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            run_id, ordinal, source_path, base_name, status,
            error_kind, error_message, correlation_id, duration_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runRowID,
		job.Ordinal,
		job.SourcePath,
		job.BaseName,
		job.Status,
		nullableString(job.ErrorKind),
		nullableString(job.ErrorMessage),
		nullableString(job.CorrelationID),
		job.Duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// FinishRun finalizes a runs row with its summary counts.
func (s *Store) FinishRun(ctx context.Context, runRowID int64, succeeded, failed int, finishedAt time.Time) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET status = ?, succeeded = ?, failed = ?, finished_at = ? WHERE id = ?`,
		RunStatusCompleted,
		succeeded,
		failed,
		finishedAt.UTC().Format(time.RFC3339Nano),
		runRowID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

const runColumns = "id, run_id, input_path, output_dir, device, compute_type, output_mode, status, started_at, finished_at, succeeded, failed"

// GetRun fetches a run by row id, or nil when absent.
func (s *Store) GetRun(ctx context.Context, runRowID int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runRowID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first. A limit of zero or less returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const jobColumns = "id, run_id, ordinal, source_path, base_name, status, error_kind, error_message, correlation_id, duration_ms, created_at"

// ListJobs returns a run's jobs in processing order.
func (s *Store) ListJobs(ctx context.Context, runRowID int64) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE run_id = ? ORDER BY ordinal`, runRowID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Clear removes all recorded runs and their jobs.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id          int64
		runID       string
		inputPath   sql.NullString
		outputDir   string
		device      string
		computeType string
		outputMode  string
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		succeeded   int
		failed      int
	)
	if err := scanner.Scan(
		&id,
		&runID,
		&inputPath,
		&outputDir,
		&device,
		&computeType,
		&outputMode,
		&status,
		&startedRaw,
		&finishedRaw,
		&succeeded,
		&failed,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:          id,
		RunID:       runID,
		InputPath:   inputPath.String,
		OutputDir:   outputDir,
		Device:      device,
		ComputeType: computeType,
		OutputMode:  outputMode,
		Status:      status,
		Succeeded:   succeeded,
		Failed:      failed,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id            int64
		runRowID      int64
		ordinal       int
		sourcePath    string
		baseName      string
		status        string
		errorKind     sql.NullString
		errorMessage  sql.NullString
		correlationID sql.NullString
		durationMS    int64
		createdRaw    string
	)
	if err := scanner.Scan(
		&id,
		&runRowID,
		&ordinal,
		&sourcePath,
		&baseName,
		&status,
		&errorKind,
		&errorMessage,
		&correlationID,
		&durationMS,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:            id,
		RunRowID:      runRowID,
		Ordinal:       ordinal,
		SourcePath:    sourcePath,
		BaseName:      baseName,
		Status:        status,
		ErrorKind:     errorKind.String,
		ErrorMessage:  errorMessage.String,
		CorrelationID: correlationID.String,
		Duration:      time.Duration(durationMS) * time.Millisecond,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
