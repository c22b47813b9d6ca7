package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"scribe/internal/batch"
)

type runJobView struct {
	Ordinal       int      `json:"ordinal"`
	Source        string   `json:"source"`
	Status        string   `json:"status"`
	DurationMS    int64    `json:"duration_ms"`
	ErrorKind     string   `json:"error_kind,omitempty"`
	Error         string   `json:"error,omitempty"`
	Artifacts     []string `json:"artifacts,omitempty"`
	CorrelationID string   `json:"correlation_id,omitempty"`
}

type runReportView struct {
	RunID       string       `json:"run_id"`
	OutputDir   string       `json:"output_dir"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	Interrupted bool         `json:"interrupted,omitempty"`
	Jobs        []runJobView `json:"jobs"`
}

func buildRunView(report batch.Report, interrupted bool) runReportView {
	view := runReportView{
		RunID:       report.RunID,
		OutputDir:   report.OutputDir,
		StartedAt:   report.StartedAt.UTC(),
		FinishedAt:  report.FinishedAt.UTC(),
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
		Interrupted: interrupted,
		Jobs:        make([]runJobView, 0, len(report.Jobs)),
	}
	for _, job := range report.Jobs {
		view.Jobs = append(view.Jobs, runJobView{
			Ordinal:       job.Job.Ordinal,
			Source:        job.Job.SourcePath,
			Status:        string(job.Outcome.Status),
			DurationMS:    job.Outcome.Duration.Milliseconds(),
			ErrorKind:     job.Outcome.ErrorKind,
			Error:         job.Outcome.Message,
			Artifacts:     job.Outcome.Artifacts,
			CorrelationID: job.Outcome.CorrelationID,
		})
	}
	return view
}

func renderRunReport(out io.Writer, report batch.Report, interrupted bool) {
	if len(report.Jobs) == 0 && !interrupted {
		fmt.Fprintf(out, "No supported audio files found; empty run directory created at %s\n", report.OutputDir)
		return
	}

	rows := make([][]string, 0, len(report.Jobs))
	for _, job := range report.Jobs {
		rows = append(rows, []string{
			strconv.Itoa(job.Job.Ordinal),
			job.Job.BaseName,
			string(job.Outcome.Status),
			formatRunDuration(job.Outcome.Duration),
			jobDetail(job.Outcome),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "File", "Status", "Duration", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))

	summary := fmt.Sprintf("Run %s: %d succeeded, %d failed in %s",
		report.RunID, report.Succeeded, report.Failed, formatRunDuration(report.Duration()))
	if interrupted {
		summary += " (interrupted)"
	}
	fmt.Fprintln(out, summary)
	fmt.Fprintf(out, "Artifacts: %s\n", report.OutputDir)
}

func jobDetail(outcome batch.Outcome) string {
	if outcome.Status != batch.StatusFailed {
		return ""
	}
	detail := outcome.Message
	if outcome.ErrorKind != "" {
		detail = fmt.Sprintf("[%s] %s", outcome.ErrorKind, outcome.Message)
	}
	return truncateDetail(detail, 72)
}

func truncateDetail(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func formatRunDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(100 * time.Millisecond).String()
}
