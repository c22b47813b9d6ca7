package batch

import (
	"time"

	"scribe/internal/discovery"
	"scribe/internal/services/whisper"
)

// Status tracks a job through its lifecycle. Jobs only ever move forward:
// pending, running, then exactly one terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is the terminal record for one job.
type Outcome struct {
	Status Status
	// Result holds the recognized text for succeeded jobs; zero otherwise.
	Result whisper.Result
	// ErrorKind and Message describe the failure for failed jobs.
	ErrorKind string
	Message   string
	// Artifacts lists the files written for succeeded jobs.
	Artifacts     []string
	Duration      time.Duration
	CorrelationID string
}

// JobReport pairs a discovered job with its outcome.
type JobReport struct {
	Job     discovery.AudioJob
	Outcome Outcome
}

// Report summarizes one batch run. Jobs appear in discovery order and carry
// exactly one outcome each; an interrupted run contains only the jobs that
// reached a terminal state before the interruption.
type Report struct {
	RunID      string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Jobs       []JobReport
	Succeeded  int
	Failed     int
}

// Ok reports whether every processed job succeeded.
func (r Report) Ok() bool {
	return r.Failed == 0
}

// Duration returns the wall-clock span of the run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
