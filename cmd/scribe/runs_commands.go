package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	// Bare `scribe runs` lists directly; the list subcommand stays as the
	// spelled-out form.
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, ctx, limit, jsonOutput)
		},
	}
	runsCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	runsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit runs as JSON")

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsClearCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, ctx, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit runs as JSON")
	return cmd
}

func listRuns(cmd *cobra.Command, ctx *commandContext, limit int, jsonOutput bool) error {
	return ctx.withLedger(func(store *ledger.Store) error {
		runs, err := store.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if jsonOutput {
			views := make([]runRowView, 0, len(runs))
			for _, run := range runs {
				views = append(views, buildRunRowView(run))
			}
			return writeJSON(cmd, views)
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
			return nil
		}
		rows := make([][]string, 0, len(runs))
		for _, run := range runs {
			rows = append(rows, []string{
				strconv.FormatInt(run.ID, 10),
				run.RunID,
				formatRunTime(run.StartedAt),
				run.Device,
				run.OutputMode,
				run.Status,
				strconv.Itoa(run.Succeeded),
				strconv.Itoa(run.Failed),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Run", "Started", "Device", "Mode", "Status", "OK", "Failed"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
		))
		return nil
	})
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run and its per-file outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return ctx.withLedger(func(store *ledger.Store) error {
				run, err := store.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %d not found", id)
				}
				jobs, err := store.ListJobs(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, buildRunDetailView(run, jobs))
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s)\n", run.RunID, run.Status)
				fmt.Fprintf(out, "Started: %s\n", formatRunTime(run.StartedAt))
				if run.FinishedAt != nil {
					fmt.Fprintf(out, "Finished: %s\n", formatRunTime(*run.FinishedAt))
				}
				if run.InputPath != "" {
					fmt.Fprintf(out, "Input: %s\n", run.InputPath)
				}
				fmt.Fprintf(out, "Output: %s\n", run.OutputDir)
				fmt.Fprintf(out, "Device: %s (%s), mode %s\n", run.Device, run.ComputeType, run.OutputMode)
				fmt.Fprintf(out, "Jobs: %d succeeded, %d failed\n", run.Succeeded, run.Failed)
				if len(jobs) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					detail := ""
					if job.ErrorMessage != "" {
						detail = job.ErrorMessage
						if job.ErrorKind != "" {
							detail = fmt.Sprintf("[%s] %s", job.ErrorKind, job.ErrorMessage)
						}
						detail = truncateDetail(detail, 72)
					}
					rows = append(rows, []string{
						strconv.Itoa(job.Ordinal),
						job.BaseName,
						job.Status,
						formatRunDuration(job.Duration),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "File", "Status", "Duration", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run as JSON")
	return cmd
}

func newRunsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs\n", removed)
				return nil
			})
		},
	}
}

type runRowView struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	InputPath   string     `json:"input_path,omitempty"`
	OutputDir   string     `json:"output_dir"`
	Device      string     `json:"device"`
	ComputeType string     `json:"compute_type"`
	OutputMode  string     `json:"output_mode"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
}

type runJobRowView struct {
	Ordinal       int    `json:"ordinal"`
	Source        string `json:"source"`
	Status        string `json:"status"`
	DurationMS    int64  `json:"duration_ms"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type runDetailView struct {
	runRowView
	Jobs []runJobRowView `json:"jobs"`
}

func buildRunRowView(run *ledger.Run) runRowView {
	return runRowView{
		ID:          run.ID,
		RunID:       run.RunID,
		InputPath:   run.InputPath,
		OutputDir:   run.OutputDir,
		Device:      run.Device,
		ComputeType: run.ComputeType,
		OutputMode:  run.OutputMode,
		Status:      run.Status,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Succeeded:   run.Succeeded,
		Failed:      run.Failed,
	}
}

func buildRunDetailView(run *ledger.Run, jobs []*ledger.Job) runDetailView {
	view := runDetailView{
		runRowView: buildRunRowView(run),
		Jobs:       make([]runJobRowView, 0, len(jobs)),
	}
	for _, job := range jobs {
		view.Jobs = append(view.Jobs, runJobRowView{
			Ordinal:       job.Ordinal,
			Source:        job.SourcePath,
			Status:        job.Status,
			DurationMS:    job.Duration.Milliseconds(),
			ErrorKind:     job.ErrorKind,
			Error:         job.ErrorMessage,
			CorrelationID: job.CorrelationID,
		})
	}
	return view
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
