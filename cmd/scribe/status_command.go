package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/device"
	"scribe/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, device availability, and host readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			request, err := device.ParseRequest(cfg.Device.ASR)
			if err != nil {
				return err
			}
			avail := device.Detect(cmd.Context())
			profile := device.Select(request, avail, cfg.ASR.ComputeType)
			checks := preflight.RunAll(cfg)
			dependencies := preflight.CheckSystemDeps(cfg)

			if jsonOutput {
				return writeJSON(cmd, buildStatusView(cfg, request, avail, profile, checks, dependencies))
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range statusLines(cfg, request, avail, profile, checks, dependencies, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

type statusCheckView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type statusDependencyView struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Optional  bool   `json:"optional,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type statusDeviceView struct {
	Requested   string `json:"requested"`
	Effective   string `json:"effective"`
	ComputeType string `json:"compute_type"`
	Fallback    bool   `json:"fallback,omitempty"`
	Reason      string `json:"reason,omitempty"`
	CUDA        bool   `json:"cuda"`
	Devices     int    `json:"devices,omitempty"`
	ProbeDetail string `json:"probe_detail,omitempty"`
}

type statusView struct {
	ModelDir     string                 `json:"model_dir"`
	InputPath    string                 `json:"input_path,omitempty"`
	OutputRoot   string                 `json:"output_root"`
	OutputMode   string                 `json:"output_mode"`
	Language     string                 `json:"language"`
	Device       statusDeviceView       `json:"device"`
	Checks       []statusCheckView      `json:"checks"`
	Dependencies []statusDependencyView `json:"dependencies"`
	Ready        bool                   `json:"ready"`
}
