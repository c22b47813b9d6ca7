package main

import (
	"fmt"
	"strconv"
	"strings"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/device"
	"scribe/internal/language"
	"scribe/internal/preflight"
)

func statusLines(cfg *config.Config, request device.Request, avail device.Availability, profile device.Profile, checks []preflight.Result, dependencies []deps.Status, colorize bool) []string {
	lines := renderSectionHeader("Configuration", colorize)
	lines = append(lines, configLines(cfg)...)

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Device", colorize)...)
	lines = append(lines, deviceLines(request, avail, profile, colorize)...)

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Preflight", colorize)...)
	lines = append(lines, preflightLines(checks, colorize)...)

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	lines = append(lines, dependencyLines(dependencies, colorize)...)

	return lines
}

func configLines(cfg *config.Config) []string {
	inputPath := strings.TrimSpace(cfg.Audio.InputPath)
	if inputPath == "" {
		inputPath = "(none; pass one to scribe run)"
	}
	return []string{
		renderPlainLine("Model directory", cfg.Model.Dir),
		renderPlainLine("Input path", inputPath),
		renderPlainLine("Output root", cfg.Audio.OutputDir),
		renderPlainLine("Output mode", cfg.ASR.OutputMode),
		renderPlainLine("Language", describeLanguage(cfg.ASR.Language)),
		renderPlainLine("Beam size", strconv.Itoa(cfg.ASR.BeamSize)),
		renderPlainLine("Log directory", cfg.Logging.Dir),
	}
}

func describeLanguage(code string) string {
	display := language.Display(code)
	if display == code {
		return code
	}
	return fmt.Sprintf("%s (%s)", code, display)
}

func deviceLines(request device.Request, avail device.Availability, profile device.Profile, colorize bool) []string {
	probeKind := statusWarn
	if avail.CUDA {
		probeKind = statusOK
	}
	effective := fmt.Sprintf("%s (%s)", profile.Device, profile.ComputeType)

	lines := []string{
		renderPlainLine("Requested", request.String()),
		renderStatusLine("Probe", probeKind, avail.Detail, colorize),
	}
	if profile.Fallback {
		lines = append(lines, renderStatusLine("Effective", statusWarn,
			fmt.Sprintf("%s; fallback: %s", effective, profile.Reason), colorize))
	} else {
		lines = append(lines, renderStatusLine("Effective", statusOK, effective, colorize))
	}
	return lines
}

func preflightLines(checks []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(checks))
	for _, check := range checks {
		kind := statusError
		if check.Passed {
			kind = statusOK
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Detail != "" {
				message = fmt.Sprintf("Ready (%s)", dep.Detail)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		if !dep.Optional {
			missing = append(missing, dep.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func requiredDepsAvailable(statuses []deps.Status) bool {
	for _, dep := range statuses {
		if !dep.Optional && !dep.Available {
			return false
		}
	}
	return true
}

func buildStatusView(cfg *config.Config, request device.Request, avail device.Availability, profile device.Profile, checks []preflight.Result, dependencies []deps.Status) statusView {
	view := statusView{
		ModelDir:   cfg.Model.Dir,
		InputPath:  strings.TrimSpace(cfg.Audio.InputPath),
		OutputRoot: cfg.Audio.OutputDir,
		OutputMode: cfg.ASR.OutputMode,
		Language:   cfg.ASR.Language,
		Device: statusDeviceView{
			Requested:   request.String(),
			Effective:   profile.Device.String(),
			ComputeType: profile.ComputeType,
			Fallback:    profile.Fallback,
			Reason:      profile.Reason,
			CUDA:        avail.CUDA,
			Devices:     avail.Devices,
			ProbeDetail: avail.Detail,
		},
		Checks:       make([]statusCheckView, 0, len(checks)),
		Dependencies: make([]statusDependencyView, 0, len(dependencies)),
		Ready:        preflight.Passed(checks) && requiredDepsAvailable(dependencies),
	}
	for _, check := range checks {
		view.Checks = append(view.Checks, statusCheckView{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	for _, dep := range dependencies {
		view.Dependencies = append(view.Dependencies, statusDependencyView{
			Name:      dep.Name,
			Command:   dep.Command,
			Available: dep.Available,
			Optional:  dep.Optional,
			Detail:    dep.Detail,
		})
	}
	return view
}
