package device

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// ProbeBinary is the external tool consulted for accelerator visibility.
const ProbeBinary = "nvidia-smi"

// Detect probes the host for usable CUDA accelerators. Probe failures are
// reported through Availability.Detail rather than as errors so callers can
// always fall back to the CPU.
func Detect(ctx context.Context) Availability {
	if _, err := exec.LookPath(ProbeBinary); err != nil {
		return Availability{Detail: ProbeBinary + " not found in PATH"}
	}

	cmd := commandContext(ctx, ProbeBinary, "-L")
	output, err := cmd.Output()
	if err != nil {
		return Availability{Detail: fmt.Sprintf("%s failed: %v", ProbeBinary, err)}
	}

	devices := countListedDevices(string(output))
	if devices == 0 {
		return Availability{Detail: ProbeBinary + " reported no accelerators"}
	}

	return Availability{
		CUDA:    true,
		Devices: devices,
		Detail:  fmt.Sprintf("%d accelerator(s) visible", devices),
	}
}

// countListedDevices parses `nvidia-smi -L` output, one "GPU N: ..." line per
// visible device.
func countListedDevices(output string) int {
	count := 0
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "GPU ") {
			count++
		}
	}
	return count
}
