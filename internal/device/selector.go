package device

import "fmt"

// FallbackComputeType is the precision forced whenever a run falls back to
// the CPU: every model build supports it.
const FallbackComputeType = "float32"

// Availability is a point-in-time answer from the capability probe.
type Availability struct {
	// CUDA reports whether any accelerator is usable right now.
	CUDA bool
	// Devices is the number of visible accelerators when CUDA is true.
	Devices int
	// Detail is a human-readable explanation of the probe outcome.
	Detail string
}

// Profile is the resolved execution target for one run. Once computed it is
// never revised mid-run.
type Profile struct {
	Device      Request
	ComputeType string
	// Fallback is true when the granted device differs from the request.
	Fallback bool
	// Reason explains the fallback for logging. Empty when Fallback is false.
	Reason string
}

// Select resolves the requested device against probed availability. An
// unusable accelerator demotes the request to CPU at float32 precision
// instead of failing; an explicit CPU request keeps the requested precision
// untouched.
func Select(req Request, avail Availability, computeType string) Profile {
	if req.Kind != CUDA {
		return Profile{Device: req, ComputeType: computeType}
	}

	if !avail.CUDA {
		reason := avail.Detail
		if reason == "" {
			reason = "accelerator unavailable"
		}
		return fallbackProfile(reason)
	}
	if req.Index >= avail.Devices {
		return fallbackProfile(fmt.Sprintf("accelerator index %d not present (%d visible)", req.Index, avail.Devices))
	}

	return Profile{Device: req, ComputeType: computeType}
}

func fallbackProfile(reason string) Profile {
	return Profile{
		Device:      Request{Kind: CPU},
		ComputeType: FallbackComputeType,
		Fallback:    true,
		Reason:      reason,
	}
}
