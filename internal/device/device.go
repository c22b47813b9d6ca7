package device

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a device class.
type Kind string

const (
	// CPU is the universal fallback device.
	CPU Kind = "cpu"
	// CUDA is an NVIDIA accelerator addressed by index.
	CUDA Kind = "cuda"
)

// Request is a parsed device specification such as "cpu", "cuda", or "cuda:1".
type Request struct {
	Kind  Kind
	Index int
}

// ParseRequest parses a device specification string.
func ParseRequest(value string) (Request, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch {
	case trimmed == "":
		return Request{}, fmt.Errorf("device must be set (cpu, cuda, or cuda:N)")
	case trimmed == string(CPU):
		return Request{Kind: CPU}, nil
	case trimmed == string(CUDA):
		return Request{Kind: CUDA}, nil
	case strings.HasPrefix(trimmed, "cuda:"):
		index, err := strconv.Atoi(trimmed[len("cuda:"):])
		if err != nil || index < 0 {
			return Request{}, fmt.Errorf("invalid accelerator index in %q", value)
		}
		return Request{Kind: CUDA, Index: index}, nil
	default:
		return Request{}, fmt.Errorf("unrecognized device %q (expected cpu, cuda, or cuda:N)", value)
	}
}

// String renders the request in the canonical form accepted by ParseRequest.
func (r Request) String() string {
	if r.Kind == CUDA {
		return fmt.Sprintf("cuda:%d", r.Index)
	}
	return string(CPU)
}
