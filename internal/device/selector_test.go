package device_test

import (
	"testing"

	"scribe/internal/device"
)

func TestParseRequest(t *testing.T) {
	cases := []struct {
		input   string
		want    device.Request
		wantErr bool
	}{
		{input: "cpu", want: device.Request{Kind: device.CPU}},
		{input: "CPU", want: device.Request{Kind: device.CPU}},
		{input: "cuda", want: device.Request{Kind: device.CUDA}},
		{input: "cuda:0", want: device.Request{Kind: device.CUDA, Index: 0}},
		{input: "cuda:3", want: device.Request{Kind: device.CUDA, Index: 3}},
		{input: " cuda:1 ", want: device.Request{Kind: device.CUDA, Index: 1}},
		{input: "", wantErr: true},
		{input: "cuda:-1", wantErr: true},
		{input: "cuda:x", wantErr: true},
		{input: "tpu", wantErr: true},
	}

	for _, tc := range cases {
		got, err := device.ParseRequest(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseRequest(%q) expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRequest(%q) returned error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRequest(%q) = %+v, want %+v", tc.input, got, tc.want)
		}
	}
}

func TestRequestString(t *testing.T) {
	if got := (device.Request{Kind: device.CPU}).String(); got != "cpu" {
		t.Fatalf("cpu string = %q", got)
	}
	if got := (device.Request{Kind: device.CUDA, Index: 2}).String(); got != "cuda:2" {
		t.Fatalf("cuda string = %q", got)
	}
}

func TestSelectFallsBackWhenAcceleratorUnavailable(t *testing.T) {
	req := device.Request{Kind: device.CUDA, Index: 0}
	avail := device.Availability{CUDA: false, Detail: "nvidia-smi not found in PATH"}

	for _, computeType := range []string{"float16", "int8", "float32"} {
		profile := device.Select(req, avail, computeType)
		if profile.Device.Kind != device.CPU {
			t.Fatalf("compute %s: expected cpu fallback, got %s", computeType, profile.Device)
		}
		if profile.ComputeType != device.FallbackComputeType {
			t.Fatalf("compute %s: expected %s after fallback, got %s", computeType, device.FallbackComputeType, profile.ComputeType)
		}
		if !profile.Fallback {
			t.Fatalf("compute %s: expected fallback flag", computeType)
		}
		if profile.Reason == "" {
			t.Fatalf("compute %s: expected fallback reason", computeType)
		}
	}
}

func TestSelectGrantsAvailableAccelerator(t *testing.T) {
	req := device.Request{Kind: device.CUDA, Index: 1}
	avail := device.Availability{CUDA: true, Devices: 2}

	profile := device.Select(req, avail, "float16")
	if profile.Device != req {
		t.Fatalf("expected request granted, got %+v", profile.Device)
	}
	if profile.ComputeType != "float16" {
		t.Fatalf("expected requested precision kept, got %s", profile.ComputeType)
	}
	if profile.Fallback {
		t.Fatal("unexpected fallback")
	}
}

func TestSelectFallsBackOnOutOfRangeIndex(t *testing.T) {
	req := device.Request{Kind: device.CUDA, Index: 2}
	avail := device.Availability{CUDA: true, Devices: 1}

	profile := device.Select(req, avail, "int8")
	if profile.Device.Kind != device.CPU || !profile.Fallback {
		t.Fatalf("expected cpu fallback for out-of-range index, got %+v", profile)
	}
	if profile.ComputeType != device.FallbackComputeType {
		t.Fatalf("expected %s, got %s", device.FallbackComputeType, profile.ComputeType)
	}
}

func TestSelectKeepsExplicitCPURequestUntouched(t *testing.T) {
	req := device.Request{Kind: device.CPU}
	avail := device.Availability{CUDA: true, Devices: 1}

	profile := device.Select(req, avail, "int8")
	if profile.Device.Kind != device.CPU {
		t.Fatalf("expected cpu, got %s", profile.Device)
	}
	if profile.ComputeType != "int8" {
		t.Fatalf("explicit cpu request must keep requested precision, got %s", profile.ComputeType)
	}
	if profile.Fallback {
		t.Fatal("explicit cpu request is not a fallback")
	}
}
