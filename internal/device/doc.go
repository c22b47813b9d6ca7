// Package device resolves which compute device and numeric precision a run
// actually uses.
//
// Selection is a pure function over the requested device and a probe of host
// capabilities, so the accelerator-to-CPU fallback policy is testable without
// hardware present. The probe itself shells out to nvidia-smi and reports a
// point-in-time answer; it never fails a run on its own.
package device
