package errors

// Kind classifies a compiler or runtime error into one of the seven
// categories the compile/launch pipeline distinguishes. Unlike the
// teacher's E0001-style numeric code ranges (one range per frontend
// analysis pass), kernelc has no frontend passes to range over — every
// diagnostic originates from the IR builder, a transformation pass, a
// backend, or the launch runtime, so a flat enum replaces the ranges.
type Kind string

const (
	// InvalidIR is an invariant violation the builder or a verifier
	// detected (type mismatch, dangling use, bad phi arity). Fatal for
	// the current compile; the IR under construction is torn down.
	InvalidIR Kind = "invalid_ir"

	// UnsupportedOperation is a value whose operation has no
	// legalization for the selected backend.
	UnsupportedOperation Kind = "unsupported_operation"

	// IntrinsicUnresolved is a call that remained unresolved after the
	// intrinsic resolution pipeline reached a fixed point.
	IntrinsicUnresolved Kind = "intrinsic_unresolved"

	// DeviceUnavailable is a driver reporting no device, the wrong
	// generation, or a missing required feature.
	DeviceUnavailable Kind = "device_unavailable"

	// AllocationFailed is a driver out of memory, or a memory pool
	// exhausted with no release imminent.
	AllocationFailed Kind = "allocation_failed"

	// LaunchFailed is a driver rejecting a launch (bad grid, misaligned
	// buffer, null pointer).
	LaunchFailed Kind = "launch_failed"

	// Canceled is cooperative cancellation via a caller's handle.
	Canceled Kind = "canceled"
)

var kindDescriptions = map[Kind]string{
	InvalidIR:            "an invariant of the intermediate representation was violated",
	UnsupportedOperation: "the selected backend has no legalization for this operation",
	IntrinsicUnresolved:  "a call was not resolved by any registered intrinsic",
	DeviceUnavailable:    "the requested accelerator is not available",
	AllocationFailed:     "a device or pool allocation could not be satisfied",
	LaunchFailed:         "the driver rejected the kernel launch",
	Canceled:             "the operation was canceled",
}

// Describe returns a human-readable one-line description of a kind,
// used as the fallback message when a caller builds a bare CompilerError.
func (k Kind) Describe() string {
	if d, ok := kindDescriptions[k]; ok {
		return d
	}
	return "unknown error"
}

// Fatal reports whether a kind, by policy (§7), tears down the current
// compile/launch outright rather than leaving a recoverable path.
func (k Kind) Fatal() bool {
	switch k {
	case InvalidIR, DeviceUnavailable:
		return true
	default:
		return false
	}
}
