// Package runtime implements the launch runtime of §4.6/§5/§6: a
// device-generic accelerator interface (allocate/copy/create_stream/
// synchronize/load_kernel/launch), a compiled-kernel cache, a memory
// pool, and per-accelerator stream workers, all sitting in front of an
// opaque per-family Driver. internal/runtime/hostdriver supplies the
// one concrete driver this repository ships, backing the CPU-IL and
// Velocity backends in-process.
package runtime

import "fmt"

// Dim3 is a 3-D extent: a grid of groups, or a group of threads.
type Dim3 struct {
	X, Y, Z int
}

func (d Dim3) Count() int64 { return int64(d.X) * int64(d.Y) * int64(d.Z) }

func (d Dim3) String() string { return fmt.Sprintf("(%d,%d,%d)", d.X, d.Y, d.Z) }

// LaunchConfig is the grid/group shape a launch requests. Group is
// ignored for an implicitly-grouped kernel; the runtime picks a shape.
type LaunchConfig struct {
	Grid  Dim3
	Group Dim3
}

// BufferKind tags a device buffer with the element type it holds, the
// minimum a driver needs to validate a launch's argument types against
// a capability table.
type BufferKind int

const (
	BufferI8 BufferKind = iota
	BufferI16
	BufferI32
	BufferI64
	BufferF16
	BufferF32
	BufferF64
)

func (k BufferKind) ElemSize() int64 {
	switch k {
	case BufferI8:
		return 1
	case BufferI16, BufferF16:
		return 2
	case BufferI32, BufferF32:
		return 4
	case BufferI64, BufferF64:
		return 8
	default:
		return 0
	}
}

// CapabilityTable advertises what an accelerator accepts, per §4.6
// "Device capability tables advertise which operand types and shapes
// are accepted". A launch that falls outside these bounds fails
// LaunchFailed before ever reaching the driver.
type CapabilityTable struct {
	MaxGrid         Dim3
	MaxGroup        Dim3
	MaxSharedMemory int64
	SupportedKinds  map[BufferKind]bool
	TileGeometry    Dim3 // zero value means no tiled-execution constraint
}

func (c CapabilityTable) Supports(k BufferKind) bool {
	return c.SupportedKinds == nil || c.SupportedKinds[k]
}

func (c CapabilityTable) Accepts(cfg LaunchConfig) bool {
	fits := func(req, max Dim3) bool {
		return req.X <= max.X && req.Y <= max.Y && req.Z <= max.Z
	}
	return fits(cfg.Grid, c.MaxGrid) && fits(cfg.Group, c.MaxGroup)
}

// DeviceInfo names one enumerated device and its capabilities, as
// returned by a Driver's device-enumeration call (§6 "Core → Drivers").
type DeviceInfo struct {
	Name         string
	Capabilities CapabilityTable
}
