package runtime

import (
	"context"

	"kernelc/internal/backend"
)

// Buffer is an opaque device allocation. The runtime never dereferences
// Handle; only the Driver that produced it interprets it (§9 "Driver
// FFI: the core does not interpret driver payloads beyond opaque
// handles and byte blobs").
type Buffer struct {
	Kind   BufferKind
	Count  int64
	Handle any
}

func (b Buffer) Bytes() int64 { return b.Count * b.Kind.ElemSize() }

// Module is a loaded compiled kernel, ready to be launched by name.
type Module interface {
	EntryPoint() string
	Launch(ctx context.Context, stream StreamHandle, cfg LaunchConfig, args []Buffer) error
}

// StreamHandle is an opaque per-accelerator command queue handle; the
// Driver that created it knows how to order and execute work submitted
// against it.
type StreamHandle interface {
	Synchronize(ctx context.Context) error
	Close() error
}

// Context is a driver-opened session against one enumerated device. All
// per-device driver operations hang off a Context (§6 "context
// creation/destruction").
type Context interface {
	Device() DeviceInfo
	AllocateBuffer(kind BufferKind, count int64) (Buffer, error)
	FreeBuffer(buf Buffer) error
	Copy(ctx context.Context, dst, src Buffer, stream StreamHandle) error
	SetZero(ctx context.Context, buf Buffer) error
	NewStream() (StreamHandle, error)
	LoadModule(kernel *backend.CompiledKernel) (Module, error)
	Close() error
}

// Driver is the opaque per-accelerator-family entry point (§6 "Core →
// Drivers"). Exactly one concrete implementation, hostdriver.Driver,
// ships in this repository; PTX/OpenCL-class drivers have no
// implementation here and are represented only by this interface,
// since their vendor bindings are out of scope (§1).
type Driver interface {
	Name() string
	Enumerate() ([]DeviceInfo, error)
	Open(device DeviceInfo) (Context, error)
}
