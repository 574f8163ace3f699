// Package hostdriver is the one concrete Driver this repository ships
// (§6 "Core → Drivers"): an in-process driver backing the CPU-IL and
// Velocity backends directly, with no external FFI. Rather than
// re-parsing a backend's emitted text, it interprets the *ir.Method the
// backend compiled from directly (interp.go) — methods are registered
// ahead of load_kernel time via RegisterMethod.
package hostdriver

import (
	"context"
	"fmt"
	"sync"

	"kernelc/internal/backend"
	"kernelc/internal/ir"
	"kernelc/internal/runtime"
)

var hostDevice = runtime.DeviceInfo{
	Name: "host",
	Capabilities: runtime.CapabilityTable{
		MaxGrid:         runtime.Dim3{X: 1 << 20, Y: 1 << 16, Z: 1 << 16},
		MaxGroup:        runtime.Dim3{X: 1024, Y: 1024, Z: 64},
		MaxSharedMemory: 48 * 1024,
		SupportedKinds: map[runtime.BufferKind]bool{
			runtime.BufferI8: true, runtime.BufferI16: true, runtime.BufferI32: true, runtime.BufferI64: true,
			runtime.BufferF16: true, runtime.BufferF32: true, runtime.BufferF64: true,
		},
	},
}

// hostBuffer is the concrete Buffer.Handle this driver hands out: a
// flat byte slice, addressed by hostPtr.
type hostBuffer struct {
	data []byte
}

type registeredMethod struct {
	method *ir.Method
}

// Driver is the hostdriver.Driver singleton. A process normally opens
// one per accelerator name ("cpuil", "velocity") sharing the same
// in-process execution model.
type Driver struct {
	mu      sync.Mutex
	methods map[string]registeredMethod
}

func NewDriver() *Driver {
	return &Driver{methods: make(map[string]registeredMethod)}
}

func (d *Driver) Name() string { return "host" }

func (d *Driver) Enumerate() ([]runtime.DeviceInfo, error) {
	return []runtime.DeviceInfo{hostDevice}, nil
}

func (d *Driver) Open(device runtime.DeviceInfo) (runtime.Context, error) {
	return &Context{driver: d, device: device}, nil
}

// RegisterMethod makes a method's IR available to LoadModule, keyed by
// its name (the same name a CompiledKernel reports as EntryPoint).
func (d *Driver) RegisterMethod(method *ir.Method) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.methods[method.Name] = registeredMethod{method: method}
}

func (d *Driver) lookup(entryPoint string) (*ir.Method, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rm, ok := d.methods[entryPoint]
	return rm.method, ok
}

// Context is the hostdriver's Context: device buffers are plain Go byte
// slices, copies are memmoves, and module loading is a registry lookup.
type Context struct {
	driver *Driver
	device runtime.DeviceInfo
}

func (c *Context) Device() runtime.DeviceInfo { return c.device }

func (c *Context) AllocateBuffer(kind runtime.BufferKind, count int64) (runtime.Buffer, error) {
	buf := &hostBuffer{data: make([]byte, count*kind.ElemSize())}
	return runtime.Buffer{Kind: kind, Count: count, Handle: buf}, nil
}

func (c *Context) FreeBuffer(runtime.Buffer) error { return nil }

func (c *Context) Copy(ctx context.Context, dst, src runtime.Buffer, stream runtime.StreamHandle) error {
	d, ok := dst.Handle.(*hostBuffer)
	if !ok {
		return fmt.Errorf("hostdriver: destination buffer not allocated by this driver")
	}
	s, ok := src.Handle.(*hostBuffer)
	if !ok {
		return fmt.Errorf("hostdriver: source buffer not allocated by this driver")
	}
	copy(d.data, s.data)
	return nil
}

func (c *Context) SetZero(ctx context.Context, buf runtime.Buffer) error {
	b, ok := buf.Handle.(*hostBuffer)
	if !ok {
		return fmt.Errorf("hostdriver: buffer not allocated by this driver")
	}
	for i := range b.data {
		b.data[i] = 0
	}
	return nil
}

func (c *Context) NewStream() (runtime.StreamHandle, error) {
	return runtime.NewStream(0), nil
}

func (c *Context) LoadModule(kernel *backend.CompiledKernel) (runtime.Module, error) {
	method, ok := c.driver.lookup(kernel.EntryPoint)
	if !ok {
		return nil, fmt.Errorf("hostdriver: no method registered for entry point %q", kernel.EntryPoint)
	}
	return &Module{kernel: kernel, method: method}, nil
}

func (c *Context) Close() error { return nil }

// WriteBuffer copies raw bytes into a buffer this driver allocated,
// the host-side half of the host↔device copy the driver interface
// names (§6); the host and the device are the same process here, so
// there is no real transfer, just a bounds-checked memcpy.
func WriteBuffer(buf runtime.Buffer, data []byte) error {
	b, ok := buf.Handle.(*hostBuffer)
	if !ok {
		return fmt.Errorf("hostdriver: buffer not allocated by this driver")
	}
	if len(data) > len(b.data) {
		return fmt.Errorf("hostdriver: %d bytes does not fit a %d-byte buffer", len(data), len(b.data))
	}
	copy(b.data, data)
	return nil
}

// ReadBuffer returns a copy of a buffer's current bytes.
func ReadBuffer(buf runtime.Buffer) ([]byte, error) {
	b, ok := buf.Handle.(*hostBuffer)
	if !ok {
		return nil, fmt.Errorf("hostdriver: buffer not allocated by this driver")
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

// Module is a loaded, launchable kernel backed directly by its source
// *ir.Method rather than by the textual artifact in kernel.Code.
type Module struct {
	kernel *backend.CompiledKernel
	method *ir.Method
}

func (m *Module) EntryPoint() string { return m.kernel.EntryPoint }

func (m *Module) Launch(ctx context.Context, stream runtime.StreamHandle, cfg runtime.LaunchConfig, args []runtime.Buffer) error {
	return interpret(m.method, cfg, args)
}
