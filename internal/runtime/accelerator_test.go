package runtime

import (
	"context"
	"errors"
	"testing"

	"kernelc/internal/backend"
	kerrors "kernelc/internal/errors"
)

type fakeBuffer struct{ data []byte }

type fakeModule struct {
	entry     string
	launchErr error
}

func (m *fakeModule) EntryPoint() string { return m.entry }

func (m *fakeModule) Launch(ctx context.Context, stream StreamHandle, cfg LaunchConfig, args []Buffer) error {
	return m.launchErr
}

type fakeContext struct {
	device  DeviceInfo
	copyErr error
	loadErr error
	closed  bool
}

func (c *fakeContext) Device() DeviceInfo { return c.device }

func (c *fakeContext) AllocateBuffer(kind BufferKind, count int64) (Buffer, error) {
	return Buffer{Kind: kind, Count: count, Handle: &fakeBuffer{data: make([]byte, count*kind.ElemSize())}}, nil
}

func (c *fakeContext) FreeBuffer(Buffer) error { return nil }

func (c *fakeContext) Copy(ctx context.Context, dst, src Buffer, stream StreamHandle) error {
	return c.copyErr
}

func (c *fakeContext) SetZero(ctx context.Context, buf Buffer) error { return nil }

func (c *fakeContext) NewStream() (StreamHandle, error) { return NewStream(0), nil }

func (c *fakeContext) LoadModule(kernel *backend.CompiledKernel) (Module, error) {
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return &fakeModule{entry: kernel.EntryPoint}, nil
}

func (c *fakeContext) Close() error {
	c.closed = true
	return nil
}

type fakeDriver struct {
	ctx *fakeContext
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Enumerate() ([]DeviceInfo, error) { return []DeviceInfo{d.ctx.device}, nil }

func (d *fakeDriver) Open(device DeviceInfo) (Context, error) { return d.ctx, nil }

func newFakeAccelerator(t *testing.T) (*Accelerator, *fakeContext) {
	t.Helper()
	device := DeviceInfo{
		Name: "fake0",
		Capabilities: CapabilityTable{
			MaxGrid:  Dim3{X: 1024, Y: 1024, Z: 64},
			MaxGroup: Dim3{X: 256, Y: 256, Z: 64},
		},
	}
	ctx := &fakeContext{device: device}
	driver := &fakeDriver{ctx: ctx}
	acc, err := NewAccelerator("fake", driver, device, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewAccelerator: %v", err)
	}
	return acc, ctx
}

func TestAcceleratorAllocateRentsPoolAndFreeReturnsIt(t *testing.T) {
	acc, _ := newFakeAccelerator(t)
	buf, err := acc.Allocate(BufferF64, 10)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := acc.pool.ActiveAllocations(); got != 1 {
		t.Fatalf("ActiveAllocations = %d, want 1", got)
	}
	if err := acc.Free(buf); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if got := acc.pool.ActiveAllocations(); got != 0 {
		t.Fatalf("ActiveAllocations = %d, want 0 after Free", got)
	}
}

func TestAcceleratorLaunchRejectsOversizeGrid(t *testing.T) {
	acc, _ := newFakeAccelerator(t)
	module, err := acc.LoadKernel("m", "cpuil", nil, func() (*backend.CompiledKernel, error) {
		return &backend.CompiledKernel{Backend: "cpuil", EntryPoint: "m"}, nil
	})
	if err != nil {
		t.Fatalf("LoadKernel: %v", err)
	}
	stream := acc.CreateStream()
	cfg := LaunchConfig{Grid: Dim3{X: 1 << 30, Y: 1, Z: 1}}
	err = acc.Launch(context.Background(), module, stream, cfg, nil)
	if err == nil {
		t.Fatal("expected an oversize grid to fail before reaching the driver")
	}
	var ce kerrors.CompilerError
	if !errors.As(err, &ce) || ce.Kind != kerrors.LaunchFailed {
		t.Fatalf("err = %v, want a LaunchFailed diagnostic", err)
	}
}

func TestAcceleratorDeviceFaultPoisonsOwnedStreams(t *testing.T) {
	acc, _ := newFakeAccelerator(t)
	module, err := acc.LoadKernel("m", "cpuil", nil, func() (*backend.CompiledKernel, error) {
		return &backend.CompiledKernel{Backend: "cpuil", EntryPoint: "m"}, nil
	})
	if err != nil {
		t.Fatalf("LoadKernel: %v", err)
	}

	faulty := module.(*fakeModule)
	faulty.launchErr = kerrors.DeviceUnavailableError("fake", "bus error").Build()

	stream := acc.CreateStream()
	other := acc.CreateStream()

	cfg := LaunchConfig{Grid: Dim3{X: 1, Y: 1, Z: 1}}
	if err := acc.Launch(context.Background(), module, stream, cfg, nil); err == nil {
		t.Fatal("expected the device fault to surface from Launch")
	}

	if err := other.Submit(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected a poisoned accelerator to poison every owned stream")
	}
	if _, err := acc.Allocate(BufferI32, 1); err == nil {
		t.Fatal("expected Allocate to fail once the accelerator is poisoned")
	}
}
