package runtime

import (
	"context"
	"errors"

	deadlock "github.com/sasha-s/go-deadlock"

	"kernelc/internal/backend"
	kerrors "kernelc/internal/errors"
)

// Accelerator is the device-generic interface of §4.6: allocate, copy,
// create_stream, synchronize, load_kernel, launch, implemented once
// here on top of an opaque per-family Driver. AMX, NPU, ANE, PTX,
// OpenCL and Velocity CPU are all just different (Driver, DeviceInfo)
// pairs behind the same Accelerator.
type Accelerator struct {
	Name string

	driver Driver
	ctx    Context
	cache  *KernelCache
	pool   *MemoryPool

	mu       deadlock.Mutex
	streams  map[*Stream]struct{}
	modules  map[string]Module
	poisoned error // non-nil once a device-level fault has been observed
}

// NewAccelerator opens a context on the given device and wires a fresh
// memory pool and a shared compiled-kernel cache. cache may be shared
// across accelerators of the same backend family to pool compile work;
// passing nil creates a private one.
func NewAccelerator(name string, driver Driver, device DeviceInfo, poolCapacity int64, cache *KernelCache) (*Accelerator, error) {
	ctx, err := driver.Open(device)
	if err != nil {
		return nil, kerrors.DeviceUnavailableError(name, err.Error()).Build()
	}
	if cache == nil {
		cache = NewKernelCache()
	}
	return &Accelerator{
		Name:    name,
		driver:  driver,
		ctx:     ctx,
		cache:   cache,
		pool:    NewMemoryPool(poolCapacity),
		streams: make(map[*Stream]struct{}),
		modules: make(map[string]Module),
	}, nil
}

func (a *Accelerator) checkAvailable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.poisoned
}

// poison marks every stream owned by this accelerator so in-flight and
// future commands observe the fault, and records it so new operations
// fail fast without reaching the driver (§7).
func (a *Accelerator) poison(cause error) {
	a.mu.Lock()
	if a.poisoned == nil {
		a.poisoned = kerrors.DeviceUnavailableError(a.Name, cause.Error()).Build()
	}
	streams := make([]*Stream, 0, len(a.streams))
	for s := range a.streams {
		streams = append(streams, s)
	}
	a.mu.Unlock()
	for _, s := range streams {
		s.Poison()
	}
}

// isDeviceFault reports whether err is a driver-level fault that should
// poison the whole accelerator, as opposed to an ordinary per-command
// failure (bad grid, allocation refusal) that stays local to its stream.
func isDeviceFault(err error) bool {
	var ce kerrors.CompilerError
	if errors.As(err, &ce) {
		return ce.Kind == kerrors.DeviceUnavailable
	}
	return false
}

// Allocate reserves a device buffer and rents its size from the pool
// (§4.6 "allocate(buffer kind, element count)").
func (a *Accelerator) Allocate(kind BufferKind, count int64) (Buffer, error) {
	if err := a.checkAvailable(); err != nil {
		return Buffer{}, err
	}
	buf, err := a.ctx.AllocateBuffer(kind, count)
	if err != nil {
		return Buffer{}, kerrors.AllocationFailedError(count*kind.ElemSize(), a.Name).Build()
	}
	if err := a.pool.Rent(buf.Handle, buf.Bytes()); err != nil {
		a.ctx.FreeBuffer(buf)
		return Buffer{}, err
	}
	return buf, nil
}

// Free releases a buffer previously returned by Allocate.
func (a *Accelerator) Free(buf Buffer) error {
	a.pool.Return(buf.Handle)
	return a.ctx.FreeBuffer(buf)
}

// CreateStream opens a new FIFO command queue on this accelerator.
func (a *Accelerator) CreateStream() *Stream {
	s := NewStream(0)
	a.mu.Lock()
	a.streams[s] = struct{}{}
	a.mu.Unlock()
	return s
}

// Copy performs a host↔device or device↔device copy, in the given
// stream if provided, else synchronously (§4.6 "copy(src, dst[, stream])").
func (a *Accelerator) Copy(ctx context.Context, dst, src Buffer, stream *Stream) error {
	if err := a.checkAvailable(); err != nil {
		return err
	}
	run := func(ctx context.Context) error { return a.ctx.Copy(ctx, dst, src, nil) }
	if stream == nil {
		return run(ctx)
	}
	err := stream.Submit(ctx, run)
	if isDeviceFault(err) {
		a.poison(err)
	}
	return err
}

// Synchronize waits for one stream, or every stream on the device when
// stream is nil (§4.6 "synchronize(stream | whole device)").
func (a *Accelerator) Synchronize(ctx context.Context, stream *Stream) error {
	if stream != nil {
		return stream.Synchronize(ctx)
	}
	a.mu.Lock()
	streams := make([]*Stream, 0, len(a.streams))
	for s := range a.streams {
		streams = append(streams, s)
	}
	a.mu.Unlock()
	for _, s := range streams {
		if err := s.Synchronize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// LoadKernel compiles (or reuses a cached compile of) the kernel keyed
// by (methodID, backendID, specTuple), then loads it into this
// accelerator's context as a launchable Module (§4.6 "load_kernel(method,
// launch config) → compiled kernel handle. Specialization values
// participate in the cache key.").
func (a *Accelerator) LoadKernel(methodID, backendID string, specTuple []string, compile func() (*backend.CompiledKernel, error)) (Module, error) {
	if err := a.checkAvailable(); err != nil {
		return nil, err
	}
	key := cacheKey(methodID, backendID, specTuple)

	kernel, err := a.cache.Compile(methodID, backendID, specTuple, compile)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if m, ok := a.modules[key]; ok {
		a.mu.Unlock()
		return m, nil
	}
	a.mu.Unlock()

	module, err := a.ctx.LoadModule(kernel)
	if err != nil {
		return nil, kerrors.LaunchFailedError(kernel.EntryPoint, err.Error()).Build()
	}
	a.mu.Lock()
	a.modules[key] = module
	a.mu.Unlock()
	return module, nil
}

// Launch submits a kernel launch to stream, validating the requested
// grid/group shape against the device's capability table before ever
// reaching the driver (§4.6 "a launch that requests an unsupported
// combination fails with a categorized error").
func (a *Accelerator) Launch(ctx context.Context, module Module, stream *Stream, cfg LaunchConfig, args []Buffer) error {
	if err := a.checkAvailable(); err != nil {
		return err
	}
	if !a.ctx.Device().Capabilities.Accepts(cfg) {
		return kerrors.LaunchFailedError(module.EntryPoint(), "grid/group shape exceeds device capability").Build()
	}
	err := stream.Submit(ctx, func(ctx context.Context) error {
		return module.Launch(ctx, stream, cfg, args)
	})
	if isDeviceFault(err) {
		a.poison(err)
	}
	return err
}

// Close tears down every stream and the underlying driver context.
func (a *Accelerator) Close() error {
	a.mu.Lock()
	streams := make([]*Stream, 0, len(a.streams))
	for s := range a.streams {
		streams = append(streams, s)
	}
	a.mu.Unlock()
	for _, s := range streams {
		s.Close()
	}
	return a.ctx.Close()
}
