package runtime

import (
	"fmt"

	deadlock "github.com/sasha-s/go-deadlock"

	kerrors "kernelc/internal/errors"
)

// MemoryPool serializes rent/return of device buffers through an
// internal lock (§5 "Memory pools serialize rent/return through an
// internal lock; statistics are updated atomically"), in the style of
// a RapidsMemoryPool: a capacity ceiling, a running byte count, and an
// active-allocation counter.
//
// ActiveAllocations is incremented only on a successful rent and
// decremented only on a matching return; a failed rent (capacity
// exceeded) never touches it.
type MemoryPool struct {
	mu                deadlock.Mutex
	capacity          int64
	rented            int64
	activeAllocations int64
	byHandle          map[any]int64
}

func NewMemoryPool(capacity int64) *MemoryPool {
	return &MemoryPool{capacity: capacity, byHandle: make(map[any]int64)}
}

// Rent reserves n bytes from the pool, identified by handle (the
// Buffer.Handle a driver returned for the underlying allocation).
func (p *MemoryPool) Rent(handle any, n int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rented+n > p.capacity {
		return kerrors.AllocationFailedError(n, fmt.Sprintf("pool capacity %d", p.capacity)).Build()
	}
	p.rented += n
	p.activeAllocations++
	p.byHandle[handle] = n
	return nil
}

// Return releases a prior Rent. Returning an unknown handle is a no-op;
// it never decrements ActiveAllocations for something that was never
// successfully rented.
func (p *MemoryPool) Return(handle any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.byHandle[handle]
	if !ok {
		return
	}
	delete(p.byHandle, handle)
	p.rented -= n
	p.activeAllocations--
}

func (p *MemoryPool) ActiveAllocations() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeAllocations
}

func (p *MemoryPool) Rented() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rented
}

func (p *MemoryPool) Available() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity - p.rented
}
