package runtime

import (
	deadlock "github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/singleflight"

	"kernelc/internal/backend"
)

// cacheKey builds the (kernel_method_id, backend_id, specialization_tuple)
// string key of §6 "Compiled-kernel cache", following the teacher's
// plain string-concatenation cache-key idiom (internal/argmap.cacheKey)
// rather than a struct key, so entries are directly loggable.
func cacheKey(methodID, backendID string, specTuple []string) string {
	key := methodID + "_" + backendID
	for _, s := range specTuple {
		key += "_" + s
	}
	return key
}

// cacheEntry holds either a compiled kernel or the error its compile
// failed with. §7 policy: "the cache stores failures against their
// key so the same request fails fast" — a failed entry is never
// retried, only ever returned again.
type cacheEntry struct {
	kernel *backend.CompiledKernel
	err    error
}

// KernelCache is the in-memory compiled-kernel cache shared by every
// accelerator. It guarantees at-most-one concurrent compilation per key
// via singleflight, and remembers failures so a repeated request for a
// key that failed once never re-invokes the compiler.
type KernelCache struct {
	mu      deadlock.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func NewKernelCache() *KernelCache {
	return &KernelCache{entries: make(map[string]cacheEntry)}
}

// Compile returns the cached compiled kernel for (methodID, backendID,
// specTuple), invoking build at most once per key even under
// concurrent callers, and replaying a cached failure without calling
// build again.
func (c *KernelCache) Compile(methodID, backendID string, specTuple []string, build func() (*backend.CompiledKernel, error)) (*backend.CompiledKernel, error) {
	key := cacheKey(methodID, backendID, specTuple)

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return e.kernel, e.err
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		if e, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return e.kernel, e.err
		}
		c.mu.RUnlock()

		kernel, buildErr := build()
		c.mu.Lock()
		c.entries[key] = cacheEntry{kernel: kernel, err: buildErr}
		c.mu.Unlock()
		return kernel, buildErr
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*backend.CompiledKernel), nil
}

// Len reports how many distinct keys have been compiled or attempted,
// used by tests asserting the specialization-cache property (§8 "exactly
// two distinct compiled artifacts are produced").
func (c *KernelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
