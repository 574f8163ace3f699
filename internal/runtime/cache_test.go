package runtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"kernelc/internal/backend"
)

func TestCacheCompileReusesArtifactForSameSpecialization(t *testing.T) {
	c := NewKernelCache()
	var builds int64
	build := func() (*backend.CompiledKernel, error) {
		atomic.AddInt64(&builds, 1)
		return &backend.CompiledKernel{Backend: "cpuil", EntryPoint: "scale"}, nil
	}

	k1, err := c.Compile("scale", "cpuil", []string{"3"}, build)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	k2, err := c.Compile("scale", "cpuil", []string{"4"}, build)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	k3, err := c.Compile("scale", "cpuil", []string{"3"}, build)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if builds != 2 {
		t.Fatalf("builds = %d, want 2 distinct compiles for s=3 and s=4", builds)
	}
	if k1 != k3 {
		t.Fatalf("second s=3 request did not reuse the first compiled artifact")
	}
	if k1 == k2 {
		t.Fatalf("s=3 and s=4 must produce distinct artifacts")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheCompileIsAtMostOnceConcurrentlyPerKey(t *testing.T) {
	c := NewKernelCache()
	var builds int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c.Compile("m", "ptx", nil, func() (*backend.CompiledKernel, error) {
				atomic.AddInt64(&builds, 1)
				return &backend.CompiledKernel{Backend: "ptx", EntryPoint: "m"}, nil
			})
		}()
	}
	close(start)
	wg.Wait()

	if builds != 1 {
		t.Fatalf("builds = %d, want exactly 1 concurrent compile for one key", builds)
	}
}

func TestCacheRemembersFailureAndDoesNotRetry(t *testing.T) {
	c := NewKernelCache()
	var builds int64
	build := func() (*backend.CompiledKernel, error) {
		atomic.AddInt64(&builds, 1)
		return nil, errCompileFailed
	}

	if _, err := c.Compile("bad", "cpuil", nil, build); err == nil {
		t.Fatal("expected the first compile to fail")
	}
	if _, err := c.Compile("bad", "cpuil", nil, build); err == nil {
		t.Fatal("expected the cached failure to be replayed")
	}
	if builds != 1 {
		t.Fatalf("builds = %d, want 1 (the failure must be cached, not retried)", builds)
	}
}

var errCompileFailed = &compileError{"intentional failure"}

type compileError struct{ msg string }

func (e *compileError) Error() string { return e.msg }
