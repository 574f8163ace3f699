package cpuil

import (
	"strings"
	"testing"

	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

func buildScaleKernel(t *testing.T) *ir.Method {
	t.Helper()
	m := ir.NewMethod("k", "scale", ir.Void)
	m.Kernel = true
	m.ImplicitGroup = true

	ptr := &ir.PointerType{Elem: ir.I64}
	in := &ir.Parameter{Name: "in", Type: ptr, Value: &ir.Value{ID: -1, Type: ptr}}
	m.Params = []*ir.Parameter{in}

	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)

	tid := b.CreateExternalCall("thread_id", nil, ir.I64)
	addr := b.CreateLea(in.Value, tid)
	v := b.CreateLoad(addr)
	two := b.CreateConstInt(ir.I64, 2)
	scaled := b.CreateBinary(ir.OpMulI, v, two)
	b.CreateStore(addr, scaled)
	b.CreateReturn(nil)
	b.Commit()
	return m
}

func TestCompileEmitsPrologueAndEntryPoint(t *testing.T) {
	m := buildScaleKernel(t)
	bindings := transform.ComputePhiBindings(m)

	kernel, err := Backend{}.Compile(m, bindings)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if kernel.Backend != "cpuil" {
		t.Fatalf("Backend = %q, want cpuil", kernel.Backend)
	}
	if kernel.EntryPoint != "scale" {
		t.Fatalf("EntryPoint = %q, want scale", kernel.EntryPoint)
	}

	text := string(kernel.Code)
	if !strings.Contains(text, "kernel scale") {
		t.Fatalf("code missing kernel header:\n%s", text)
	}
	if !strings.Contains(text, "load.tid %tid") {
		t.Fatalf("code missing implicit-group thread-id load:\n%s", text)
	}
	if !strings.Contains(text, "load.arg 0") {
		t.Fatalf("code missing argument load:\n%s", text)
	}
}

func TestUnboundParamSkipsLoadInsteadOfPanicking(t *testing.T) {
	m := ir.NewMethod("k", "unbound", ir.Void)
	m.Params = []*ir.Parameter{{Name: "in", Type: ir.I32}}
	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)
	b.CreateReturn(nil)
	b.Commit()

	bindings := transform.ComputePhiBindings(m)
	if _, err := (Backend{}).Compile(m, bindings); err != nil {
		t.Fatalf("Compile: %v", err)
	}
}

func TestNonKernelMethodSkipsThreadIndexPrologue(t *testing.T) {
	m := ir.NewMethod("k", "plain", ir.Void)
	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)
	b.CreateReturn(nil)
	b.Commit()

	bindings := transform.ComputePhiBindings(m)
	kernel, err := (Backend{}).Compile(m, bindings)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(string(kernel.Code), "load.tid") {
		t.Fatalf("non-kernel method should not load a thread index:\n%s", kernel.Code)
	}
}
