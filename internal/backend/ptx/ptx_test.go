package ptx

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

func TestCompileEmitsTargetDirectiveAndEntry(t *testing.T) {
	m := buildScaleKernel(t)
	bindings := transform.ComputePhiBindings(m)

	kernel, err := (Backend{TargetSM: 80}).Compile(m, bindings)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if kernel.Backend != "ptx" {
		t.Fatalf("Backend = %q, want ptx", kernel.Backend)
	}
	if kernel.EntryPoint != "scale" {
		t.Fatalf("EntryPoint = %q, want scale", kernel.EntryPoint)
	}

	text := string(kernel.Code)
	if !strings.Contains(text, ".target sm_80") {
		t.Fatalf("code missing target directive:\n%s", text)
	}
	if !strings.Contains(text, ".visible .entry scale(") {
		t.Fatalf("code missing entry declaration:\n%s", text)
	}
	if !strings.Contains(text, "mad.lo.s32") {
		t.Fatalf("code missing implicit-group thread-index computation:\n%s", text)
	}
	if !strings.Contains(text, "ret;") {
		t.Fatalf("code missing return terminator:\n%s", text)
	}
}

func TestUnboundParamEmitsCommentInsteadOfLoad(t *testing.T) {
	m := ir.NewMethod("k", "unbound", ir.Void)
	m.Params = []*ir.Parameter{{Name: "in", Type: ir.I32}}
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
	if !strings.Contains(string(kernel.Code), "unbound to a value, skipped") {
		t.Fatalf("code missing unbound-param comment:\n%s", kernel.Code)
	}
}

func TestBranchTerminatorEmitsPredicatedBranch(t *testing.T) {
	m := ir.NewMethod("k", "branchy", ir.Void)
	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	left := b.CreateBlock("left")
	right := b.CreateBlock("right")
	b.SetEntry(entry)

	b.SetInsertBlock(entry)
	cond := b.CreateConstInt(ir.B1, 1)
	b.CreateBranch(cond, left, right)

	b.SetInsertBlock(left)
	b.CreateReturn(nil)

	b.SetInsertBlock(right)
	b.CreateReturn(nil)
	b.Commit()

	bindings := transform.ComputePhiBindings(m)
	kernel, err := (Backend{}).Compile(m, bindings)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	text := string(kernel.Code)
	if !strings.Contains(text, "bra left;") || !strings.Contains(text, "bra right;") {
		t.Fatalf("code missing both branch targets:\n%s", text)
	}
}
