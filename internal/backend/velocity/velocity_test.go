package velocity

import (
	"strings"
	"testing"

	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

func buildBranchingKernel(t *testing.T) (*ir.Method, *transform.PhiBindings) {
	t.Helper()
	m := ir.NewMethod("k", "swap_kernel", ir.Void)
	m.Kernel = true
	m.ImplicitGroup = true
	in := &ir.Parameter{Name: "in", Type: ir.I32}
	m.Params = []*ir.Parameter{in}

	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	left := b.CreateBlock("left")
	right := b.CreateBlock("right")
	join := b.CreateBlock("join")
	b.SetEntry(entry)

	b.SetInsertBlock(entry)
	in.Value = b.CreateConstInt(ir.I32, 0)
	cond := b.CreateConstInt(ir.B1, 1)
	b.CreateBranch(cond, left, right)

	b.SetInsertBlock(left)
	a := b.CreateConstInt(ir.I32, 1)
	b.CreateJump(join)

	b.SetInsertBlock(right)
	c := b.CreateConstInt(ir.I32, 2)
	b.CreateJump(join)

	b.SetInsertBlock(join)
	p := b.CreatePhi(join, ir.I32, []ir.PhiSource{{Pred: left, Val: a}, {Pred: right, Val: c}})
	b.CreateReturn(nil)
	b.Commit()
	_ = p

	bindings := transform.ComputePhiBindings(m)
	return m, bindings
}

func TestCompileEmitsKernelPreambleAndParamLoad(t *testing.T) {
	m, bindings := buildBranchingKernel(t)
	kernel, err := Backend{}.Compile(m, bindings)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	code := string(kernel.Code)
	if !strings.Contains(code, "lanes swap_kernel width=32") {
		t.Fatalf("missing default-width preamble:\n%s", code)
	}
	if !strings.Contains(code, "load.tid.vec") {
		t.Fatalf("missing implicit-group thread index load:\n%s", code)
	}
	if !strings.Contains(code, "load.arg.vec 0 -> %") {
		t.Fatalf("missing vectorized param load:\n%s", code)
	}
}

func TestCompileHonorsExplicitWidth(t *testing.T) {
	m, bindings := buildBranchingKernel(t)
	kernel, err := Backend{Width: 8}.Compile(m, bindings)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if kernel.Meta["lane_width"] != 8 {
		t.Fatalf("lane_width = %d, want 8", kernel.Meta["lane_width"])
	}
	if !strings.Contains(string(kernel.Code), "width=8") {
		t.Fatalf("preamble did not record explicit width:\n%s", kernel.Code)
	}
}

func TestCompileDestructsPhiOnBothIncomingEdges(t *testing.T) {
	m, bindings := buildBranchingKernel(t)
	kernel, err := Backend{}.Compile(m, bindings)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	code := string(kernel.Code)
	if strings.Count(code, "vec.mov") != 2 {
		t.Fatalf("want one phi write-move per incoming edge (2 total), got:\n%s", code)
	}
}

func TestArenaSizesSumsSharedAndLocalAllocsSeparately(t *testing.T) {
	m := ir.NewMethod("k", "arenas", ir.Void)
	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)

	count := b.CreateConstInt(ir.I64, 4)
	b.CreateAlloc(ir.F32, count, ir.AddrShared) // 4 * 4 bytes
	b.CreateAlloc(ir.I64, nil, ir.AddrLocal)    // 8 bytes
	b.CreateAlloc(ir.F32, nil, ir.AddrGlobal)   // not arena-pooled
	b.CreateReturn(nil)
	b.Commit()

	shared, local := arenaSizes(m)
	if shared != 16 {
		t.Fatalf("shared = %d, want 16", shared)
	}
	if local != 8 {
		t.Fatalf("local = %d, want 8", local)
	}
}

func TestInstLineRendersShuffleCallWithKindName(t *testing.T) {
	m := ir.NewMethod("k", "shuf", ir.I32)
	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)

	x := b.CreateConstInt(ir.I32, 7)
	delta := b.CreateConstInt(ir.I32, 1)
	call := b.CreateCall("velocity.warp_shuffle_down", []*ir.Value{x, delta}, ir.I32)
	b.CreateReturn(call)
	b.Commit()

	callInst := call.Def.(*ir.CallInst)
	line := instLine(callInst)
	if !strings.Contains(line, "vec.shuffle.down") {
		t.Fatalf("instLine = %q, want it to name the shuffle kind", line)
	}
}

func TestParamWithNilValueSkipsLoadInsteadOfPanicking(t *testing.T) {
	m := ir.NewMethod("k", "unbound_param", ir.Void)
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
