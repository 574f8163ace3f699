package velocity

import (
	"testing"

	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

func TestIntrinsicTableResolvesMathCallToScalarOp(t *testing.T) {
	m := ir.NewMethod("k", "uses_sqrt", ir.F32)
	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)
	x := b.CreateConstFloat(ir.F32, 9.0)
	call := b.CreateCall("sqrt", []*ir.Value{x}, ir.F32)
	b.CreateReturn(call)
	b.Commit()

	resolver := &transform.IntrinsicResolver{Table: NewTable()}
	if !resolver.Apply(m) {
		t.Fatal("resolver made no change")
	}
	if got := len(transform.Unresolved(m, NewTable(), 0)); got != 0 {
		t.Fatalf("unresolved calls remain: %d", got)
	}
}

func TestIntrinsicTableRenamesWarpShuffleToVelocityCallee(t *testing.T) {
	m := ir.NewMethod("k", "uses_shuffle", ir.I32)
	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)
	x := b.CreateConstInt(ir.I32, 1)
	src := b.CreateConstInt(ir.I32, 0)
	call := b.CreateCall("warp_shuffle_broadcast", []*ir.Value{x, src}, ir.I32)
	b.CreateReturn(call)
	b.Commit()

	resolver := &transform.IntrinsicResolver{Table: NewTable()}
	resolver.Apply(m)

	ret := entry.Terminator.(*ir.ReturnInst)
	resolved, ok := ret.Val.Def.(*ir.CallInst)
	if !ok {
		t.Fatalf("return value is not a call: %T", ret.Val.Def)
	}
	if resolved.Callee != "velocity.warp_shuffle_broadcast" {
		t.Fatalf("callee = %q, want velocity.warp_shuffle_broadcast", resolved.Callee)
	}
	if _, isShuffle := shuffleCallee[resolved.Callee]; !isShuffle {
		t.Fatalf("renamed callee %q not recognized by instLine's shuffleCallee table", resolved.Callee)
	}
}
