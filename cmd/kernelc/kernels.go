package main

import "kernelc/internal/ir"

// No textual kernel format is mandated at the core boundary (§6,
// "Frontend → Core"); the CLI plays the part of a frontend by building
// a small, fixed set of methods directly with the IR builder.
var demoKernels = map[string]func() *ir.Method{
	"vector_scale": buildVectorScale,
}

// buildVectorScale is the §8 scenario 1 kernel: out[i] = in[i] * 2 for
// thread i < N, with an implicit group so the runtime supplies only the
// global thread index.
func buildVectorScale() *ir.Method {
	m := ir.NewMethod("k0", "vector_scale", ir.Void)
	m.Kernel = true
	m.ImplicitGroup = true

	ptrI64 := &ir.PointerType{Elem: ir.I64}
	inParam := &ir.Parameter{Name: "in", Type: ptrI64, Value: &ir.Value{ID: -1, Name: "in", Type: ptrI64}}
	outParam := &ir.Parameter{Name: "out", Type: ptrI64, Value: &ir.Value{ID: -2, Name: "out", Type: ptrI64}}
	m.Params = []*ir.Parameter{inParam, outParam}

	b := ir.NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)

	tid := b.CreateExternalCall("thread_id", nil, ir.I64)
	two := b.CreateConstInt(ir.I64, 2)

	inPtr := b.CreateLea(inParam.Value, tid)
	v := b.CreateLoad(inPtr)
	scaled := b.CreateBinary(ir.OpMulI, v, two)
	outPtr := b.CreateLea(outParam.Value, tid)
	b.CreateStore(outPtr, scaled)
	b.CreateReturn(nil)
	b.Commit()

	return m
}
